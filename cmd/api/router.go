package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/middleware"
	"library-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		cors.New(corsConfig(c.Config.CORS.AllowedOrigins)),
	)

	auth := middleware.Auth(c.JWTManager, c.UserService)
	librarian := middleware.RequireLibrarian()
	customer := middleware.RequireCustomer()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c, auth)

		protected := v1.Group("", auth)
		setupLifecycleRoutes(protected, c, librarian, customer)
		setupUserRoutes(protected, c, librarian)
		setupBookRoutes(v1, protected, c, librarian)
		setupBorrowingRoutes(protected, c, librarian)
		setupDonationRoutes(protected, c, librarian)
		setupNotificationRoutes(protected, c, librarian)
		setupDeliveryRoutes(protected, c, librarian)
		setupStudyRoomRoutes(protected, c, librarian)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.HeaderRequestID)
	cfg.ExposeHeaders = []string{middleware.HeaderRequestID}
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

// ========================================
// BORROW / DONATION LIFECYCLE
// ========================================
func setupLifecycleRoutes(r *gin.RouterGroup, c *container.Container, librarian, customer gin.HandlerFunc) {
	r.POST("/borrow", customer, c.BorrowingHandler.RequestBorrow)
	r.PUT("/accept-borrow/:id", librarian, c.BorrowingHandler.AcceptBorrow)
	r.PUT("/reject-borrow/:id", librarian, c.BorrowingHandler.RejectBorrow)
	r.PUT("/return/:id", customer, c.BorrowingHandler.ReturnBook)

	r.POST("/donate", customer, c.DonationHandler.Donate)
	r.PUT("/accept-donation/:id", librarian, c.DonationHandler.AcceptDonation)
	r.PUT("/reject-donation/:id", librarian, c.DonationHandler.RejectDonation)
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	group := v1.Group("/auth")
	{
		group.POST("/register", c.UserHandler.Register)
		group.POST("/login", c.UserHandler.Login)
		group.POST("/logout", auth, c.UserHandler.Logout)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(r *gin.RouterGroup, c *container.Container, librarian gin.HandlerFunc) {
	users := r.Group("/users")
	{
		users.GET("/me", c.UserHandler.Me)
		users.PUT("/me/photo", c.UserHandler.UploadPhoto)
		users.GET("/:id/photo", c.UserHandler.GetPhoto)

		users.GET("", librarian, c.UserHandler.ListCustomers)
		users.GET("/:id", librarian, c.UserHandler.GetUser)
		users.DELETE("/:id", librarian, c.UserHandler.DeleteUser)
		users.GET("/:id/borrowings", librarian, c.BorrowingHandler.UserHistory)
		users.GET("/:id/deliveries", librarian, c.DeliveryHandler.UserDeliveries)
	}
}

// ========================================
// BOOK ROUTES
// ========================================
// The catalog is public; changes need a librarian.
func setupBookRoutes(public, r *gin.RouterGroup, c *container.Container, librarian gin.HandlerFunc) {
	books := public.Group("/books")
	{
		books.GET("", c.BookHandler.ListBooks)
		books.GET("/categories", c.BookHandler.ListCategories)
		books.GET("/:id", c.BookHandler.GetBook)
		books.GET("/:id/photo", c.BookHandler.GetPhoto)
	}

	admin := r.Group("/books", librarian)
	{
		admin.POST("", c.BookHandler.CreateBook)
		admin.PUT("/:id", c.BookHandler.UpdateBook)
		admin.DELETE("/:id", c.BookHandler.DeleteBook)
		admin.PUT("/:id/photo", c.BookHandler.UploadPhoto)
		admin.GET("/:id/movements", c.BookHandler.ListMovements)
	}
}

// ========================================
// BORROWING ROUTES
// ========================================
func setupBorrowingRoutes(r *gin.RouterGroup, c *container.Container, librarian gin.HandlerFunc) {
	borrowings := r.Group("/borrowings")
	{
		borrowings.GET("/me", c.BorrowingHandler.MyHistory)
		borrowings.GET("/:id", c.BorrowingHandler.GetBorrowing)
		borrowings.GET("", librarian, c.BorrowingHandler.ListBorrowings)
		borrowings.GET("/overdue", librarian, c.BorrowingHandler.ListOverdue)
	}
}

// ========================================
// DONATION ROUTES
// ========================================
func setupDonationRoutes(r *gin.RouterGroup, c *container.Container, librarian gin.HandlerFunc) {
	donations := r.Group("/donations")
	{
		donations.GET("/me", c.DonationHandler.MyDonations)
		donations.GET("/:id", c.DonationHandler.GetDonation)
		donations.GET("/:id/photo", c.DonationHandler.GetPhoto)
		donations.GET("", librarian, c.DonationHandler.ListDonations)
		donations.DELETE("/:id", librarian, c.DonationHandler.DeleteDonation)
	}
}

// ========================================
// NOTIFICATION ROUTES
// ========================================
func setupNotificationRoutes(r *gin.RouterGroup, c *container.Container, librarian gin.HandlerFunc) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", c.NotificationHandler.ListNotifications)
		notifications.PUT("/:id/read", c.NotificationHandler.MarkAsRead)
		notifications.POST("/overdue/:borrowingId", librarian, c.NotificationHandler.SendOverdue)
	}
}

// ========================================
// DELIVERY ROUTES
// ========================================
func setupDeliveryRoutes(r *gin.RouterGroup, c *container.Container, librarian gin.HandlerFunc) {
	deliveries := r.Group("/deliveries")
	{
		deliveries.POST("", c.DeliveryHandler.CreateDelivery)
		deliveries.GET("/me", c.DeliveryHandler.MyDeliveries)
		deliveries.GET("/:id", c.DeliveryHandler.GetDelivery)
		deliveries.PATCH("/:id/confirm", librarian, c.DeliveryHandler.ConfirmDelivery)
	}
}

// ========================================
// STUDY ROOM ROUTES
// ========================================
func setupStudyRoomRoutes(r *gin.RouterGroup, c *container.Container, librarian gin.HandlerFunc) {
	rooms := r.Group("/study-rooms")
	{
		rooms.GET("", c.StudyRoomHandler.ListRooms)
		rooms.GET("/empty", c.StudyRoomHandler.EmptyRooms)
		rooms.GET("/occupied", c.StudyRoomHandler.OccupiedRooms)
		rooms.GET("/:id", c.StudyRoomHandler.GetRoom)
		rooms.POST("/book", c.StudyRoomHandler.BookRoom)

		rooms.GET("/requests", librarian, c.StudyRoomHandler.ListBookings)
		rooms.POST("", librarian, c.StudyRoomHandler.CreateRoom)
		rooms.PUT("/:id", librarian, c.StudyRoomHandler.UpdateRoom)
		rooms.PUT("/:id/release", librarian, c.StudyRoomHandler.ReleaseRoom)
		rooms.DELETE("/:id", librarian, c.StudyRoomHandler.DeleteRoom)
	}
}

// healthCheckHandler reports degraded when a backing service does not answer.
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		services := gin.H{}
		check := func(name string, probe func(context.Context) error) {
			if err := probe(ctx); err != nil {
				services[name] = "error: " + err.Error()
				status = "degraded"
				return
			}
			services[name] = "ok"
		}
		check("database", appCtx.DB.Ping)
		check("redis", appCtx.Cache.Ping)
		check("storage", appCtx.Objects.HealthCheck)

		body := gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  services,
		}
		if stats, err := appCtx.DB.Stats(); err == nil {
			body["database_pool"] = stats
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	}
}
