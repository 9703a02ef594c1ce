package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"library-backend/internal/config"
	infraCache "library-backend/internal/infrastructure/cache"
	infraDB "library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/queue"
	"library-backend/internal/infrastructure/storage"
	"library-backend/pkg/cache"
	"library-backend/pkg/database"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"

	bookHandler "library-backend/internal/domains/book/handler"
	bookRepo "library-backend/internal/domains/book/repository"
	bookService "library-backend/internal/domains/book/service"
	borrowingHandler "library-backend/internal/domains/borrowing/handler"
	borrowingModel "library-backend/internal/domains/borrowing/model"
	borrowingRepo "library-backend/internal/domains/borrowing/repository"
	borrowingService "library-backend/internal/domains/borrowing/service"
	deliveryHandler "library-backend/internal/domains/delivery/handler"
	deliveryRepo "library-backend/internal/domains/delivery/repository"
	deliveryService "library-backend/internal/domains/delivery/service"
	donationHandler "library-backend/internal/domains/donation/handler"
	donationRepo "library-backend/internal/domains/donation/repository"
	donationService "library-backend/internal/domains/donation/service"
	notificationHandler "library-backend/internal/domains/notification/handler"
	notificationRepo "library-backend/internal/domains/notification/repository"
	notificationService "library-backend/internal/domains/notification/service"
	studyroomHandler "library-backend/internal/domains/studyroom/handler"
	studyroomRepo "library-backend/internal/domains/studyroom/repository"
	studyroomService "library-backend/internal/domains/studyroom/service"
	userHandler "library-backend/internal/domains/user/handler"
	userRepo "library-backend/internal/domains/user/repository"
	userService "library-backend/internal/domains/user/service"
)

// Container holds the API dependency graph. Build order:
// infrastructure, repositories, services, handlers.
type Container struct {
	Config *config.Config

	DB         *infraDB.PostgresDB
	Redis      *infraCache.RedisClient
	Cache      cache.Cache
	Tx         database.Transactor
	JWTManager *jwt.Manager
	Queue      *asynq.Client
	Jobs       *queue.Dispatcher
	Objects    *storage.MinIOStorage
	Photos     storage.PhotoStore

	BookRepo         bookRepo.Repository
	BorrowingRepo    borrowingRepo.Repository
	DonationRepo     donationRepo.Repository
	NotificationRepo notificationRepo.Repository
	DeliveryRepo     deliveryRepo.Repository
	UserRepo         userRepo.Repository
	StudyRoomRepo    studyroomRepo.Repository

	Ledger              *bookService.LedgerService
	BookService         *bookService.BookService
	BorrowingService    *borrowingService.BorrowingService
	DonationService     *donationService.DonationService
	NotificationService *notificationService.NotificationService
	DeliveryService     *deliveryService.DeliveryService
	UserService         *userService.UserService
	StudyRoomService    *studyroomService.StudyRoomService

	BookHandler         *bookHandler.Handler
	BorrowingHandler    *borrowingHandler.Handler
	DonationHandler     *donationHandler.Handler
	NotificationHandler *notificationHandler.Handler
	DeliveryHandler     *deliveryHandler.Handler
	UserHandler         *userHandler.Handler
	StudyRoomHandler    *studyroomHandler.Handler
}

// NewContainer connects every backing service and wires the domains.
// Postgres, Redis and MinIO are required; a failure closes what was opened.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initRepositories()
	c.Wire()

	logger.Info("container initialized", map[string]interface{}{"environment": cfg.App.Environment})
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c.DB = infraDB.NewPostgresDB(c.Config.Database)
	if err := c.DB.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.Tx = database.NewTransactor(c.DB.Pool)

	c.Redis = infraCache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = infraCache.NewRedisCache(c.Redis.Client, "library")

	objects, err := storage.NewMinIOStorage(connectCtx, c.Config.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Objects = objects
	c.Photos = storage.NewPhotoService(objects, storage.NewImageProcessor(c.Config.MinIO.MaxPhotoMB))

	c.Queue = asynq.NewClient(RedisOpt(c.Config.Redis))
	c.Jobs = queue.NewDispatcher(c.Queue)

	c.JWTManager = jwt.NewManager(c.Config.JWT.Secret, c.Config.JWT.Issuer)
	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.BookRepo = bookRepo.NewPostgresRepository(pool)
	c.BorrowingRepo = borrowingRepo.NewPostgresRepository(pool)
	c.DonationRepo = donationRepo.NewPostgresRepository(pool)
	c.NotificationRepo = notificationRepo.NewPostgresRepository(pool)
	c.DeliveryRepo = deliveryRepo.NewPostgresRepository(pool)
	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.StudyRoomRepo = studyroomRepo.NewPostgresRepository(pool)
}

// Wire builds services and handlers on top of the infrastructure and
// repositories already set on c.
func (c *Container) Wire() {
	c.initServices()
	c.initHandlers()
}

func (c *Container) initServices() {
	c.Ledger = bookService.NewLedgerService(c.BookRepo, c.Tx, c.Cache)
	c.BookService = bookService.NewService(c.BookRepo, c.Ledger, c.Tx, c.Cache, c.Photos, c.Jobs)

	// Borrowing emits notifications, so notifications read borrowings
	// straight from the repository.
	c.NotificationService = notificationService.NewService(
		c.NotificationRepo, c.Cache, BorrowingLookup{Repo: c.BorrowingRepo}, c.BookService,
	)
	c.BorrowingService = borrowingService.NewService(
		c.BorrowingRepo, c.Ledger, c.BookService, c.NotificationService, c.Tx,
	)
	c.DonationService = donationService.NewService(
		c.DonationRepo, c.Ledger, c.BookService, c.NotificationService, c.Tx, c.Photos, c.Jobs,
	)
	c.DeliveryService = deliveryService.NewService(
		c.DeliveryRepo, c.NotificationService, c.Ledger, c.BorrowingService, c.DonationService, c.Tx,
	)
	c.UserService = userService.NewService(c.UserRepo, c.JWTManager, c.Cache, c.Photos, c.Jobs, userService.Config{
		SignupTTL: c.Config.JWT.SignupTTL,
		LoginTTL:  c.Config.JWT.LoginTTL,
	})
	c.StudyRoomService = studyroomService.NewService(c.StudyRoomRepo, c.Tx)
}

func (c *Container) initHandlers() {
	maxPhoto := int64(c.Config.MinIO.MaxPhotoMB) << 20

	c.BookHandler = bookHandler.NewHandler(c.BookService, maxPhoto)
	c.BorrowingHandler = borrowingHandler.NewHandler(c.BorrowingService)
	c.DonationHandler = donationHandler.NewHandler(c.DonationService, maxPhoto)
	c.NotificationHandler = notificationHandler.NewHandler(c.NotificationService)
	c.DeliveryHandler = deliveryHandler.NewHandler(c.DeliveryService)
	c.UserHandler = userHandler.NewHandler(c.UserService, maxPhoto)
	c.StudyRoomHandler = studyroomHandler.NewHandler(c.StudyRoomService)
}

// Cleanup closes whatever was opened. Safe on a partially built container.
func (c *Container) Cleanup() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			logger.Error("failed to close queue client", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}
}

// RedisOpt converts the redis section into asynq connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Host, Password: cfg.Password, DB: cfg.DB}
}

// BorrowingLookup exposes borrowing reads without the borrowing service.
type BorrowingLookup struct {
	Repo borrowingRepo.Repository
}

func (l BorrowingLookup) GetBorrowing(ctx context.Context, id string) (*borrowingModel.Borrowing, error) {
	return l.Repo.GetByID(ctx, id)
}
