package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/repository"
	"library-backend/internal/infrastructure/storage"
	"library-backend/internal/shared/apperror"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"
)

const (
	MaxFailedLogins = 5
	LoginLockWindow = 15 * time.Minute
)

func blacklistKey(tokenID string) string {
	return "blacklist:" + tokenID
}

func loginAttemptsKey(username, ip string) string {
	return fmt.Sprintf("login_attempts:%s:%s", strings.ToLower(username), ip)
}

type ServiceInterface interface {
	Register(ctx context.Context, req model.RegisterRequest, photo []byte) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest, clientIP string) (*model.AuthResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListCustomers(ctx context.Context, req model.ListRequest) (*model.ListResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	UploadPhoto(ctx context.Context, id uuid.UUID, photo []byte) (*model.User, error)
	OpenPhoto(ctx context.Context, id uuid.UUID) (*storage.Object, error)
	CreateLibrarian(ctx context.Context, username, password string) (*model.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID, username, role string, ttl time.Duration) (string, *jwt.Claims, error)
}

type PhotoJobs interface {
	DeletePhoto(ctx context.Context, key, reason string) error
}

type Config struct {
	SignupTTL time.Duration
	LoginTTL  time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type UserService struct {
	repo   repository.Repository
	tokens TokenIssuer
	cache  cache.Cache
	photos storage.PhotoStore
	jobs   PhotoJobs
	cfg    Config
}

func NewService(repo repository.Repository, tokens TokenIssuer, cache cache.Cache, photos storage.PhotoStore, jobs PhotoJobs, cfg Config) *UserService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, tokens: tokens, cache: cache, photos: photos, jobs: jobs, cfg: cfg}
}

// Register creates a customer account and signs the caller in.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest, photo []byte) (*model.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}
	if req.UserType == model.RoleLibrarian {
		return nil, model.ErrLibrarianSignup
	}

	u, err := s.create(ctx, req, photo)
	if err != nil {
		return nil, err
	}
	return s.issue(u, s.cfg.SignupTTL)
}

// CreateLibrarian is the operator path for librarian accounts.
func (s *UserService) CreateLibrarian(ctx context.Context, username, password string) (*model.User, error) {
	req := model.RegisterRequest{
		Username: strings.TrimSpace(username),
		Password: password,
		UserType: model.RoleLibrarian,
	}
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}
	return s.create(ctx, req, nil)
}

func (s *UserService) create(ctx context.Context, req model.RegisterRequest, photo []byte) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: string(hash),
		UserType:     req.UserType,
		UserNumber:   req.UserNumber,
	}
	if u.UserNumber == "" {
		u.UserNumber = strconv.Itoa(rand.IntN(100000))
	}

	if len(photo) > 0 {
		key, err := s.savePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		u.PhotoKey = &key
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if u.PhotoKey != nil {
			s.dropPhoto(ctx, *u.PhotoKey, "user insert failed")
		}
		return nil, err
	}

	logger.Info("user created", map[string]interface{}{
		"user_id":   u.ID.String(),
		"user_type": string(u.UserType),
	})
	return u, nil
}

// Login checks the password and throttles repeated failures per
// username and client IP.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest, clientIP string) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.NewValidation(err)
	}

	attemptsKey := loginAttemptsKey(req.Username, clientIP)
	var attempts int64
	if found, err := s.cache.Get(ctx, attemptsKey, &attempts); err != nil {
		logger.Error("login throttle read failed", err)
	} else if found && attempts >= MaxFailedLogins {
		return nil, model.ErrTooManyAttempts
	}

	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.recordFailure(ctx, attemptsKey)
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, attemptsKey)
		return nil, model.ErrInvalidCredentials
	}

	if err := s.cache.Delete(ctx, attemptsKey); err != nil {
		logger.Error("login throttle reset failed", err)
	}
	return s.issue(u, s.cfg.LoginTTL)
}

func (s *UserService) recordFailure(ctx context.Context, key string) {
	n, err := s.cache.Increment(ctx, key)
	if err != nil {
		logger.Error("login throttle increment failed", err)
		return
	}
	if n == 1 {
		if err := s.cache.Expire(ctx, key, LoginLockWindow); err != nil {
			logger.Error("login throttle expiry failed", err)
		}
	}
	if n >= MaxFailedLogins {
		logger.Warn("login locked", map[string]interface{}{"key": key, "attempts": n})
	}
}

// Logout blacklists the token id until the token would expire anyway.
func (s *UserService) Logout(ctx context.Context, claims *jwt.Claims) error {
	ttl := claims.RemainingTTL(time.Now())
	if ttl <= 0 || claims.ID == "" {
		return nil
	}
	if err := s.cache.Set(ctx, blacklistKey(claims.ID), true, ttl); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (s *UserService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, blacklistKey(tokenID))
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) ListCustomers(ctx context.Context, req model.ListRequest) (*model.ListResponse, error) {
	req.Normalize()
	users, total, err := s.repo.ListByType(ctx, model.RoleCustomer, req.Limit, req.Offset())
	if err != nil {
		return nil, err
	}

	resp := &model.ListResponse{
		Users: make([]model.UserResponse, 0, len(users)),
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
	}
	for i := range users {
		resp.Users = append(resp.Users, users[i].ToResponse())
	}
	return resp, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if u.PhotoKey != nil {
		s.dropPhoto(ctx, *u.PhotoKey, "user deleted")
	}
	logger.Info("user deleted", map[string]interface{}{"user_id": id.String()})
	return nil
}

func (s *UserService) UploadPhoto(ctx context.Context, id uuid.UUID, photo []byte) (*model.User, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	key, err := s.savePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}
	previous, err := s.repo.UpdatePhoto(ctx, id, key)
	if err != nil {
		s.dropPhoto(ctx, key, "user photo update failed")
		return nil, err
	}
	if previous != nil && *previous != key {
		s.dropPhoto(ctx, *previous, "user photo replaced")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) OpenPhoto(ctx context.Context, id uuid.UUID) (*storage.Object, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.PhotoKey == nil {
		return nil, model.ErrPhotoNotFound
	}
	obj, err := s.photos.Open(ctx, *u.PhotoKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, model.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("open user photo: %w", err)
	}
	return obj, nil
}

func (s *UserService) issue(u *model.User, ttl time.Duration) (*model.AuthResponse, error) {
	token, claims, err := s.tokens.GenerateToken(u.ID.String(), u.Username, string(u.UserType), ttl)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		User:      u.ToResponse(),
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *UserService) savePhoto(ctx context.Context, photo []byte) (string, error) {
	key, err := s.photos.Save(ctx, storage.FolderUsers, photo)
	if err != nil {
		var invalid *storage.InvalidPhotoError
		if errors.As(err, &invalid) {
			return "", model.ErrInvalidPhoto
		}
		return "", err
	}
	return key, nil
}

func (s *UserService) dropPhoto(ctx context.Context, key, reason string) {
	if err := s.jobs.DeletePhoto(ctx, key, reason); err != nil {
		logger.Error("failed to enqueue photo deletion", err)
	}
}
