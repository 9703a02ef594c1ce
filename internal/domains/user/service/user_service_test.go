package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/usertest"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/testutil"
	"library-backend/pkg/jwt"
)

type fixture struct {
	svc    *UserService
	repo   *usertest.Repository
	tokens *jwt.Manager
	cache  *testutil.Cache
	photos *testutil.Photos
	jobs   *testutil.Jobs
}

func newFixture() *fixture {
	f := &fixture{
		repo:   usertest.NewRepository(),
		tokens: jwt.NewManager("test-secret", "library-backend"),
		cache:  testutil.NewCache(),
		photos: testutil.NewPhotos(),
		jobs:   &testutil.Jobs{},
	}
	f.svc = NewService(f.repo, f.tokens, f.cache, f.photos, f.jobs, Config{
		SignupTTL:  24 * time.Hour,
		LoginTTL:   7 * 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return f
}

func (f *fixture) register(t *testing.T, username string) *model.AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), model.RegisterRequest{
		Username: username,
		Password: "secret1",
		UserType: model.RoleCustomer,
	}, nil)
	require.NoError(t, err)
	return resp
}

func TestRegister_IssuesSignupToken(t *testing.T) {
	f := newFixture()

	resp := f.register(t, "alice")

	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, model.RoleCustomer, resp.User.UserType)
	assert.NotEmpty(t, resp.User.UserNumber)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), claims.UserID)
	assert.Equal(t, "customer", claims.Role)

	stored, err := f.repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register(t, "alice")

	_, err := f.svc.Register(ctx, model.RegisterRequest{Username: "alice", Password: "secret1", UserType: model.RoleCustomer}, nil)
	assert.ErrorIs(t, err, model.ErrUsernameTaken)

	_, err = f.svc.Register(ctx, model.RegisterRequest{Username: "bob", Password: "short", UserType: model.RoleCustomer}, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.svc.Register(ctx, model.RegisterRequest{Username: "carol", Password: "secret1", UserType: "admin"}, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.svc.Register(ctx, model.RegisterRequest{Username: "dave", Password: "secret1", UserType: model.RoleLibrarian}, nil)
	assert.ErrorIs(t, err, model.ErrLibrarianSignup)
}

func TestRegister_WithPhoto(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	resp, err := f.svc.Register(ctx, model.RegisterRequest{Username: "erin", Password: "secret1", UserType: model.RoleCustomer}, []byte("jpeg"))
	require.NoError(t, err)
	require.NotNil(t, resp.User.Photo)
	assert.Equal(t, model.PhotoPath(resp.User.ID), *resp.User.Photo)

	_, err = f.svc.Register(ctx, model.RegisterRequest{Username: "frank", Password: "secret1", UserType: model.RoleCustomer}, testutil.InvalidPhoto)
	assert.ErrorIs(t, err, model.ErrInvalidPhoto)

	_, err = f.svc.Register(ctx, model.RegisterRequest{Username: "erin", Password: "secret1", UserType: model.RoleCustomer}, []byte("jpeg"))
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
	assert.Len(t, f.jobs.Deleted, 1)
}

func TestCreateLibrarian(t *testing.T) {
	f := newFixture()

	u, err := f.svc.CreateLibrarian(context.Background(), "librarian", "secret1")

	require.NoError(t, err)
	assert.Equal(t, model.RoleLibrarian, u.UserType)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register(t, "alice")

	resp, err := f.svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "secret1"}, "10.0.0.1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), resp.ExpiresAt, time.Minute)

	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "wrong"}, "10.0.0.1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "nobody", Password: "secret1"}, "10.0.0.1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestLogin_ThrottlesRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register(t, "alice")

	for i := 0; i < MaxFailedLogins; i++ {
		_, err := f.svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "wrong"}, "10.0.0.1")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	}

	_, err := f.svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "secret1"}, "10.0.0.1")
	assert.ErrorIs(t, err, model.ErrTooManyAttempts)

	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "secret1"}, "10.0.0.2")
	assert.NoError(t, err)
}

func TestLogout_BlacklistsToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	resp := f.register(t, "alice")
	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)

	revoked, err := f.svc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.svc.Logout(ctx, claims))

	revoked, err = f.svc.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestListCustomers_ExcludesLibrarians(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register(t, "bob")
	f.register(t, "alice")
	_, err := f.svc.CreateLibrarian(ctx, "librarian", "secret1")
	require.NoError(t, err)

	resp, err := f.svc.ListCustomers(ctx, model.ListRequest{})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "alice", resp.Users[0].Username)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	resp, err := f.svc.Register(ctx, model.RegisterRequest{Username: "erin", Password: "secret1", UserType: model.RoleCustomer}, []byte("jpeg"))
	require.NoError(t, err)
	busy := f.register(t, "busy")
	f.repo.InUse[busy.User.ID] = true

	require.NoError(t, f.svc.DeleteUser(ctx, resp.User.ID))
	assert.Len(t, f.jobs.Deleted, 1)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, resp.User.ID), model.ErrUserNotFound)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, busy.User.ID), model.ErrUserInUse)
}

func TestUploadPhoto_ReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	resp := f.register(t, "alice")

	u, err := f.svc.UploadPhoto(ctx, resp.User.ID, []byte("first"))
	require.NoError(t, err)
	first := *u.PhotoKey

	u, err = f.svc.UploadPhoto(ctx, resp.User.ID, []byte("second"))
	require.NoError(t, err)
	assert.NotEqual(t, first, *u.PhotoKey)
	assert.Equal(t, []string{first}, f.jobs.Deleted)

	obj, err := f.svc.OpenPhoto(ctx, resp.User.ID)
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, int64(len("second")), obj.Size)

	_, err = f.svc.UploadPhoto(ctx, uuid.New(), []byte("x"))
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
