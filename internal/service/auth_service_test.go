package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

type authRepoStub struct {
	user      *models.User
	lastLogin *time.Time
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin = &ts
	return nil
}

func newAuthStub(t *testing.T, active bool) *authRepoStub {
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &authRepoStub{user: &models.User{
		ID:           "u-1",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		FullName:     "Admin Sekolah",
		Role:         models.RoleAdmin,
		Active:       active,
	}}
}

func testAuthConfig() AuthConfig {
	return AuthConfig{TokenSecret: "test-secret", TokenExpiry: time.Hour, Issuer: "guru-ganti-api"}
}

func TestAuthLoginIssuesValidToken(t *testing.T) {
	repo := newAuthStub(t, true)
	svc := NewAuthService(repo, validator.New(), nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "rahasia123"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", res.User.ID)
	assert.NotNil(t, repo.lastLogin)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newAuthStub(t, true), validator.New(), nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "salah"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	svc := NewAuthService(newAuthStub(t, true), validator.New(), nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "rahasia123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc := NewAuthService(newAuthStub(t, false), validator.New(), nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "rahasia123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsWrongSecret(t *testing.T) {
	first := NewAuthService(newAuthStub(t, true), validator.New(), nil, testAuthConfig())
	res, err := first.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "rahasia123"})
	require.NoError(t, err)

	other := NewAuthService(newAuthStub(t, true), validator.New(), nil, AuthConfig{TokenSecret: "different", TokenExpiry: time.Hour})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
