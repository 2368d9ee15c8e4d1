package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/pkg/config"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

type stubUsers struct {
	user      *models.User
	lastLogin time.Time
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *stubUsers) UpdateLastLogin(_ context.Context, _ string, ts time.Time) error {
	s.lastLogin = ts
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test_secret", Expiration: time.Hour, Issuer: "timetable-api"}
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Email:        "coordinator@arka.edu",
		PasswordHash: string(hash),
		FullName:     "Dev Coordinator",
		Role:         models.RoleCoordinator,
		Active:       true,
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	users := &stubUsers{user: testUser(t, "s3cret")}
	auth := NewAuthService(users, testJWTConfig(), nil, nil)

	resp, err := auth.Login(context.Background(), models.LoginRequest{
		Email: "coordinator@arka.edu", Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleCoordinator, resp.User.Role)
	assert.False(t, users.lastLogin.IsZero())

	claims, err := auth.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "coordinator@arka.edu", claims.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := &stubUsers{user: testUser(t, "s3cret")}
	auth := NewAuthService(users, testJWTConfig(), nil, nil)

	_, err := auth.Login(context.Background(), models.LoginRequest{
		Email: "coordinator@arka.edu", Password: "wrong",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), models.LoginRequest{
		Email: "nobody@arka.edu", Password: "s3cret",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := testUser(t, "s3cret")
	user.Active = false
	auth := NewAuthService(&stubUsers{user: user}, testJWTConfig(), nil, nil)

	_, err := auth.Login(context.Background(), models.LoginRequest{
		Email: "coordinator@arka.edu", Password: "s3cret",
	})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	auth := NewAuthService(&stubUsers{user: testUser(t, "s3cret")}, testJWTConfig(), nil, nil)
	resp, err := auth.Login(context.Background(), models.LoginRequest{
		Email: "coordinator@arka.edu", Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = auth.ValidateToken(resp.AccessToken + "x")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(nil, config.JWTConfig{Secret: "other_secret", Expiration: time.Hour}, nil, nil)
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
