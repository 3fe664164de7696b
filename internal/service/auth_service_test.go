package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

func newAuthFixture(t *testing.T) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newStubOperatorRepo(
		&model.Operator{Username: "maria", Name: "Maria Lima", PasswordHash: string(hash), Role: "cashier", Active: true},
		&model.Operator{Username: "sup1", Name: "Supervisor One", PasswordHash: string(hash), Role: "supervisor", Active: true},
		&model.Operator{Username: "root", Name: "Admin", PasswordHash: string(hash), Role: "admin", Active: true},
		&model.Operator{Username: "gone", Name: "Former Employee", PasswordHash: string(hash), Role: "supervisor", Active: false},
	)
	return NewAuthService(repo, testConfig())
}

func TestLoginIssuesToken(t *testing.T) {
	svc := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Username: "maria", Password: "1234", RegisterNumber: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Lima", resp.Name)
	assert.Equal(t, "cashier", resp.Role)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "maria", claims["username"])
	assert.Equal(t, float64(2), claims["register_number"])

	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "wrong", RegisterNumber: 1})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	// Unknown and deactivated operators get the same answer as a wrong
	// password; login never reveals which part failed.
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "nobody", Password: "1234", RegisterNumber: 1})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "gone", Password: "1234", RegisterNumber: 1})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestAuthorizeSupervisor(t *testing.T) {
	svc := newAuthFixture(t)

	op, err := svc.AuthorizeSupervisor(context.Background(), "sup1", "1234", "cancel_item")
	require.NoError(t, err)
	assert.Equal(t, "supervisor", op.Role)

	// Admins can authorize too.
	op, err = svc.AuthorizeSupervisor(context.Background(), "root", "1234", "price_change")
	require.NoError(t, err)
	assert.Equal(t, "admin", op.Role)
}

func TestAuthorizeSupervisorRejectsCashier(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.AuthorizeSupervisor(context.Background(), "maria", "1234", "cancel_item")
	require.Error(t, err)
	assert.Equal(t, apperr.Policy, apperr.KindOf(err))

	_, err = svc.AuthorizeSupervisor(context.Background(), "sup1", "wrong", "cancel_item")
	require.Error(t, err)
	assert.Equal(t, apperr.Policy, apperr.KindOf(err))
}
