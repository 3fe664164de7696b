package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/config"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	// AuthorizeSupervisor re-authenticates a supervisor (or admin) for a
	// gated action. The operator performing the sale stays signed on; this
	// is a one-shot credential check.
	AuthorizeSupervisor(ctx context.Context, code, password, action string) (*model.Operator, error)
}

type authService struct {
	repo repository.OperatorRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.OperatorRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	op, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.New(apperr.Validation, "invalid credentials")
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour)
	token, err := s.generateToken(op, req.RegisterNumber, expiresAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "token generation failed", err)
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Name:      op.Name,
		Role:      op.Role,
	}, nil
}

func (s *authService) AuthorizeSupervisor(ctx context.Context, code, password, action string) (*model.Operator, error) {
	op, err := s.repo.FindByUsername(ctx, code)
	if err != nil {
		return nil, apperr.Newf(apperr.Policy, "supervisor authorization failed for %q", action)
	}
	if op.Role != "supervisor" && op.Role != "admin" {
		return nil, apperr.Newf(apperr.Policy, "operator %q is not a supervisor", code)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Newf(apperr.Policy, "supervisor authorization failed for %q", action)
	}
	return op, nil
}

func (s *authService) generateToken(op *model.Operator, register int, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"operator_id":     op.ID.String(),
		"username":        op.Username,
		"name":            op.Name,
		"role":            op.Role,
		"register_number": register,
		"exp":             expiresAt.Unix(),
		"iat":             time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
