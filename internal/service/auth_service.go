package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Cheertaboi/storefront-service/internal/apperr"
	"github.com/Cheertaboi/storefront-service/internal/auth"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

type AuthService struct {
	users  UserRepo
	carts  *CartService
	tokens *auth.TokenIssuer
	log    *zap.Logger
	cost   int
}

func NewAuthService(users UserRepo, carts *CartService, tokens *auth.TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, carts: carts, tokens: tokens, log: log, cost: bcrypt.DefaultCost}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 8 {
		return nil, apperr.Validation("invalid_registration", "email and a password of at least 8 characters are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperr.Backend("could not register", err)
	}

	u, err := s.users.Create(ctx, &models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, err
		}
		return nil, apperr.Backend("could not register", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, apperr.Backend("could not issue token", err)
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	return &models.LoginResponse{Token: token, User: *u}, nil
}

// Login checks the credentials and issues a token. When the client sends
// the id of its guest cart, the guest lines are merged into the user's cart;
// a failed merge does not fail the login and leaves the guest cart intact.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, guestID string) (*models.LoginResponse, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, apperr.Backend("could not log in", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.AuthRequired("invalid email or password")
	}
	if u.Blocked {
		return nil, apperr.Forbidden("account is blocked")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, apperr.Backend("could not issue token", err)
	}
	resp := &models.LoginResponse{Token: token, User: *u}

	if guestID != "" {
		n, err := s.carts.MergeGuest(ctx, u.ID, guestID)
		if err != nil {
			s.log.Warn("guest cart not merged at login", zap.Int64("user_id", u.ID), zap.Error(err))
		}
		resp.MergedCartLines = n
	}
	return resp, nil
}
