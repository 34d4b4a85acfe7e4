package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paperapi/internal/apperr"
	"paperapi/internal/auth"
	"paperapi/internal/model"
	"paperapi/internal/repository"
)

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

// AuthService authenticates the single configured admin.
type AuthService interface {
	// Login checks the admin credentials, records the user and returns a session token.
	Login(ctx context.Context, email, password string) (string, *model.User, error)

	// CurrentUser returns the stored profile of an authenticated actor.
	CurrentUser(ctx context.Context, actor model.Actor) (*model.User, error)
}

type authService struct {
	users        repository.UserRepository
	issuer       TokenIssuer
	adminEmail   string
	passwordHash string
	log          zerolog.Logger
	now          func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, issuer TokenIssuer, adminEmail, passwordHash string, log zerolog.Logger) AuthService {
	return &authService{
		users:        users,
		issuer:       issuer,
		adminEmail:   strings.ToLower(strings.TrimSpace(adminEmail)),
		passwordHash: passwordHash,
		log:          log.With().Str("component", "auth_service").Logger(),
		now:          time.Now,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil, apperr.Required("email")
	}
	if password == "" {
		return "", nil, apperr.Required("password")
	}
	if s.adminEmail == "" || subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) != 1 {
		s.log.Warn().Str("event", "login_rejected").Str("reason", "email").Send()
		return "", nil, apperr.ErrUnauthorized
	}
	if err := auth.CheckPassword(s.passwordHash, password); err != nil {
		s.log.Warn().Str("event", "login_rejected").Str("reason", "password").Send()
		return "", nil, err
	}

	// An existing row keeps its id; the fresh one is used only on first login.
	u, err := s.users.Upsert(ctx, &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return "", nil, err
	}
	token, err := s.issuer.Issue(u)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Str("event", "login").Str("user_id", u.ID).Send()
	return token, u, nil
}

func (s *authService) CurrentUser(ctx context.Context, actor model.Actor) (*model.User, error) {
	if actor.UserID == "" {
		return nil, apperr.ErrUnauthorized
	}
	return s.users.FindByID(ctx, actor.UserID)
}
