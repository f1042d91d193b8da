package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"staybook/internal/domain"
	"staybook/internal/models"

	"github.com/rs/zerolog"
)

var ErrMalformedToken = errors.New("server returned a malformed token")

// AppContext owns the authenticated user for one process. It is created
// explicitly and passed to whatever needs the current user.
type AppContext struct {
	tokens domain.TokenStore
	api    domain.AuthAPI
	logger *zerolog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	user *models.User
}

func NewAppContext(tokens domain.TokenStore, api domain.AuthAPI, logger *zerolog.Logger) *AppContext {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AppContext{
		tokens: tokens,
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

// Init reads the persisted token and loads the profile. A malformed or expired
// token is cleared and leaves the context unauthenticated without an error.
func (a *AppContext) Init(ctx context.Context) error {
	token, err := a.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		a.setUser(nil)
		return nil
	}
	if !Usable(token, a.now()) {
		a.logger.Info().Msg("Stored token is malformed or expired, clearing")
		a.setUser(nil)
		return a.tokens.ClearToken(ctx)
	}

	user, err := a.api.Profile(ctx)
	if err != nil {
		if domain.IsReauthRequired(err) {
			a.setUser(nil)
			return a.tokens.ClearToken(ctx)
		}
		return fmt.Errorf("load profile: %w", err)
	}
	a.setUser(user)
	return nil
}

func (a *AppContext) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	var verrs domain.ValidationErrors
	if email == "" {
		verrs = append(verrs, domain.ValidationError{Field: "email", Msg: "is required"})
	}
	if password == "" {
		verrs = append(verrs, domain.ValidationError{Field: "password", Msg: "is required"})
	}
	if len(verrs) > 0 {
		return nil, verrs
	}
	token, err := a.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return a.establish(ctx, token)
}

func (a *AppContext) Register(ctx context.Context, name, email, phone, password string) (*models.User, error) {
	var verrs domain.ValidationErrors
	if strings.TrimSpace(name) == "" {
		verrs = append(verrs, domain.ValidationError{Field: "name", Msg: "is required"})
	}
	if strings.TrimSpace(email) == "" {
		verrs = append(verrs, domain.ValidationError{Field: "email", Msg: "is required"})
	}
	if password == "" {
		verrs = append(verrs, domain.ValidationError{Field: "password", Msg: "is required"})
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	token, err := a.api.Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(phone), password)
	if err != nil {
		return nil, err
	}
	return a.establish(ctx, token)
}

func (a *AppContext) establish(ctx context.Context, token string) (*models.User, error) {
	if !IsWellFormed(token) {
		return nil, ErrMalformedToken
	}
	if err := a.tokens.SetToken(ctx, token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	user, err := a.api.Profile(ctx)
	if err != nil {
		_ = a.tokens.ClearToken(ctx)
		return nil, fmt.Errorf("load profile: %w", err)
	}
	a.setUser(user)
	return user, nil
}

// Teardown clears the token and the current user.
func (a *AppContext) Teardown(ctx context.Context) error {
	a.setUser(nil)
	return a.tokens.ClearToken(ctx)
}

func (a *AppContext) Logout(ctx context.Context) error {
	return a.Teardown(ctx)
}

func (a *AppContext) User() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *AppContext) Authenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil
}

func (a *AppContext) setUser(u *models.User) {
	a.mu.Lock()
	a.user = u
	a.mu.Unlock()
}
