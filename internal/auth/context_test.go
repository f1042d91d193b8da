package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/domain"
	"staybook/internal/models"
	"staybook/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) Register(ctx context.Context, name, email, phone, password string) (string, error) {
	args := m.Called(ctx, name, email, phone, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) Profile(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAppContext_Init(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1", Name: "Asha", Role: models.RoleUser}

	t.Run("NoToken", func(t *testing.T) {
		api := new(mockAuthAPI)
		app := NewAppContext(repository.NewMemoryTokenStore(), api, nil)

		require.NoError(t, app.Init(ctx))
		assert.False(t, app.Authenticated())
		api.AssertNotCalled(t, "Profile", mock.Anything)
	})

	t.Run("MalformedTokenCleared", func(t *testing.T) {
		store := repository.NewMemoryTokenStore()
		require.NoError(t, store.SetToken(ctx, "garbage.token"))
		api := new(mockAuthAPI)
		app := NewAppContext(store, api, nil)

		require.NoError(t, app.Init(ctx))
		assert.False(t, app.Authenticated())
		tok, _ := store.GetToken(ctx)
		assert.Empty(t, tok)
		api.AssertNotCalled(t, "Profile", mock.Anything)
	})

	t.Run("ExpiredTokenCleared", func(t *testing.T) {
		store := repository.NewMemoryTokenStore()
		require.NoError(t, store.SetToken(ctx, signed(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})))
		app := NewAppContext(store, new(mockAuthAPI), nil)

		require.NoError(t, app.Init(ctx))
		tok, _ := store.GetToken(ctx)
		assert.Empty(t, tok)
	})

	t.Run("ValidTokenLoadsProfile", func(t *testing.T) {
		store := repository.NewMemoryTokenStore()
		require.NoError(t, store.SetToken(ctx, signed(t, jwt.MapClaims{"sub": "u1"})))
		api := new(mockAuthAPI)
		api.On("Profile", ctx).Return(user, nil)
		app := NewAppContext(store, api, nil)

		require.NoError(t, app.Init(ctx))
		assert.True(t, app.Authenticated())
		assert.Equal(t, "Asha", app.User().Name)
	})

	t.Run("RejectedTokenCleared", func(t *testing.T) {
		store := repository.NewMemoryTokenStore()
		require.NoError(t, store.SetToken(ctx, signed(t, jwt.MapClaims{"sub": "u1"})))
		api := new(mockAuthAPI)
		api.On("Profile", ctx).Return(nil, &domain.APIError{Op: "profile", Status: 401, TokenError: true})
		app := NewAppContext(store, api, nil)

		require.NoError(t, app.Init(ctx))
		assert.False(t, app.Authenticated())
		tok, _ := store.GetToken(ctx)
		assert.Empty(t, tok)
	})

	t.Run("TransportErrorKeepsToken", func(t *testing.T) {
		store := repository.NewMemoryTokenStore()
		token := signed(t, jwt.MapClaims{"sub": "u1"})
		require.NoError(t, store.SetToken(ctx, token))
		api := new(mockAuthAPI)
		api.On("Profile", ctx).Return(nil, &domain.APIError{Op: "profile", Err: errors.New("connection refused")})
		app := NewAppContext(store, api, nil)

		err := app.Init(ctx)
		assert.True(t, domain.IsTransport(err))
		tok, _ := store.GetToken(ctx)
		assert.Equal(t, token, tok)
	})
}

func TestAppContext_Login(t *testing.T) {
	ctx := context.Background()
	token := signed(t, jwt.MapClaims{"sub": "u1"})

	t.Run("Success", func(t *testing.T) {
		store := repository.NewMemoryTokenStore()
		api := new(mockAuthAPI)
		api.On("Login", ctx, "asha@example.com", "secret").Return(token, nil)
		api.On("Profile", ctx).Return(&models.User{ID: "u1"}, nil)
		app := NewAppContext(store, api, nil)

		user, err := app.Login(ctx, " asha@example.com ", "secret")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		stored, _ := store.GetToken(ctx)
		assert.Equal(t, token, stored)
	})

	t.Run("MissingFields", func(t *testing.T) {
		app := NewAppContext(repository.NewMemoryTokenStore(), new(mockAuthAPI), nil)
		_, err := app.Login(ctx, "", "")
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, []string{"email", "password"}, verrs.Fields())
	})

	t.Run("MalformedTokenNotPersisted", func(t *testing.T) {
		store := repository.NewMemoryTokenStore()
		api := new(mockAuthAPI)
		api.On("Login", ctx, "a@b.c", "pw").Return("nope", nil)
		app := NewAppContext(store, api, nil)

		_, err := app.Login(ctx, "a@b.c", "pw")
		assert.ErrorIs(t, err, ErrMalformedToken)
		stored, _ := store.GetToken(ctx)
		assert.Empty(t, stored)
	})
}

func TestAppContext_RegisterAndTeardown(t *testing.T) {
	ctx := context.Background()
	token := signed(t, jwt.MapClaims{"sub": "u2"})
	store := repository.NewMemoryTokenStore()
	api := new(mockAuthAPI)
	api.On("Register", ctx, "Ravi", "ravi@example.com", "+91", "pw").Return(token, nil)
	api.On("Profile", ctx).Return(&models.User{ID: "u2", Name: "Ravi"}, nil)
	app := NewAppContext(store, api, nil)

	_, err := app.Register(ctx, "", "", "", "")
	assert.True(t, domain.IsValidation(err))

	user, err := app.Register(ctx, "Ravi", "ravi@example.com", "+91", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
	assert.True(t, app.Authenticated())

	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.Authenticated())
	assert.Nil(t, app.User())
	stored, _ := store.GetToken(ctx)
	assert.Empty(t, stored)
}
