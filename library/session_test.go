package library

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// activeSession is a logged-in session with no backing store.
func activeSession() *Session {
	return &Session{user: Admin{Email: "admin@library.test"}, active: true}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists the session", func(t *testing.T) {
		api := new(mockAPI)
		api.On("Login", mock.Anything, "admin@library.test", "secret").Return(true, nil)
		db := tempDB(t)

		s, err := Login(ctx, api, db, " admin@library.test ", "secret")
		require.NoError(t, err)
		assert.True(t, s.Active())
		assert.Equal(t, "admin@library.test", s.User().Email)

		restored, err := RestoreSession(db)
		require.NoError(t, err)
		assert.Equal(t, s.User(), restored.User())
		api.AssertExpectations(t)
	})

	t.Run("false answer is invalid credentials", func(t *testing.T) {
		api := new(mockAPI)
		api.On("Login", mock.Anything, "admin@library.test", "wrong").Return(false, nil)
		db := tempDB(t)

		_, err := Login(ctx, api, db, "admin@library.test", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = RestoreSession(db)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("empty credentials never reach the API", func(t *testing.T) {
		api := new(mockAPI)
		_, err := Login(ctx, api, nil, "", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("transport failure is returned", func(t *testing.T) {
		api := new(mockAPI)
		api.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return(false, &TransportError{Op: "login", StatusCode: 500})

		_, err := Login(ctx, api, nil, "admin@library.test", "secret")
		assert.True(t, IsTransportError(err))
	})
}

func TestSessionLogoutAndInvalidate(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.SaveSession(Admin{Email: "admin@library.test"}))

	s, err := RestoreSession(db)
	require.NoError(t, err)
	require.True(t, s.Active())

	s.Invalidate()
	assert.False(t, s.Active())
	_, err = RestoreSession(db)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, db.SaveSession(Admin{Email: "admin@library.test"}))
	s, err = RestoreSession(db)
	require.NoError(t, err)
	require.NoError(t, s.Logout())
	assert.False(t, s.Active())
	_, err = RestoreSession(db)
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestNilSessionIsInactive(t *testing.T) {
	var s *Session
	assert.False(t, s.Active())
	assert.NotPanics(t, s.Invalidate)
}
