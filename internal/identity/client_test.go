package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/winnermind/internal/models"
)

func TestClient_NotifiesOnSignInAndOut(t *testing.T) {
	p, _, _ := newTestProvider(t)
	c := NewClient(p)
	ctx := context.Background()

	var seen []*models.Session
	unsubscribe := c.OnChange(func(s *models.Session) { seen = append(seen, s) })

	assert.Nil(t, c.Current())
	require.NoError(t, c.Register(ctx, "bob@example.com", "secret1"))
	require.NotNil(t, c.Current())
	assert.Equal(t, "bob@example.com", c.Current().Email)
	assert.NotEmpty(t, c.Token())

	require.NoError(t, c.Logout(ctx))
	assert.Nil(t, c.Current())
	assert.Empty(t, c.Token())

	require.Len(t, seen, 2)
	assert.Equal(t, "bob@example.com", seen[0].Email)
	assert.Nil(t, seen[1])

	unsubscribe()
	require.NoError(t, c.Login(ctx, "bob@example.com", "secret1"))
	assert.Len(t, seen, 2)
}

func TestClient_FailedLoginKeepsState(t *testing.T) {
	p, _, _ := newTestProvider(t)
	c := NewClient(p)
	calls := 0
	c.OnChange(func(*models.Session) { calls++ })

	err := c.Login(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Nil(t, c.Current())
	assert.Zero(t, calls)
	assert.NoError(t, c.Logout(context.Background()))
}
