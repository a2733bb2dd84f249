package identity

import (
	"context"
	"sync"

	"github.com/atinyakov/winnermind/internal/models"
)

// Client holds the signed-in session of a single user agent and notifies
// listeners when it changes.
type Client struct {
	provider *Provider

	mu        sync.Mutex
	session   *models.Session
	token     string
	listeners map[int]func(*models.Session)
	next      int
}

// NewClient creates a signed-out client.
func NewClient(p *Provider) *Client {
	return &Client{provider: p, listeners: make(map[int]func(*models.Session))}
}

// Current returns the signed-in session, or nil.
func (c *Client) Current() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Token returns the token of the current session.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// OnChange registers fn to be called with the new session (nil on sign-out)
// after every change. The returned func unregisters it.
func (c *Client) OnChange(fn func(*models.Session)) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	s, token, err := c.provider.Register(ctx, email, password)
	if err != nil {
		return err
	}
	c.set(&s, token)
	return nil
}

// Login signs in with a credential pair.
func (c *Client) Login(ctx context.Context, email, password string) error {
	s, token, err := c.provider.Login(ctx, email, password)
	if err != nil {
		return err
	}
	c.set(&s, token)
	return nil
}

// Logout ends the current session. Listeners are notified even when the
// remote session could not be removed.
func (c *Client) Logout(ctx context.Context) error {
	token := c.Token()
	if token == "" {
		return nil
	}
	err := c.provider.Logout(ctx, token)
	c.set(nil, "")
	return err
}

func (c *Client) set(s *models.Session, token string) {
	c.mu.Lock()
	c.session = s
	c.token = token
	fns := make([]func(*models.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		var cp *models.Session
		if s != nil {
			v := *s
			cp = &v
		}
		fn(cp)
	}
}
