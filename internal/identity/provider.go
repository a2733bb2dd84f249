// Package identity authenticates users by email and password and issues
// signed session tokens. Accounts, profiles and sessions are documents in
// the same store as the domain data:
//
//	credentials/{email}  userId, passwordHash, createdAt
//	users/{uid}          email, role, createdAt, updatedAt, lastLogin
//	sessions/{sid}       userId, email, createdAt, expiresAt
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
)

// ErrAuth is the single failure class of the identity provider: bad
// credentials, duplicate registration, invalid tokens and store failures all
// match it with errors.Is.
var ErrAuth = errors.New("identity: operation failed")

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

const (
	credentialsCollection = "credentials"
	usersCollection       = "users"
	sessionsCollection    = "sessions"
)

// Options configures a Provider.
type Options struct {
	// Secret signs session tokens with HS256.
	Secret []byte
	// TTL is the lifetime of a session.
	TTL time.Duration
	// Policy decides the role given to new accounts.
	Policy Policy
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Provider registers accounts and manages their sessions.
type Provider struct {
	store  docstore.Store
	secret []byte
	ttl    time.Duration
	policy Policy
	cost   int
	now    func() time.Time
	log    *zap.Logger
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewProvider creates a Provider over store.
func NewProvider(store docstore.Store, opts Options, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Provider{
		store:  store,
		secret: opts.Secret,
		ttl:    opts.TTL,
		policy: opts.Policy,
		cost:   opts.Cost,
		now:    opts.Now,
		log:    log,
	}
	if p.cost == 0 {
		p.cost = bcrypt.DefaultCost
	}
	if p.ttl <= 0 {
		p.ttl = 24 * time.Hour
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Policy returns the privilege policy of the provider.
func (p *Provider) Policy() Policy {
	return p.policy
}

// Register creates an account and signs it in.
//
// Parameters:
//
//	ctx      - request context
//	email    - account email; compared case-insensitively
//	password - at least MinPasswordLength characters
//
// Returns the new session and its token, or an error matching ErrAuth.
func (p *Provider) Register(ctx context.Context, email, password string) (models.Session, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Session{}, "", authErr("register", err)
	}
	if len(password) < MinPasswordLength {
		return models.Session{}, "", authErr("register", fmt.Errorf("password shorter than %d characters", MinPasswordLength))
	}

	credPath := docstore.Join(credentialsCollection, email)
	_, err = p.store.Get(ctx, credPath)
	switch {
	case err == nil:
		return models.Session{}, "", authErr("register", errors.New("email already registered"))
	case !errors.Is(err, docstore.ErrNotFound):
		return models.Session{}, "", authErr("register", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return models.Session{}, "", authErr("register", err)
	}

	uid := ulid.Make().String()
	now := p.now().UTC()
	err = p.store.Create(ctx, credPath, docstore.Fields{
		"userId":       uid,
		"passwordHash": string(hash),
		"createdAt":    now,
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return models.Session{}, "", authErr("register", errors.New("email already registered"))
	}
	if err != nil {
		return models.Session{}, "", authErr("register", err)
	}
	if err := p.store.Set(ctx, docstore.Join(usersCollection, uid), p.profile(email, now)); err != nil {
		return models.Session{}, "", authErr("register", err)
	}

	p.log.Info("account registered", zap.String("userId", uid))
	return p.signIn(ctx, uid, email)
}

// Login verifies the credential pair and opens a new session.
func (p *Provider) Login(ctx context.Context, email, password string) (models.Session, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Session{}, "", authErr("login", err)
	}
	cred, err := p.store.Get(ctx, docstore.Join(credentialsCollection, email))
	if err != nil {
		return models.Session{}, "", authErr("login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.Fields.String("passwordHash")), []byte(password)); err != nil {
		return models.Session{}, "", authErr("login", err)
	}

	uid := cred.Fields.String("userId")
	if err := p.touchProfile(ctx, uid, email); err != nil {
		return models.Session{}, "", authErr("login", err)
	}
	return p.signIn(ctx, uid, email)
}

// Logout ends the session the token belongs to.
func (p *Provider) Logout(ctx context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return authErr("logout", err)
	}
	if err := p.store.Delete(ctx, docstore.Join(sessionsCollection, c.ID)); err != nil {
		return authErr("logout", err)
	}
	return nil
}

// Authenticate returns the session of a valid, unexpired token whose session
// has not been ended.
func (p *Provider) Authenticate(ctx context.Context, token string) (models.Session, error) {
	c, err := p.parse(token)
	if err != nil {
		return models.Session{}, authErr("authenticate", err)
	}
	doc, err := p.store.Get(ctx, docstore.Join(sessionsCollection, c.ID))
	if err != nil {
		return models.Session{}, authErr("authenticate", err)
	}
	if doc.Fields.String("userId") != c.Subject {
		return models.Session{}, authErr("authenticate", errors.New("session belongs to another user"))
	}
	return models.Session{UserID: c.Subject, Email: c.Email}, nil
}

func (p *Provider) signIn(ctx context.Context, uid, email string) (models.Session, string, error) {
	sid := ulid.Make().String()
	now := p.now().UTC()
	expires := now.Add(p.ttl)

	if err := p.store.Set(ctx, docstore.Join(sessionsCollection, sid), docstore.Fields{
		"userId":    uid,
		"email":     email,
		"createdAt": now,
		"expiresAt": expires,
	}); err != nil {
		return models.Session{}, "", authErr("sign in", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ID:        sid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(p.secret)
	if err != nil {
		return models.Session{}, "", authErr("sign in", err)
	}
	return models.Session{UserID: uid, Email: email}, token, nil
}

func (p *Provider) parse(token string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if c.Subject == "" || c.ID == "" {
		return nil, errors.New("token without subject or session id")
	}
	return c, nil
}

// touchProfile stamps the login time, recreating the profile when missing.
func (p *Provider) touchProfile(ctx context.Context, uid, email string) error {
	path := docstore.Join(usersCollection, uid)
	now := p.now().UTC()
	_, err := p.store.Get(ctx, path)
	if errors.Is(err, docstore.ErrNotFound) {
		return p.store.Set(ctx, path, p.profile(email, now))
	}
	if err != nil {
		return err
	}
	return p.store.Merge(ctx, path, docstore.Fields{"lastLogin": now, "updatedAt": now})
}

func (p *Provider) profile(email string, now time.Time) docstore.Fields {
	return docstore.Fields{
		"email":     email,
		"role":      string(p.policy.RoleFor(email)),
		"createdAt": now,
		"updatedAt": now,
		"lastLogin": now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", fmt.Errorf("invalid email: %w", err)
	}
	if addr.Address != email || strings.Contains(email, "/") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return email, nil
}

func authErr(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrAuth, op, cause)
}
