package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jaekwang-park/task-sync/internal/auth"
	"github.com/jaekwang-park/task-sync/internal/model"
	"github.com/jaekwang-park/task-sync/internal/repository"
)

// SessionProvider is the single source of truth for who is signed in.
// It holds at most one active session per instance and notifies every
// observer on each change.
type SessionProvider struct {
	client auth.Client
	users  repository.UserRepository
	logger *slog.Logger

	mu        sync.Mutex
	current   *model.Session
	observers map[chan *model.Identity]struct{}
}

func NewSessionProvider(client auth.Client, users repository.UserRepository, logger *slog.Logger) *SessionProvider {
	return &SessionProvider{
		client:    client,
		users:     users,
		logger:    logger,
		observers: make(map[chan *model.Identity]struct{}),
	}
}

// Observe returns a stream of session-state changes. The first value is
// the current identity (nil when signed out) and is delivered
// immediately; the channel closes when ctx is cancelled. Consumers that
// fall behind see only the latest identity.
func (p *SessionProvider) Observe(ctx context.Context) <-chan *model.Identity {
	ch := make(chan *model.Identity, 1)

	p.mu.Lock()
	ch <- p.identityLocked()
	p.observers[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.observers, ch)
		p.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Current returns a copy of the active session, or nil when signed out.
func (p *SessionProvider) Current() *model.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	s := *p.current
	return &s
}

// SignUp creates a remote account. No session is established; the caller
// signs in separately.
func (p *SessionProvider) SignUp(ctx context.Context, email, password string) (model.Identity, error) {
	if strings.TrimSpace(email) == "" {
		return model.Identity{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if password == "" {
		return model.Identity{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	out, err := p.client.SignUp(ctx, auth.SignUpInput{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return model.Identity{}, err
	}

	return model.Identity{UserID: out.UserSub, Email: email}, nil
}

// SignIn authenticates the credential pair, records the user row, and
// establishes the session. Observers are notified on success; on any
// failure the session state is untouched.
func (p *SessionProvider) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	if strings.TrimSpace(email) == "" {
		return model.Session{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if password == "" {
		return model.Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	out, err := p.client.SignIn(ctx, auth.SignInInput{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return model.Session{}, err
	}

	sub, err := extractSub(out.IDToken)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to extract subject from id token: %w", err)
	}

	if _, err := p.users.GetOrCreate(ctx, sub, email); err != nil {
		return model.Session{}, fmt.Errorf("failed to record user: %w", err)
	}

	sess := model.Session{
		Identity:     model.Identity{UserID: sub, Email: email},
		IDToken:      out.IDToken,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
		TokenType:    out.TokenType,
	}

	p.mu.Lock()
	p.current = &sess
	p.broadcastLocked()
	p.mu.Unlock()

	return sess, nil
}

// SignOut clears the local session unconditionally and notifies
// observers. The backend revocation round-trip is best-effort; its
// failure is logged, never surfaced.
func (p *SessionProvider) SignOut(ctx context.Context) {
	p.mu.Lock()
	prev := p.current
	p.current = nil
	p.broadcastLocked()
	p.mu.Unlock()

	if prev == nil {
		return
	}
	if err := p.client.SignOut(ctx, auth.SignOutInput{AccessToken: prev.AccessToken}); err != nil {
		p.logger.Warn("backend sign-out failed", "user_id", prev.Identity.UserID, "error", err)
	}
}

func (p *SessionProvider) identityLocked() *model.Identity {
	if p.current == nil {
		return nil
	}
	id := p.current.Identity
	return &id
}

func (p *SessionProvider) broadcastLocked() {
	id := p.identityLocked()
	for ch := range p.observers {
		sendLatest(ch, id)
	}
}

// extractSub decodes the JWT payload (without verifying signature — the
// token was just issued by the auth service) and extracts the "sub" claim.
func extractSub(idToken string) (string, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid JWT format")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode JWT payload: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("failed to parse JWT claims: %w", err)
	}
	if claims.Sub == "" {
		return "", fmt.Errorf("sub claim not found in JWT")
	}

	return claims.Sub, nil
}
