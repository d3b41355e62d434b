package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/nishijain7/uber-clone/internal/crypto"
	"github.com/nishijain7/uber-clone/internal/domain"
	"github.com/nishijain7/uber-clone/internal/repository"
	"github.com/nishijain7/uber-clone/internal/token"
)

// Service handles the authentication lifecycle: registration, login,
// per-request authentication and logout.
type Service struct {
	users     repository.UserRepository
	blacklist repository.TokenBlacklist
	hasher    *crypto.Hasher
	tokens    *token.Issuer
	logger    *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, blacklist repository.TokenBlacklist, hasher *crypto.Hasher, tokens *token.Issuer, logger *slog.Logger) Service {
	return Service{users: users, blacklist: blacklist, hasher: hasher, tokens: tokens, logger: logger}
}

// RegisterInput carries validated registration fields.
type RegisterInput struct {
	Fullname domain.Fullname
	Email    string
	Password string
}

// Register creates an account and issues its first session token.
func (s Service) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, "", err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Fullname:     input.Fullname,
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}
	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, tok, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password collapse into the same error.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	match, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, "", err
	}
	if !match {
		return nil, "", ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, tok, nil
}

// Authenticate converts a raw token candidate into a verified user. Checks
// run in a fixed order, each a rejection point: presence, signature, expiry,
// blacklist, then user lookup. A deleted user is reported exactly like a
// missing token.
func (s Service) Authenticate(ctx context.Context, candidate string) (*domain.User, error) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return nil, ErrUnauthenticated
	}
	userID, err := s.tokens.Verify(trimmed)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.Contains(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the presented token. It never fails because the token is
// absent, expired or unparsable: revoking an already-dead token is a no-op,
// not an error. When the expiry claim cannot be read the entry gets a
// conservative 24h horizon.
func (s Service) Logout(ctx context.Context, candidate string) error {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return nil
	}
	expiresAt, ok := s.tokens.Expiry(trimmed)
	if !ok {
		expiresAt = time.Now().Add(24 * time.Hour)
	}
	if err := s.blacklist.Add(ctx, trimmed, expiresAt); err != nil {
		return err
	}
	s.logger.Info("token revoked")
	return nil
}

// RunPruner periodically removes blacklist entries for tokens that are past
// expiry anyway. Blocks until ctx is cancelled.
func (s Service) RunPruner(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.blacklist.Prune(ctx, time.Now().UTC())
			if err != nil {
				s.logger.Error("blacklist prune failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("blacklist pruned", "removed", removed)
			}
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
