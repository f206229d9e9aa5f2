package auth

import (
	"context"
	"time"

	"streamhub/internal/domain"
	"streamhub/internal/pkg/jwt"
)

// AccountStore is the slice of the credential store the session flows use.
type AccountStore interface {
	FindByHandleOrEmail(ctx context.Context, handle, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	UpdateRefreshToken(ctx context.Context, id int64, expected, next *string, expiresAt *time.Time) (bool, error)
	ClearRefreshToken(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenCodec interface {
	Issue(kind jwt.Kind, claims jwt.Claims) (string, error)
	Verify(kind jwt.Kind, token string) (*jwt.Claims, error)
	TTL(kind jwt.Kind) time.Duration
}

// LoginLimiter throttles repeated failed logins per identifier.
type LoginLimiter interface {
	Check(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}
