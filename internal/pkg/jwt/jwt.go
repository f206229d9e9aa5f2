package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens. It is signed into
// every token and checked on verification.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrExpired      = errors.New("token expired")
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrKindMismatch = errors.New("token kind mismatch")
	ErrUnknownKind  = errors.New("unknown token kind")
)

// Key is the signing secret and lifetime for one token kind.
type Key struct {
	Secret string
	TTL    time.Duration
}

type Service struct {
	keys map[Kind]Key
	now  func() time.Time
}

// Claims carries the identity fields. Refresh tokens only populate
// AccountID; the profile fields are access-only.
type Claims struct {
	AccountID   int64  `json:"-"`
	Email       string `json:"email,omitempty"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Kind        Kind   `json:"kind"`
	jwtlib.RegisteredClaims
}

func New(access, refresh Key) *Service {
	return &Service{
		keys: map[Kind]Key{
			KindAccess:  access,
			KindRefresh: refresh,
		},
		now: time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TTL returns the configured lifetime for kind.
func (s *Service) TTL(kind Kind) time.Duration {
	return s.keys[kind].TTL
}

// Issue signs claims as a token of the given kind. Only AccountID is taken
// from claims for refresh tokens.
func (s *Service) Issue(kind Kind, claims Claims) (string, error) {
	key, ok := s.keys[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	now := s.now()

	out := Claims{
		Kind: kind,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatInt(claims.AccountID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(key.TTL)),
		},
	}
	switch kind {
	case KindAccess:
		out.Email = claims.Email
		out.Handle = claims.Handle
		out.DisplayName = claims.DisplayName
	case KindRefresh:
		// Two refresh tokens minted in the same second must still differ.
		out.ID = uuid.NewString()
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, out)
	return token.SignedString([]byte(key.Secret))
}

// Verify parses tokenStr with the secret of kind and returns its claims.
func (s *Service) Verify(kind Kind, tokenStr string) (*Claims, error) {
	key, ok := s.keys[kind]
	if !ok {
		return nil, ErrUnknownKind
	}

	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (any, error) {
		return []byte(key.Secret), nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(0),
	)
	if err != nil {
		return nil, classify(err)
	}

	if claims.Kind != kind {
		return nil, ErrKindMismatch
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: subject %q", ErrMalformed, claims.Subject)
	}
	claims.AccountID = id

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
