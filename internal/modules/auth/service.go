package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"streamhub/internal/domain"
	"streamhub/internal/pkg/jwt"
	"streamhub/internal/ratelimit"
)

// Service owns the session lifecycle. It is the only writer of the stored
// refresh token.
type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenCodec
	limiter  LoginLimiter

	revokeOnPasswordChange bool
	now                    func() time.Time
}

func NewService(
	accounts AccountStore,
	hasher PasswordHasher,
	tokens TokenCodec,
	limiter LoginLimiter,
	revokeOnPasswordChange bool,
) *Service {
	return &Service{
		accounts:               accounts,
		hasher:                 hasher,
		tokens:                 tokens,
		limiter:                limiter,
		revokeOnPasswordChange: revokeOnPasswordChange,
		now:                    time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	handle, email := strings.TrimSpace(req.Handle), strings.TrimSpace(req.Email)
	if v := strings.TrimSpace(req.HandleOrEmail); v != "" {
		handle, email = v, v
	}
	if handle == "" && email == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, errMissingIdentifier)
	}
	throttleKey := domain.NormalizeIdentifier(handle)
	if throttleKey == "" {
		throttleKey = domain.NormalizeIdentifier(email)
	}

	if err := s.checkThrottle(ctx, throttleKey); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByHandleOrEmail(ctx, handle, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.recordFailure(ctx, throttleKey)
		}
		return nil, err
	}

	if !s.hasher.Verify(req.Password, account.PasswordHash) {
		s.recordFailure(ctx, throttleKey)
		return nil, domain.ErrBadCredentials
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, err
	}

	ok, err := s.accounts.UpdateRefreshToken(ctx, account.ID, account.RefreshToken, &pair.RefreshToken, &pair.RefreshExpiresAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: session changed concurrently, retry login", domain.ErrConflict)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, throttleKey); err != nil {
			log.Printf("login_throttle_reset_failed account_id=%d error=%q", account.ID, err)
		}
	}

	return &LoginResult{TokenPair: *pair, Account: account.Public()}, nil
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// must equal the stored one; after a successful call it never will again.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := s.tokens.Verify(jwt.KindRefresh, refreshToken)
	if err != nil {
		log.Printf("refresh_rejected reason=%q", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if !sameToken(account.RefreshToken, refreshToken) {
		log.Printf("refresh_reuse_detected account_id=%d", account.ID)
		return nil, domain.ErrTokenReused
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, err
	}

	ok, err := s.accounts.UpdateRefreshToken(ctx, account.ID, &refreshToken, &pair.RefreshToken, &pair.RefreshExpiresAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone rotated this token between our read and write.
		log.Printf("refresh_reuse_detected account_id=%d race=true", account.ID)
		return nil, domain.ErrTokenReused
	}

	return pair, nil
}

// Logout forgets the live refresh token. Outstanding access tokens stay
// valid until they expire.
func (s *Service) Logout(ctx context.Context, accountID int64) error {
	return s.accounts.ClearRefreshToken(ctx, accountID)
}

func (s *Service) ChangePassword(ctx context.Context, accountID int64, req ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return fmt.Errorf("%w: oldPassword, newPassword and confirmPassword are required", domain.ErrValidation)
	}
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("%w: %w", domain.ErrValidation, errPasswordMismatch)
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(req.OldPassword, account.PasswordHash) {
		return domain.ErrBadCredentials
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", domain.ErrServerFault, err)
	}
	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return err
	}

	if s.revokeOnPasswordChange {
		if err := s.accounts.ClearRefreshToken(ctx, accountID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) issuePair(account *domain.Account) (*TokenPair, error) {
	now := s.now()

	access, err := s.tokens.Issue(jwt.KindAccess, jwt.Claims{
		AccountID:   account.ID,
		Email:       account.Email,
		Handle:      account.Handle,
		DisplayName: account.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: issue access token: %v", domain.ErrServerFault, err)
	}

	refresh, err := s.tokens.Issue(jwt.KindRefresh, jwt.Claims{AccountID: account.ID})
	if err != nil {
		return nil, fmt.Errorf("%w: issue refresh token: %v", domain.ErrServerFault, err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.tokens.TTL(jwt.KindAccess)),
		RefreshExpiresAt: now.Add(s.tokens.TTL(jwt.KindRefresh)),
	}, nil
}

func (s *Service) checkThrottle(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Check(ctx, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrRateLimited):
		return domain.ErrTooManyAttempts
	default:
		// Fail open when the throttle backend is unreachable.
		log.Printf("login_throttle_unavailable error=%q", err)
		return nil
	}
}

func (s *Service) recordFailure(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		log.Printf("login_throttle_record_failed error=%q", err)
	}
}

func sameToken(stored *string, presented string) bool {
	if stored == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
