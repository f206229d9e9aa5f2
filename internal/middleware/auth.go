package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"streamhub/internal/domain"
	"streamhub/internal/pkg/jwt"
	"streamhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "accessToken"

	ctxAccountKey   = "account"
	ctxAccountIDKey = "account_id"
)

// AccountReader resolves an account id from token claims.
type AccountReader interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
}

type AccessVerifier interface {
	Verify(kind jwt.Kind, token string) (*jwt.Claims, error)
}

// Authenticator turns an access token into an account identity. It never
// writes and never looks at the stored refresh token.
type Authenticator struct {
	tokens   AccessVerifier
	accounts AccountReader
}

func NewAuthenticator(tokens AccessVerifier, accounts AccountReader) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts}
}

// Authenticate verifies the token taken from cookieToken, or from the
// Authorization header when the cookie is empty.
func (a *Authenticator) Authenticate(ctx context.Context, cookieToken, authorization string) (*domain.AccountPublic, error) {
	token := strings.TrimSpace(cookieToken)
	if token == "" {
		token = bearerToken(authorization)
	}
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims, err := a.tokens.Verify(jwt.KindAccess, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	account, err := a.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	return account.Public(), nil
}

// RequireAuth rejects the request unless it carries a valid access token and
// stores the resolved account on the context.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(AccessTokenCookie)

		account, err := a.Authenticate(c.Request.Context(), cookie, c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidToken) {
				log.Printf("auth_rejected path=%s client_ip=%s reason=%q", c.Request.URL.Path, c.ClientIP(), err)
			}
			response.FromError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxAccountKey, account)
		c.Set(ctxAccountIDKey, account.ID)
		c.Next()
	}
}

// CurrentAccount returns the account stored by RequireAuth, if any.
func CurrentAccount(c *gin.Context) (*domain.AccountPublic, bool) {
	v, ok := c.Get(ctxAccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*domain.AccountPublic)
	return account, ok && account != nil
}

func AccountID(c *gin.Context) int64 {
	return c.GetInt64(ctxAccountIDKey)
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
