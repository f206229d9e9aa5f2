package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"streamhub/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// AccountRepository is the gorm-backed credential store.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type accountModel struct {
	ID                    int64      `gorm:"column:id;primaryKey"`
	Handle                string     `gorm:"column:handle"`
	Email                 string     `gorm:"column:email"`
	DisplayName           string     `gorm:"column:display_name"`
	PasswordHash          string     `gorm:"column:password_hash"`
	AvatarURL             string     `gorm:"column:avatar_url"`
	CoverImageURL         string     `gorm:"column:cover_image_url"`
	RefreshToken          *string    `gorm:"column:refresh_token"`
	RefreshTokenExpiresAt *time.Time `gorm:"column:refresh_token_expires_at"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "accounts" }

func toDomainAccount(m accountModel) *domain.Account {
	return &domain.Account{
		ID:                    m.ID,
		Handle:                m.Handle,
		Email:                 m.Email,
		DisplayName:           m.DisplayName,
		PasswordHash:          m.PasswordHash,
		AvatarURL:             m.AvatarURL,
		CoverImageURL:         m.CoverImageURL,
		RefreshToken:          m.RefreshToken,
		RefreshTokenExpiresAt: m.RefreshTokenExpiresAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func toAccountModel(a *domain.Account) accountModel {
	return accountModel{
		ID:                    a.ID,
		Handle:                domain.NormalizeIdentifier(a.Handle),
		Email:                 domain.NormalizeIdentifier(a.Email),
		DisplayName:           strings.TrimSpace(a.DisplayName),
		PasswordHash:          a.PasswordHash,
		AvatarURL:             a.AvatarURL,
		CoverImageURL:         a.CoverImageURL,
		RefreshToken:          a.RefreshToken,
		RefreshTokenExpiresAt: a.RefreshTokenExpiresAt,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	m := toAccountModel(a)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*a = *toDomainAccount(m)
	return nil
}

// FindByHandleOrEmail returns the first account whose handle or email
// matches. Empty arguments are ignored.
func (r *AccountRepository) FindByHandleOrEmail(ctx context.Context, handle, email string) (*domain.Account, error) {
	handle = domain.NormalizeIdentifier(handle)
	email = domain.NormalizeIdentifier(email)

	q := r.db.WithContext(ctx)
	switch {
	case handle != "" && email != "":
		q = q.Where("handle = ? OR email = ?", handle, email)
	case handle != "":
		q = q.Where("handle = ?", handle)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return nil, domain.ErrNotFound
	}

	var m accountModel
	if err := q.Order("id ASC").First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainAccount(m), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	var m accountModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainAccount(m), nil
}

func (r *AccountRepository) ExistsByHandle(ctx context.Context, handle string) (bool, error) {
	return r.exists(ctx, "handle = ?", domain.NormalizeIdentifier(handle))
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", domain.NormalizeIdentifier(email))
}

func (r *AccountRepository) exists(ctx context.Context, cond string, arg any) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&accountModel{}).Where(cond, arg).Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

// UpdateRefreshToken replaces the stored refresh token only while it still
// equals expected (nil meaning "no live token"). It reports whether the swap
// happened; false means a concurrent writer got there first.
func (r *AccountRepository) UpdateRefreshToken(ctx context.Context, id int64, expected, next *string, expiresAt *time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&accountModel{}).Where("id = ?", id)
	if expected == nil {
		q = q.Where("refresh_token IS NULL")
	} else {
		q = q.Where("refresh_token = ?", *expected)
	}

	updates := map[string]any{
		"refresh_token":            nil,
		"refresh_token_expires_at": nil,
		"updated_at":               time.Now().UTC(),
	}
	if next != nil {
		updates["refresh_token"] = *next
		if expiresAt != nil {
			updates["refresh_token_expires_at"] = expiresAt.UTC()
		}
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ClearRefreshToken drops whatever refresh token is stored for id.
func (r *AccountRepository) ClearRefreshToken(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&accountModel{}).Where("id = ?", id).Updates(map[string]any{
		"refresh_token":            nil,
		"refresh_token_expires_at": nil,
		"updated_at":               time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.updateColumns(ctx, id, map[string]any{"password_hash": hash})
}

func (r *AccountRepository) UpdateAvatar(ctx context.Context, id int64, url string) error {
	return r.updateColumns(ctx, id, map[string]any{"avatar_url": url})
}

func (r *AccountRepository) UpdateCoverImage(ctx context.Context, id int64, url string) error {
	return r.updateColumns(ctx, id, map[string]any{"cover_image_url": url})
}

// UpdateProfile changes display name and/or email; empty values are kept.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id int64, displayName, email string) (*domain.Account, error) {
	updates := map[string]any{}
	if v := strings.TrimSpace(displayName); v != "" {
		updates["display_name"] = v
	}
	if v := domain.NormalizeIdentifier(email); v != "" {
		updates["email"] = v
	}
	if len(updates) > 0 {
		if err := r.updateColumns(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// ClearExpiredRefreshTokens nulls refresh tokens whose expiry is before now.
func (r *AccountRepository) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&accountModel{}).
		Where("refresh_token IS NOT NULL AND refresh_token_expires_at < ?", now.UTC()).
		Updates(map[string]any{
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
		})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *AccountRepository) updateColumns(ctx context.Context, id int64, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&accountModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the domain taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrConflict, uniqueField(pgErr.ConstraintName))
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", domain.ErrConflict, uniqueField(err.Error()))
	}

	return fmt.Errorf("%w: %v", domain.ErrServerFault, err)
}

func uniqueField(detail string) string {
	switch {
	case strings.Contains(detail, "handle"):
		return "handle"
	case strings.Contains(detail, "email"):
		return "email"
	default:
		return "duplicate value"
	}
}
