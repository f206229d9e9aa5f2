package account

import (
	"context"
	"mime/multipart"

	"streamhub/internal/domain"
	"streamhub/internal/media"
)

type AccountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	ExistsByHandle(ctx context.Context, handle string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, displayName, email string) (*domain.Account, error)
	UpdateAvatar(ctx context.Context, id int64, url string) error
	UpdateCoverImage(ctx context.Context, id int64, url string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// MediaUploader stores profile images and can undo a store.
type MediaUploader interface {
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (*media.Object, error)
	Delete(ctx context.Context, key string) error
}
