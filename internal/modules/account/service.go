package account

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"streamhub/internal/domain"
	"streamhub/internal/pkg/validator"
)

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	media    MediaUploader
}

func NewService(accounts AccountStore, hasher PasswordHasher, media MediaUploader) *Service {
	return &Service{accounts: accounts, hasher: hasher, media: media}
}

// Register creates an account with a required avatar and an optional cover
// image. Uploaded files are removed again if the account cannot be stored.
func (s *Service) Register(ctx context.Context, req RegisterRequest, avatar, cover *multipart.FileHeader) (*domain.AccountPublic, error) {
	req.Handle = domain.NormalizeIdentifier(req.Handle)
	req.Email = domain.NormalizeIdentifier(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if strings.TrimSpace(req.Password) == "" {
		req.Password = ""
	}

	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if avatar == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, errAvatarRequired)
	}

	if taken, err := s.accounts.ExistsByHandle(ctx, req.Handle); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: %w", domain.ErrConflict, errHandleTaken)
	}
	if taken, err := s.accounts.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: %w", domain.ErrConflict, errEmailTaken)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", domain.ErrServerFault, err)
	}

	avatarObj, err := s.media.Upload(ctx, avatarFolder, avatar)
	if err != nil {
		return nil, err
	}
	uploaded := []string{avatarObj.Key}

	account := &domain.Account{
		Handle:       req.Handle,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		AvatarURL:    avatarObj.URL,
	}

	if cover != nil {
		coverObj, err := s.media.Upload(ctx, coverFolder, cover)
		if err != nil {
			s.discard(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, coverObj.Key)
		account.CoverImageURL = coverObj.URL
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		s.discard(ctx, uploaded)
		return nil, err
	}

	log.Printf("account_registered account_id=%d handle=%s", account.ID, account.Handle)
	return account.Public(), nil
}

func (s *Service) Current(ctx context.Context, accountID int64) (*domain.AccountPublic, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

func (s *Service) UpdateProfile(ctx context.Context, accountID int64, req UpdateProfileRequest) (*domain.AccountPublic, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Email = domain.NormalizeIdentifier(req.Email)
	if req.DisplayName == "" && req.Email == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, errNothingToUpdate)
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	if req.Email != "" {
		current, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if current.Email != req.Email {
			taken, err := s.accounts.ExistsByEmail(ctx, req.Email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, fmt.Errorf("%w: %w", domain.ErrConflict, errEmailTaken)
			}
		}
	}

	account, err := s.accounts.UpdateProfile(ctx, accountID, req.DisplayName, req.Email)
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

func (s *Service) UpdateAvatar(ctx context.Context, accountID int64, fh *multipart.FileHeader) (*domain.AccountPublic, error) {
	return s.replaceImage(ctx, accountID, avatarFolder, fh, s.accounts.UpdateAvatar)
}

func (s *Service) UpdateCoverImage(ctx context.Context, accountID int64, fh *multipart.FileHeader) (*domain.AccountPublic, error) {
	return s.replaceImage(ctx, accountID, coverFolder, fh, s.accounts.UpdateCoverImage)
}

func (s *Service) replaceImage(
	ctx context.Context,
	accountID int64,
	folder string,
	fh *multipart.FileHeader,
	save func(ctx context.Context, id int64, url string) error,
) (*domain.AccountPublic, error) {
	if fh == nil {
		return nil, fmt.Errorf("%w: %s file is required", domain.ErrValidation, strings.TrimSuffix(folder, "s"))
	}

	obj, err := s.media.Upload(ctx, folder, fh)
	if err != nil {
		return nil, err
	}

	if err := save(ctx, accountID, obj.URL); err != nil {
		s.discard(ctx, []string{obj.Key})
		return nil, err
	}

	return s.Current(ctx, accountID)
}

func (s *Service) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.media.Delete(ctx, key); err != nil {
			log.Printf("media_cleanup_failed key=%s error=%q", key, err)
		}
	}
}
