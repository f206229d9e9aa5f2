package account

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"streamhub/internal/domain"
	"streamhub/internal/media"
	"streamhub/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockAccountStore struct {
	mock.Mock
}

func (m *mockAccountStore) Create(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	if args.Error(0) == nil {
		a.ID = 1
	}
	return args.Error(0)
}

func (m *mockAccountStore) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountStore) ExistsByHandle(ctx context.Context, handle string) (bool, error) {
	args := m.Called(ctx, handle)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountStore) UpdateProfile(ctx context.Context, id int64, displayName, email string) (*domain.Account, error) {
	args := m.Called(ctx, id, displayName, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountStore) UpdateAvatar(ctx context.Context, id int64, url string) error {
	return m.Called(ctx, id, url).Error(0)
}

func (m *mockAccountStore) UpdateCoverImage(ctx context.Context, id int64, url string) error {
	return m.Called(ctx, id, url).Error(0)
}

// fakeUploader hands out predictable keys and remembers deletions.
type fakeUploader struct {
	failFolder string
	uploaded   []string
	deleted    []string
}

func (f *fakeUploader) Upload(_ context.Context, folder string, fh *multipart.FileHeader) (*media.Object, error) {
	if folder == f.failFolder {
		return nil, media.ErrInvalidMimeType
	}
	key := folder + "/" + fh.Filename
	f.uploaded = append(f.uploaded, key)
	return &media.Object{Key: key, URL: "/static/" + key, ContentType: "image/png", Size: fh.Size}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func file(name string) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: 10}
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Handle:      "  Alice ",
		Email:       "Alice@X.com",
		DisplayName: " Alice A ",
		Password:    "secret1",
	}
}

func newTestService(store *mockAccountStore, up *fakeUploader) *Service {
	return NewService(store, password.New(bcrypt.MinCost), up)
}

func TestService_Register_Success(t *testing.T) {
	store := new(mockAccountStore)
	up := &fakeUploader{}
	store.On("ExistsByHandle", mock.Anything, "alice").Return(false, nil)
	store.On("ExistsByEmail", mock.Anything, "alice@x.com").Return(false, nil)
	store.On("Create", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)

	svc := newTestService(store, up)
	account, err := svc.Register(context.Background(), validRegister(), file("a.png"), file("c.png"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), account.ID)
	assert.Equal(t, "alice", account.Handle)
	assert.Equal(t, "alice@x.com", account.Email)
	assert.Equal(t, "Alice A", account.DisplayName)
	assert.Equal(t, "/static/avatars/a.png", account.AvatarURL)
	assert.Equal(t, "/static/covers/c.png", account.CoverImageURL)
	assert.Empty(t, up.deleted)

	created := store.Calls[2].Arguments.Get(1).(*domain.Account)
	assert.True(t, password.New(bcrypt.MinCost).Verify("secret1", created.PasswordHash))
	assert.Nil(t, created.RefreshToken)
	store.AssertExpectations(t)
}

func TestService_Register_CoverOptional(t *testing.T) {
	store := new(mockAccountStore)
	store.On("ExistsByHandle", mock.Anything, "alice").Return(false, nil)
	store.On("ExistsByEmail", mock.Anything, "alice@x.com").Return(false, nil)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	account, err := newTestService(store, &fakeUploader{}).Register(context.Background(), validRegister(), file("a.png"), nil)
	require.NoError(t, err)
	assert.Empty(t, account.CoverImageURL)
}

func TestService_Register_Validation(t *testing.T) {
	cases := map[string]func(r *RegisterRequest){
		"blank handle":   func(r *RegisterRequest) { r.Handle = "   " },
		"blank email":    func(r *RegisterRequest) { r.Email = "" },
		"bad email":      func(r *RegisterRequest) { r.Email = "not-an-email" },
		"blank name":     func(r *RegisterRequest) { r.DisplayName = " " },
		"blank password": func(r *RegisterRequest) { r.Password = "   " },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := new(mockAccountStore)
			req := validRegister()
			mutate(&req)

			_, err := newTestService(store, &fakeUploader{}).Register(context.Background(), req, file("a.png"), nil)
			assert.ErrorIs(t, err, domain.ErrValidation)
			store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Register_AvatarRequired(t *testing.T) {
	store := new(mockAccountStore)
	_, err := newTestService(store, &fakeUploader{}).Register(context.Background(), validRegister(), nil, nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, errAvatarRequired)
}

func TestService_Register_HandleTaken(t *testing.T) {
	store := new(mockAccountStore)
	up := &fakeUploader{}
	store.On("ExistsByHandle", mock.Anything, "alice").Return(true, nil)

	_, err := newTestService(store, up).Register(context.Background(), validRegister(), file("a.png"), nil)

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, errHandleTaken)
	assert.Empty(t, up.uploaded)
}

func TestService_Register_EmailTaken(t *testing.T) {
	store := new(mockAccountStore)
	store.On("ExistsByHandle", mock.Anything, "alice").Return(false, nil)
	store.On("ExistsByEmail", mock.Anything, "alice@x.com").Return(true, nil)

	_, err := newTestService(store, &fakeUploader{}).Register(context.Background(), validRegister(), file("a.png"), nil)

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, errEmailTaken)
}

func TestService_Register_CreateFailureRemovesUploads(t *testing.T) {
	store := new(mockAccountStore)
	up := &fakeUploader{}
	store.On("ExistsByHandle", mock.Anything, "alice").Return(false, nil)
	store.On("ExistsByEmail", mock.Anything, "alice@x.com").Return(false, nil)
	// lost a race against another registration with the same handle
	store.On("Create", mock.Anything, mock.Anything).Return(errors.Join(domain.ErrConflict, errors.New("handle")))

	_, err := newTestService(store, up).Register(context.Background(), validRegister(), file("a.png"), file("c.png"))

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, []string{"avatars/a.png", "covers/c.png"}, up.deleted)
}

func TestService_Register_CoverUploadFailureRemovesAvatar(t *testing.T) {
	store := new(mockAccountStore)
	up := &fakeUploader{failFolder: coverFolder}
	store.On("ExistsByHandle", mock.Anything, "alice").Return(false, nil)
	store.On("ExistsByEmail", mock.Anything, "alice@x.com").Return(false, nil)

	_, err := newTestService(store, up).Register(context.Background(), validRegister(), file("a.png"), file("c.txt"))

	assert.ErrorIs(t, err, media.ErrInvalidMimeType)
	assert.Equal(t, []string{"avatars/a.png"}, up.deleted)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Current(t *testing.T) {
	store := new(mockAccountStore)
	store.On("FindByID", mock.Anything, int64(1)).Return(&domain.Account{ID: 1, Handle: "alice", PasswordHash: "h"}, nil)
	store.On("FindByID", mock.Anything, int64(2)).Return(nil, domain.ErrNotFound)

	svc := newTestService(store, &fakeUploader{})

	account, err := svc.Current(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Handle)

	_, err = svc.Current(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateProfile(t *testing.T) {
	store := new(mockAccountStore)
	store.On("FindByID", mock.Anything, int64(1)).Return(&domain.Account{ID: 1, Email: "alice@x.com"}, nil)
	store.On("ExistsByEmail", mock.Anything, "new@x.com").Return(false, nil)
	store.On("UpdateProfile", mock.Anything, int64(1), "Alice B", "new@x.com").
		Return(&domain.Account{ID: 1, Email: "new@x.com", DisplayName: "Alice B"}, nil)

	account, err := newTestService(store, &fakeUploader{}).UpdateProfile(context.Background(), 1,
		UpdateProfileRequest{DisplayName: " Alice B ", Email: " NEW@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", account.Email)
	assert.Equal(t, "Alice B", account.DisplayName)
}

func TestService_UpdateProfile_SameEmailSkipsConflictCheck(t *testing.T) {
	store := new(mockAccountStore)
	store.On("FindByID", mock.Anything, int64(1)).Return(&domain.Account{ID: 1, Email: "alice@x.com"}, nil)
	store.On("UpdateProfile", mock.Anything, int64(1), "", "alice@x.com").Return(&domain.Account{ID: 1, Email: "alice@x.com"}, nil)

	_, err := newTestService(store, &fakeUploader{}).UpdateProfile(context.Background(), 1, UpdateProfileRequest{Email: "alice@x.com"})
	require.NoError(t, err)
	store.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
}

func TestService_UpdateProfile_Errors(t *testing.T) {
	store := new(mockAccountStore)
	store.On("FindByID", mock.Anything, int64(1)).Return(&domain.Account{ID: 1, Email: "alice@x.com"}, nil)
	store.On("ExistsByEmail", mock.Anything, "bob@x.com").Return(true, nil)
	svc := newTestService(store, &fakeUploader{})

	_, err := svc.UpdateProfile(context.Background(), 1, UpdateProfileRequest{})
	assert.ErrorIs(t, err, errNothingToUpdate)

	_, err = svc.UpdateProfile(context.Background(), 1, UpdateProfileRequest{Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateProfile(context.Background(), 1, UpdateProfileRequest{Email: "bob@x.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	store.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_UpdateAvatar(t *testing.T) {
	store := new(mockAccountStore)
	store.On("UpdateAvatar", mock.Anything, int64(1), "/static/avatars/new.png").Return(nil)
	store.On("FindByID", mock.Anything, int64(1)).Return(&domain.Account{ID: 1, AvatarURL: "/static/avatars/new.png"}, nil)

	account, err := newTestService(store, &fakeUploader{}).UpdateAvatar(context.Background(), 1, file("new.png"))
	require.NoError(t, err)
	assert.Equal(t, "/static/avatars/new.png", account.AvatarURL)
}

func TestService_UpdateCoverImage_StoreFailureRemovesUpload(t *testing.T) {
	store := new(mockAccountStore)
	up := &fakeUploader{}
	store.On("UpdateCoverImage", mock.Anything, int64(9), "/static/covers/c.png").Return(domain.ErrNotFound)

	_, err := newTestService(store, up).UpdateCoverImage(context.Background(), 9, file("c.png"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{"covers/c.png"}, up.deleted)
}

func TestService_UpdateImage_FileRequired(t *testing.T) {
	svc := newTestService(new(mockAccountStore), &fakeUploader{})

	_, err := svc.UpdateAvatar(context.Background(), 1, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateCoverImage(context.Background(), 1, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
