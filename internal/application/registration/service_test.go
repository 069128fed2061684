package registration

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/GioMjds/savoury-api/internal/domain"
	"github.com/GioMjds/savoury-api/internal/infrastructure/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendOTPEmail(to, code string) error {
	return m.Called(to, code).Error(0)
}

type mockImageStore struct{ mock.Mock }

func (m *mockImageStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}

// --- builder ---

func newService(us *mockUserStore, l *memstore.Ledger, ml *mockMailer, is *mockImageStore, avatarPath string) Service {
	return NewService(ServiceDeps{
		UserRepo:       us,
		Ledger:         l,
		Mailer:         ml,
		ImageStore:     is,
		OTPTTL:         5 * time.Minute,
		BcryptCost:     bcrypt.MinCost,
		PasswordPolicy: "lowerUpperDigitSpecial",
		EmailPolicy:    "rfcLike",
		AvatarPath:     avatarPath,
	})
}

func startReq() domain.StartRegistrationRequest {
	return domain.StartRegistrationRequest{
		FirstName:       "Alice",
		LastName:        "Smith",
		Email:           "a@b.com",
		Username:        "alice",
		Password:        "Str0ng!Pass",
		ConfirmPassword: "Str0ng!Pass",
	}
}

// writeAvatarFixture creates a stand-in default avatar on disk.
func writeAvatarFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "default_avatar.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpegbytes"), 0o644))
	return path
}

var fiveDigits = regexp.MustCompile(`^\d{5}$`)

var errBoom = errors.New("boom")

// --- Start ---

func TestStart_Success_MailsFiveDigitCodeAndArmsLedger(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	ml := &mockMailer{}
	ml.On("SendOTPEmail", "a@b.com", mock.MatchedBy(func(code string) bool {
		if !fiveDigits.MatchString(code) {
			return false
		}
		n, _ := strconv.Atoi(code)
		return n >= 10000 && n <= 99999
	})).Return(nil)
	ledger := memstore.NewLedger()

	svc := newService(us, ledger, ml, nil, "")
	require.NoError(t, svc.Start(context.Background(), startReq()))

	ml.AssertExpectations(t)
	pending, ok := ledger.Get("a@b.com")
	require.True(t, ok)
	assert.Equal(t, "alice", pending.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(pending.PasswordHash), []byte("Str0ng!Pass")))
}

func TestStart_UsernameTaken_CheckedBeforeEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u1"}, nil)
	ml := &mockMailer{}

	svc := newService(us, memstore.NewLedger(), ml, nil, "")
	err := svc.Start(context.Background(), startReq())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "username already taken")
	us.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	ml.AssertNotCalled(t, "SendOTPEmail", mock.Anything, mock.Anything)
}

func TestStart_EmailTaken_FailsBeforeAnyCodeIsMailed(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "u1"}, nil)
	ml := &mockMailer{}
	ledger := memstore.NewLedger()

	svc := newService(us, ledger, ml, nil, "")
	err := svc.Start(context.Background(), startReq())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	ml.AssertNotCalled(t, "SendOTPEmail", mock.Anything, mock.Anything)
	_, ok := ledger.Get("a@b.com")
	assert.False(t, ok)
}

func TestStart_PasswordMismatch_BadRequest(t *testing.T) {
	req := startReq()
	req.ConfirmPassword = "Different1!"

	svc := newService(&mockUserStore{}, memstore.NewLedger(), &mockMailer{}, nil, "")
	err := svc.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestStart_MissingFields_BadRequest(t *testing.T) {
	req := startReq()
	req.FirstName = ""

	svc := newService(&mockUserStore{}, memstore.NewLedger(), &mockMailer{}, nil, "")
	err := svc.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestStart_WeakPassword_RejectedByPolicy(t *testing.T) {
	req := startReq()
	req.Password = "alllowercase1"
	req.ConfirmPassword = "alllowercase1"

	svc := newService(&mockUserStore{}, memstore.NewLedger(), &mockMailer{}, nil, "")
	err := svc.Start(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestStart_MailFailure_IsFatal(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	ml := &mockMailer{}
	ml.On("SendOTPEmail", "a@b.com", mock.Anything).Return(errBoom)

	svc := newService(us, memstore.NewLedger(), ml, nil, "")
	err := svc.Start(context.Background(), startReq())
	assert.ErrorIs(t, err, domain.ErrDependency)
}

// --- Resend ---

func TestResend_NoPendingRegistration_NotFound(t *testing.T) {
	svc := newService(&mockUserStore{}, memstore.NewLedger(), &mockMailer{}, nil, "")
	err := svc.Resend(context.Background(), domain.ResendOTPRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResend_IssuesFreshCode_ReusesStoredHash(t *testing.T) {
	ledger := memstore.NewLedger()
	ledger.Put(domain.PendingRegistration{
		Email:        "a@b.com",
		FirstName:    "Alice",
		LastName:     "Smith",
		Username:     "alice",
		PasswordHash: "stored-hash",
		Code:         "11111",
	}, 5*time.Minute)

	ml := &mockMailer{}
	var resent string
	ml.On("SendOTPEmail", "a@b.com", mock.MatchedBy(func(code string) bool {
		resent = code
		return fiveDigits.MatchString(code)
	})).Return(nil)

	svc := newService(&mockUserStore{}, ledger, ml, nil, "")
	newName := "Alicia"
	require.NoError(t, svc.Resend(context.Background(), domain.ResendOTPRequest{
		Email:     "a@b.com",
		FirstName: &newName,
	}))

	pending, ok := ledger.Get("a@b.com")
	require.True(t, ok)
	assert.Equal(t, "stored-hash", pending.PasswordHash)
	assert.Equal(t, "Alicia", pending.FirstName)
	assert.Equal(t, "Smith", pending.LastName)
	assert.Equal(t, resent, pending.Code)

	// The first code is revoked by the overwrite.
	_, err := ledger.Validate("a@b.com", "11111")
	assert.ErrorIs(t, err, memstore.ErrOTPMismatch)
}

func TestResend_TakenReplacementUsername_Conflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "bob").Return(&domain.User{UserID: "u2", Username: "bob"}, nil)

	ledger := memstore.NewLedger()
	ledger.Put(domain.PendingRegistration{
		Email: "a@b.com", FirstName: "Alice", LastName: "Smith",
		Username: "alice", PasswordHash: "h", Code: "11111",
	}, 5*time.Minute)

	ml := &mockMailer{}
	svc := newService(us, ledger, ml, nil, "")
	taken := "bob"
	err := svc.Resend(context.Background(), domain.ResendOTPRequest{Email: "a@b.com", Username: &taken})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	ml.AssertNotCalled(t, "SendOTPEmail", mock.Anything, mock.Anything)

	// The pending candidate is untouched: original username, original code.
	pending, ok := ledger.Get("a@b.com")
	require.True(t, ok)
	assert.Equal(t, "alice", pending.Username)
	assert.Equal(t, "11111", pending.Code)
}

// --- Complete ---

func TestComplete_PromotesPendingIntoUser_ThenDeletesEntry(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	var created *domain.User
	us.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.User)
	}).Return(nil)

	ml := &mockMailer{}
	var code string
	ml.On("SendOTPEmail", "a@b.com", mock.MatchedBy(func(c string) bool {
		code = c
		return true
	})).Return(nil)

	is := &mockImageStore{}
	is.On("Upload", mock.Anything, "profiles/user_a_b_com.jpg", mock.Anything, "image/jpeg").
		Return("s3://savoury-profiles/profiles/user_a_b_com.jpg", nil)

	ledger := memstore.NewLedger()
	svc := newService(us, ledger, ml, is, writeAvatarFixture(t))
	require.NoError(t, svc.Start(context.Background(), startReq()))

	u, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: code})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "Alice Smith", u.Fullname)
	assert.Equal(t, "s3://savoury-profiles/profiles/user_a_b_com.jpg", u.ProfileImage)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.UserID)

	// Entry deleted by promotion: the same code cannot be replayed.
	_, err = svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: code})
	assert.ErrorIs(t, err, memstore.ErrOTPNotFound)
}

func TestComplete_UsernameTakenSinceStart_ConflictWithoutWrite(t *testing.T) {
	us := &mockUserStore{}
	// Another registration claimed the username between start and complete.
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u2", Username: "alice"}, nil)

	ledger := memstore.NewLedger()
	ledger.Put(domain.PendingRegistration{
		Email: "a@b.com", FirstName: "Alice", LastName: "Smith",
		Username: "alice", PasswordHash: "h", Code: "12345",
	}, 5*time.Minute)

	svc := newService(us, ledger, &mockMailer{}, nil, "")
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: "12345"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// The entry survives so the caller can resend under a different username.
	_, err = ledger.Validate("a@b.com", "12345")
	assert.NoError(t, err)
}

func TestComplete_EmailTakenSinceStart_ConflictWithoutWrite(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "u2", Email: "a@b.com"}, nil)

	ledger := memstore.NewLedger()
	ledger.Put(domain.PendingRegistration{
		Email: "a@b.com", FirstName: "Alice", LastName: "Smith",
		Username: "alice", PasswordHash: "h", Code: "12345",
	}, 5*time.Minute)

	svc := newService(us, ledger, &mockMailer{}, nil, "")
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: "12345"})

	assert.ErrorIs(t, err, domain.ErrConflict)
	us.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestComplete_ResentUsername_ReCheckedBeforeWrite(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	us.On("GetByUsername", mock.Anything, "bob").Return(nil, domain.ErrNotFound)
	var created *domain.User
	us.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.User)
	}).Return(nil)

	ml := &mockMailer{}
	var code string
	ml.On("SendOTPEmail", "a@b.com", mock.MatchedBy(func(c string) bool {
		code = c
		return true
	})).Return(nil)

	ledger := memstore.NewLedger()
	svc := newService(us, ledger, ml, nil, "")
	require.NoError(t, svc.Start(context.Background(), startReq()))

	rename := "bob"
	require.NoError(t, svc.Resend(context.Background(), domain.ResendOTPRequest{Email: "a@b.com", Username: &rename}))

	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: code})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "bob", created.Username)
	// The replacement username went through the existence check.
	us.AssertCalled(t, "GetByUsername", mock.Anything, "bob")
}

func TestComplete_WrongCode_Mismatch(t *testing.T) {
	ledger := memstore.NewLedger()
	ledger.Put(domain.PendingRegistration{Email: "a@b.com", Code: "12345"}, 5*time.Minute)

	svc := newService(&mockUserStore{}, ledger, &mockMailer{}, nil, "")
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: "54321"})
	assert.ErrorIs(t, err, memstore.ErrOTPMismatch)
}

func TestComplete_StoreFailure_KeepsLedgerEntryForRetry(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.Anything).Return(errBoom)

	ledger := memstore.NewLedger()
	ledger.Put(domain.PendingRegistration{
		Email: "a@b.com", FirstName: "Alice", LastName: "Smith",
		Username: "alice", PasswordHash: "h", Code: "12345",
	}, 5*time.Minute)

	is := &mockImageStore{}
	is.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errBoom)

	svc := newService(us, ledger, &mockMailer{}, is, "nonexistent/avatar.jpg")
	_, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: "12345"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependency)

	// Same OTP is still honored; no new email round trip needed.
	_, err = ledger.Validate("a@b.com", "12345")
	assert.NoError(t, err)
}

func TestComplete_ImageUploadFailure_ProceedsWithEmptyReference(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.Anything).Return(nil)

	ledger := memstore.NewLedger()
	ledger.Put(domain.PendingRegistration{
		Email: "a@b.com", FirstName: "Alice", LastName: "Smith",
		Username: "alice", PasswordHash: "h", Code: "12345",
	}, 5*time.Minute)

	is := &mockImageStore{}
	is.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errBoom)

	svc := newService(us, ledger, &mockMailer{}, is, writeAvatarFixture(t))
	u, err := svc.Complete(context.Background(), domain.CompleteRegistrationRequest{Email: "a@b.com", OTP: "12345"})
	require.NoError(t, err)
	assert.Empty(t, u.ProfileImage)
}

