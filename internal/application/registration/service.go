package registration

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/GioMjds/savoury-api/internal/domain"
	"github.com/GioMjds/savoury-api/internal/pkg/id"
	"github.com/GioMjds/savoury-api/internal/pkg/policy"
	"github.com/GioMjds/savoury-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Service drives the OTP-gated registration flow: a candidate account is held
// in the ledger until the emailed code is confirmed, and only then promoted
// into a persisted user.
type Service interface {
	Start(ctx context.Context, req domain.StartRegistrationRequest) error
	Resend(ctx context.Context, req domain.ResendOTPRequest) error
	Complete(ctx context.Context, req domain.CompleteRegistrationRequest) (*domain.User, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type otpLedger interface {
	Put(p domain.PendingRegistration, ttl time.Duration)
	Get(email string) (domain.PendingRegistration, bool)
	Delete(email string)
	Validate(email, code string) (domain.PendingRegistration, error)
}

type mailer interface {
	SendOTPEmail(to, code string) error
}

type imageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type service struct {
	users          userStore
	ledger         otpLedger
	mailer         mailer
	images         imageStore
	otpTTL         time.Duration
	bcryptCost     int
	passwordPolicy string
	emailPolicy    string
	avatarPath     string
}

type ServiceDeps struct {
	UserRepo       userStore
	Ledger         otpLedger
	Mailer         mailer
	ImageStore     imageStore
	OTPTTL         time.Duration
	BcryptCost     int
	PasswordPolicy string
	EmailPolicy    string
	AvatarPath     string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:          deps.UserRepo,
		ledger:         deps.Ledger,
		mailer:         deps.Mailer,
		images:         deps.ImageStore,
		otpTTL:         deps.OTPTTL,
		bcryptCost:     deps.BcryptCost,
		passwordPolicy: deps.PasswordPolicy,
		emailPolicy:    deps.EmailPolicy,
		avatarPath:     deps.AvatarPath,
	}
}

// Start validates the candidate account, checks uniqueness (username before
// email; the first violation wins), hashes the password, arms the ledger and
// dispatches the code. A mail failure is fatal: the user cannot retrieve an
// undelivered code, so the whole operation fails.
func (s *service) Start(ctx context.Context, req domain.StartRegistrationRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	if req.Password != req.ConfirmPassword {
		return fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	if ok, msgs := policy.ValidateNewAccount(req.Email, req.Password, s.emailPolicy, s.passwordPolicy); !ok {
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrBadRequest)
	}

	if err := s.checkAvailability(ctx, req.Username, req.Email); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return err
	}
	code, err := newOTPCode()
	if err != nil {
		return err
	}

	s.ledger.Put(domain.PendingRegistration{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		PasswordHash: string(hash),
		Code:         code,
	}, s.otpTTL)

	if err := s.mailer.SendOTPEmail(req.Email, code); err != nil {
		return fmt.Errorf("send OTP email: %w", domain.ErrDependency)
	}
	return nil
}

// Resend re-arms an existing pending registration with a fresh code. The
// stored password hash is reused; name fields may be updated, falling back to
// the stored candidate values when omitted. A replacement username goes
// through the same uniqueness check as the one submitted at start.
func (s *service) Resend(ctx context.Context, req domain.ResendOTPRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	pending, ok := s.ledger.Get(req.Email)
	if !ok {
		return fmt.Errorf("no OTP request found for this email, please initiate registration again: %w", domain.ErrNotFound)
	}
	if req.FirstName != nil {
		pending.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		pending.LastName = *req.LastName
	}
	if req.Username != nil && *req.Username != pending.Username {
		if err := s.checkUsername(ctx, *req.Username); err != nil {
			return err
		}
		pending.Username = *req.Username
	}
	code, err := newOTPCode()
	if err != nil {
		return err
	}
	pending.Code = code

	s.ledger.Put(pending, s.otpTTL)

	if err := s.mailer.SendOTPEmail(req.Email, code); err != nil {
		return fmt.Errorf("send OTP email: %w", domain.ErrDependency)
	}
	return nil
}

// Complete validates the submitted code and promotes the pending registration
// into a persisted user. The ledger entry is deleted only after the user
// record is stored, so a store failure leaves the same code retryable without
// another email round trip.
func (s *service) Complete(ctx context.Context, req domain.CompleteRegistrationRequest) (*domain.User, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	pending, err := s.ledger.Validate(req.Email, req.OTP)
	if err != nil {
		return nil, err
	}

	// The ledger only reserves the candidate in memory. A matching user may
	// have been persisted since start, so uniqueness is re-checked right
	// before the write. The entry is kept so the caller can resend with a
	// different username.
	if err := s.checkAvailability(ctx, pending.Username, pending.Email); err != nil {
		return nil, err
	}

	// Best effort: registration proceeds with an empty image reference when
	// the default avatar cannot be read or uploaded.
	profileImg := s.uploadDefaultAvatar(ctx, pending.Email)

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Fullname:     pending.FirstName + " " + pending.LastName,
		Username:     pending.Username,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		ProfileImage: profileImg,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", domain.ErrDependency)
	}

	s.ledger.Delete(pending.Email)
	return u, nil
}

// checkAvailability reports a conflict when username or email already belongs
// to a persisted user. Username is checked first; the first violation wins.
func (s *service) checkAvailability(ctx context.Context, username, email string) error {
	if err := s.checkUsername(ctx, username); err != nil {
		return err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check email: %w", domain.ErrDependency)
	}
	return nil
}

func (s *service) checkUsername(ctx context.Context, username string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("username already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check username: %w", domain.ErrDependency)
	}
	return nil
}

func (s *service) uploadDefaultAvatar(ctx context.Context, email string) string {
	f, err := os.Open(s.avatarPath)
	if err != nil {
		slog.Warn("default avatar not readable", "path", s.avatarPath, "err", err)
		return ""
	}
	defer f.Close()

	url, err := s.images.Upload(ctx, AvatarKey(email), f, "image/jpeg")
	if err != nil {
		slog.Warn("profile image upload failed", "email", email, "err", err)
		return ""
	}
	return url
}

// AvatarKey derives the object key for a user's profile image from their
// email, mirroring the bucket layout profiles/user_<email with @ and . as _>.
func AvatarKey(email string) string {
	sanitized := strings.NewReplacer("@", "_", ".", "_").Replace(email)
	return "profiles/user_" + sanitized + ".jpg"
}

// newOTPCode draws a uniform random integer from [10000, 99999], a fixed
// 5-digit decimal space that is never zero-padded.
func newOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+10000), nil
}
