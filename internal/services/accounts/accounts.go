// Package accounts covers signup, email verification, sessions, profile and
// password management.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"parkeasy/internal/auth"
	"parkeasy/internal/models"
	"parkeasy/internal/notify"
	"parkeasy/internal/services/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	BaseURL  string
	OTPTTL   time.Duration
	ResetTTL time.Duration
}

type Service struct {
	db     *gorm.DB
	signer *auth.Signer
	mailer *notify.Mailer
	lg     *zap.SugaredLogger
	opts   Options
	now    func() time.Time
}

func NewService(db *gorm.DB, signer *auth.Signer, mailer *notify.Mailer, lg *zap.SugaredLogger, opts Options) *Service {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 15 * time.Minute
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &Service{db: db, signer: signer, mailer: mailer, lg: lg, opts: opts, now: time.Now}
}

type SignupInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Role            string
}

type SignupResult struct {
	User     *models.User
	MailSent bool
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func checkNewPassword(pw, confirm string) error {
	if len(pw) < auth.MinPasswordLength {
		return models.Invalid("password", fmt.Sprintf("Password must be at least %d characters long.", auth.MinPasswordLength))
	}
	if pw != confirm {
		return models.Invalid("password_confirm", "Passwords do not match.")
	}
	return nil
}

// Signup creates an inactive, unverified account and mails its OTP.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Username == "" {
		return nil, models.Invalid("username", "Username is required.")
	}
	if in.Email == "" {
		return nil, models.Invalid("email", "Email is required.")
	}
	if err := checkNewPassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}
	role := models.RoleCustomer
	var chosenAt *time.Time
	if in.Role != "" {
		if in.Role != models.RoleCustomer && in.Role != models.RoleOwner {
			return nil, models.Invalid("role", "Select customer or owner.")
		}
		role = in.Role
		now := s.now()
		chosenAt = &now
	}

	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: an account with this email already exists", models.ErrConflict)
	}
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: username is taken", models.ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	code, err := auth.NewOTP()
	if err != nil {
		return nil, err
	}
	issued := s.now()
	u := models.User{
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   hash,
		Role:           role,
		RoleSelectedAt: chosenAt,
		OTP:            &code,
		OTPCreatedAt:   &issued,
	}
	if err := db.Create(&u).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username or email already registered", models.ErrConflict)
		}
		return nil, err
	}
	s.lg.Infow("user signed up", "user_id", u.ID, "role", u.Role)
	sent := s.mailer.Send(ctx, u.Email, notify.TemplateOTP, map[string]string{"Username": u.Username, "Code": code})
	return &SignupResult{User: &u, MailSent: sent}, nil
}

// VerifyOTP activates the account when code matches and has not expired.
func (s *Service) VerifyOTP(ctx context.Context, userID, code string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return models.NotFound(err)
		}
		if u.EmailVerified {
			return models.ErrAlreadyVerified
		}
		if err := auth.CheckOTP(u.OTP, u.OTPCreatedAt, strings.TrimSpace(code), s.opts.OTPTTL, s.now()); err != nil {
			return err
		}
		u.EmailVerified = true
		u.IsActive = true
		u.OTP = nil
		u.OTPCreatedAt = nil
		return tx.Model(&u).Select("email_verified", "is_active", "otp", "otp_created_at").Updates(&u).Error
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("email verified", "user_id", u.ID)
	s.mailer.Send(ctx, u.Email, notify.TemplateWelcome, map[string]string{"Username": u.Username})
	return &u, nil
}

// ResendOTP issues a fresh code to an unverified account.
func (s *Service) ResendOTP(ctx context.Context, email string) (*models.User, bool, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, false, models.NotFound(err)
	}
	if u.EmailVerified {
		return nil, false, models.ErrAlreadyVerified
	}
	code, err := auth.NewOTP()
	if err != nil {
		return nil, false, err
	}
	issued := s.now()
	if err := s.db.WithContext(ctx).Model(&u).Updates(map[string]any{"otp": code, "otp_created_at": issued}).Error; err != nil {
		return nil, false, err
	}
	sent := s.mailer.Send(ctx, u.Email, notify.TemplateOTP, map[string]string{"Username": u.Username, "Code": code})
	return &u, sent, nil
}

type LoginResult struct {
	Token auth.Token
	User  *models.User
}

// Login accepts a username or email. Suspension is reported with its reason
// ahead of the verification check.
func (s *Service) Login(ctx context.Context, identifier, password string, o audit.Origin) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	var u models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, normalizeEmail(identifier)).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if auth.CheckPassword(u.PasswordHash, password) != nil {
		return nil, models.ErrInvalidCredentials
	}
	if u.IsSuspended {
		return nil, &models.SuspendedError{Reason: u.SuspensionReason}
	}
	if !u.EmailVerified {
		return nil, models.ErrEmailNotVerified
	}

	tok, err := s.signer.Sign(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Session{JTI: tok.JWTID, UserID: u.ID, ExpiresAt: tok.ExpiresAt}).Error; err != nil {
			return err
		}
		return audit.Activity(tx, u.ID, models.ActivityLogin, "Logged in", o)
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("login", "user_id", u.ID, "ip", o.IP)
	return &LoginResult{Token: tok, User: &u}, nil
}

// Logout revokes the session behind claims.
func (s *Service) Logout(ctx context.Context, c auth.Claims, o audit.Origin) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		err := tx.Model(&models.Session{}).
			Where("jti = ? AND revoked_at IS NULL", c.JWTID).
			Update("revoked_at", &now).Error
		if err != nil {
			return err
		}
		return audit.Activity(tx, c.Subject, models.ActivityLogout, "Logged out", o)
	})
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return nil, models.NotFound(err)
	}
	return &u, nil
}

type ProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput, o audit.Origin) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return models.NotFound(err)
		}
		changes := map[string]any{}
		if in.Email != nil {
			e := normalizeEmail(*in.Email)
			if e == "" {
				return models.Invalid("email", "Email is required.")
			}
			if e != u.Email {
				var n int64
				if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", e, u.ID).Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					return fmt.Errorf("%w: an account with this email already exists", models.ErrConflict)
				}
				changes["email"] = e
			}
		}
		if in.FirstName != nil {
			changes["first_name"] = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			changes["last_name"] = strings.TrimSpace(*in.LastName)
		}
		if in.Phone != nil {
			changes["phone"] = strings.TrimSpace(*in.Phone)
		}
		if in.Address != nil {
			changes["address"] = strings.TrimSpace(*in.Address)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&u).Updates(changes).Error; err != nil {
			if models.IsUniqueViolation(err) {
				return fmt.Errorf("%w: an account with this email already exists", models.ErrConflict)
			}
			return err
		}
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return err
		}
		return audit.Activity(tx, u.ID, models.ActivityProfileUpdated, "Updated profile", o)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ChooseRole is the one-time picker for accounts whose role was defaulted.
func (s *Service) ChooseRole(ctx context.Context, userID, role string) (*models.User, error) {
	if role != models.RoleCustomer && role != models.RoleOwner {
		return nil, models.Invalid("role", "Select customer or owner.")
	}
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role_selected_at IS NULL AND role <> ?", userID, models.RoleAdmin).
		Updates(map[string]any{"role": role, "role_selected_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.Me(ctx, userID); err != nil {
			return nil, err
		}
		return nil, models.ErrRoleAlreadyChosen
	}
	return s.Me(ctx, userID)
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.lg.Infow("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	token := uuid.NewString()
	expires := s.now().Add(s.opts.ResetTTL)
	err = s.db.WithContext(ctx).Model(&u).Updates(map[string]any{
		"password_reset_token":   token,
		"password_reset_expires": expires,
	}).Error
	if err != nil {
		return err
	}
	link := strings.TrimRight(s.opts.BaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	s.mailer.Send(ctx, u.Email, notify.TemplatePasswordReset, map[string]string{"Username": u.Username, "Link": link})
	return nil
}

// ResetPassword consumes a reset token.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if strings.TrimSpace(token) == "" {
		return models.ErrResetTokenInvalid
	}
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "password_reset_token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrResetTokenInvalid
			}
			return err
		}
		if u.PasswordResetExpires == nil || s.now().After(*u.PasswordResetExpires) {
			return models.ErrResetTokenInvalid
		}
		return tx.Model(&u).Updates(map[string]any{
			"password_hash":          hash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		}).Error
	})
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, password, confirm string) error {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if auth.CheckPassword(u.PasswordHash, current) != nil {
		return models.Invalid("current_password", "Current password is incorrect.")
	}
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(u).Update("password_hash", hash).Error
}

// SeedAdmin creates the bootstrap administrator once. An empty password skips it.
func (s *Service) SeedAdmin(ctx context.Context, email, username, password string) error {
	email = normalizeEmail(email)
	if password == "" || email == "" {
		s.lg.Warnw("admin seed skipped, ADMIN_EMAIL or ADMIN_PASSWORD empty")
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR role = ?", email, models.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now()
	u := models.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		Role:           models.RoleAdmin,
		RoleSelectedAt: &now,
		IsActive:       true,
		EmailVerified:  true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return nil
		}
		return err
	}
	s.lg.Infow("seeded default admin", "email", email)
	return nil
}
