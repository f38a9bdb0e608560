package accounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"parkeasy/internal/auth"
	"parkeasy/internal/models"
	"parkeasy/internal/notify"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Dispatch(_ context.Context, m notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, m)
	return nil
}

func (o *outbox) last(t *testing.T) notify.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs)
	return o.msgs[len(o.msgs)-1]
}

func newService(t *testing.T) (*Service, *gorm.DB, *outbox) {
	db := storetest.Open(t)
	lg := zap.NewNop().Sugar()
	box := &outbox{}
	svc := NewService(db, auth.NewSigner("test-secret", time.Hour), notify.NewMailer(box, lg), lg, Options{BaseURL: "http://parkeasy.test/"})
	return svc, db, box
}

func signup(t *testing.T, svc *Service, username string) *models.User {
	t.Helper()
	res, err := svc.Signup(context.Background(), SignupInput{
		Username: username, Email: username + "@Example.com", Password: "secret123", PasswordConfirm: "secret123",
	})
	require.NoError(t, err)
	return res.User
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newService(t)
	tests := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"missing username", SignupInput{Email: "a@x.io", Password: "secret123", PasswordConfirm: "secret123"}, "username"},
		{"short password", SignupInput{Username: "a", Email: "a@x.io", Password: "short", PasswordConfirm: "short"}, "password"},
		{"mismatch", SignupInput{Username: "a", Email: "a@x.io", Password: "secret123", PasswordConfirm: "secret124"}, "password_confirm"},
		{"admin role", SignupInput{Username: "a", Email: "a@x.io", Password: "secret123", PasswordConfirm: "secret123", Role: "admin"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.in)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSignupCreatesUnverifiedAndMailsOTP(t *testing.T) {
	svc, _, box := newService(t)
	u := signup(t, svc, "asha")

	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.Nil(t, u.RoleSelectedAt)
	assert.False(t, u.IsActive)
	assert.False(t, u.EmailVerified)
	require.NotNil(t, u.OTP)
	assert.Len(t, *u.OTP, 6)

	m := box.last(t)
	assert.Equal(t, notify.TemplateOTP, m.Template)
	assert.Equal(t, *u.OTP, m.Data["Code"])

	_, err := svc.Signup(context.Background(), SignupInput{Username: "other", Email: "ASHA@example.com", Password: "secret123", PasswordConfirm: "secret123"})
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = svc.Signup(context.Background(), SignupInput{Username: "asha", Email: "new@example.com", Password: "secret123", PasswordConfirm: "secret123"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestVerifyOTP(t *testing.T) {
	svc, _, box := newService(t)
	u := signup(t, svc, "asha")
	ctx := context.Background()

	_, err := svc.VerifyOTP(ctx, u.ID, "000000x")
	assert.ErrorIs(t, err, models.ErrOTPInvalid)

	got, err := svc.VerifyOTP(ctx, u.ID, *u.OTP)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.OTP)
	assert.Equal(t, notify.TemplateWelcome, box.last(t).Template)

	_, err = svc.VerifyOTP(ctx, u.ID, *u.OTP)
	assert.ErrorIs(t, err, models.ErrAlreadyVerified)
	_, _, err = svc.ResendOTP(ctx, u.Email)
	assert.ErrorIs(t, err, models.ErrAlreadyVerified)
}

func TestVerifyOTPExpired(t *testing.T) {
	svc, _, _ := newService(t)
	u := signup(t, svc, "asha")
	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	_, err := svc.VerifyOTP(context.Background(), u.ID, *u.OTP)
	assert.ErrorIs(t, err, models.ErrOTPExpired)

	_, sent, err := svc.ResendOTP(context.Background(), "ASHA@example.com")
	require.NoError(t, err)
	assert.True(t, sent)
	fresh, err := svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	_, err = svc.VerifyOTP(context.Background(), u.ID, *fresh.OTP)
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	u := signup(t, svc, "asha")

	_, err := svc.Login(ctx, "asha", "wrong-pass", audit.Origin{})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "secret123", audit.Origin{})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "asha", "secret123", audit.Origin{})
	assert.ErrorIs(t, err, models.ErrEmailNotVerified)

	_, err = svc.VerifyOTP(ctx, u.ID, *u.OTP)
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ASHA@example.com", "secret123", audit.Origin{IP: "1.2.3.4"})
	require.NoError(t, err)
	claims, err := auth.NewSigner("test-secret", time.Hour).Verify(res.Token.Raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	var sess models.Session
	require.NoError(t, db.First(&sess, "jti = ?", res.Token.JWTID).Error)
	assert.Nil(t, sess.RevokedAt)

	require.NoError(t, svc.Logout(ctx, claims, audit.Origin{}))
	require.NoError(t, db.First(&sess, "jti = ?", res.Token.JWTID).Error)
	assert.NotNil(t, sess.RevokedAt)

	var actions []string
	require.NoError(t, db.Model(&models.UserActivity{}).Where("user_id = ?", u.ID).Order("id").Pluck("action", &actions).Error)
	assert.Equal(t, []string{models.ActivityLogin, models.ActivityLogout}, actions)
}

func TestLoginSuspendedShowsReason(t *testing.T) {
	svc, db, _ := newService(t)
	u := storetest.User(t, db, "ravi", models.RoleCustomer)
	require.NoError(t, db.Model(u).Updates(map[string]any{"is_suspended": true, "suspension_reason": "fraud"}).Error)

	_, err := svc.Login(context.Background(), "ravi", "password123", audit.Origin{})
	var se *models.SuspendedError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fraud", se.Reason)
}

func TestChooseRoleOnce(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	u := signup(t, svc, "asha")

	_, err := svc.ChooseRole(ctx, u.ID, models.RoleAdmin)
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)

	got, err := svc.ChooseRole(ctx, u.ID, models.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, got.Role)
	assert.NotNil(t, got.RoleSelectedAt)

	_, err = svc.ChooseRole(ctx, u.ID, models.RoleCustomer)
	assert.ErrorIs(t, err, models.ErrRoleAlreadyChosen)

	_, err = svc.ChooseRole(ctx, "missing", models.RoleCustomer)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSignupWithRoleLocksIt(t *testing.T) {
	svc, _, _ := newService(t)
	res, err := svc.Signup(context.Background(), SignupInput{
		Username: "olga", Email: "olga@example.com", Password: "secret123", PasswordConfirm: "secret123", Role: models.RoleOwner,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, res.User.Role)
	_, err = svc.ChooseRole(context.Background(), res.User.ID, models.RoleCustomer)
	assert.ErrorIs(t, err, models.ErrRoleAlreadyChosen)
}

func TestPasswordReset(t *testing.T) {
	svc, db, box := newService(t)
	ctx := context.Background()
	u := storetest.User(t, db, "ravi", models.RoleCustomer)

	require.NoError(t, svc.RequestPasswordReset(ctx, "unknown@example.com"))
	assert.Empty(t, box.msgs)

	require.NoError(t, svc.RequestPasswordReset(ctx, u.Email))
	m := box.last(t)
	assert.Equal(t, notify.TemplatePasswordReset, m.Template)
	assert.Contains(t, m.Data["Link"], "http://parkeasy.test/reset-password?token=")

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	require.NotNil(t, stored.PasswordResetToken)
	token := *stored.PasswordResetToken

	var ve *models.ValidationError
	assert.ErrorAs(t, svc.ResetPassword(ctx, token, "newpass123", "different"), &ve)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "bogus", "newpass123", "newpass123"), models.ErrResetTokenInvalid)
	require.NoError(t, svc.ResetPassword(ctx, token, "newpass123", "newpass123"))
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "newpass123", "newpass123"), models.ErrResetTokenInvalid)

	_, err := svc.Login(ctx, "ravi", "newpass123", audit.Origin{})
	assert.NoError(t, err)
}

func TestPasswordResetExpired(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	u := storetest.User(t, db, "ravi", models.RoleCustomer)
	require.NoError(t, svc.RequestPasswordReset(ctx, u.Email))
	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, svc.ResetPassword(ctx, *stored.PasswordResetToken, "newpass123", "newpass123"), models.ErrResetTokenInvalid)
}

func TestProfileAndChangePassword(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	u := storetest.User(t, db, "ravi", models.RoleCustomer)
	storetest.User(t, db, "taken", models.RoleCustomer)

	first, phone := "Ravi", "9876543210"
	got, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{FirstName: &first, Phone: &phone}, audit.Origin{})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.FirstName)
	assert.Equal(t, "Ravi", got.DisplayName())

	dup := "taken@example.com"
	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{Email: &dup}, audit.Origin{})
	assert.ErrorIs(t, err, models.ErrConflict)

	var ve *models.ValidationError
	assert.ErrorAs(t, svc.ChangePassword(ctx, u.ID, "nope", "newpass123", "newpass123"), &ve)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password123", "newpass123", "newpass123"))
	_, err = svc.Login(ctx, "ravi", "newpass123", audit.Origin{})
	assert.NoError(t, err)
}

func TestSeedAdmin(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.SeedAdmin(ctx, "Admin@ParkEasy.local", "parkeasy_admin", "adminpass1"))
	require.NoError(t, svc.SeedAdmin(ctx, "admin@parkeasy.local", "parkeasy_admin", "adminpass1"))

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].EmailVerified)

	_, err := svc.Login(ctx, "parkeasy_admin", "adminpass1", audit.Origin{})
	assert.NoError(t, err)
}
