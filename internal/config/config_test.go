package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/parkeasy")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OTP_TTL", "10m")
	t.Setenv("MAIL_DRIVER", "SMTP")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.HTTPPort)
	assert.Equal(t, 10*time.Minute, c.OTPTTL)
	assert.Equal(t, time.Hour, c.ResetTTL)
	assert.Equal(t, "smtp", c.Mail.Driver)
	assert.Equal(t, 587, c.Mail.SMTPPort)
	assert.Empty(t, c.Redis.Addr)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/parkeasy")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}
