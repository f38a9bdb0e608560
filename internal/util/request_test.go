package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-18T10:00:00Z", time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)},
		{"2026-10-18T10:00", time.Date(2026, 10, 18, 10, 0, 0, 0, loc)},
		{"2026-10-18T10:00:30", time.Date(2026, 10, 18, 10, 0, 30, 0, loc)},
		{"2026-10-18 12:30", time.Date(2026, 10, 18, 12, 30, 0, 0, loc)},
		{"2026-10-18", time.Date(2026, 10, 18, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
	_, err := ParseTime("tomorrow", loc)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("x", 1))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", ClientIP(r))
	r.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}
