package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dispatchFunc func(ctx context.Context, msg Message) error

func (f dispatchFunc) Dispatch(ctx context.Context, msg Message) error { return f(ctx, msg) }

func TestRender(t *testing.T) {
	tests := []struct {
		name        string
		msg         Message
		wantSubject string
		wantBody    []string
	}{
		{
			name:        "otp",
			msg:         Message{Template: TemplateOTP, Data: map[string]string{"Username": "asha", "Code": "042917"}},
			wantSubject: "Verify your ParkEasy account",
			wantBody:    []string{"Hello asha", "042917"},
		},
		{
			name:        "password reset",
			msg:         Message{Template: TemplatePasswordReset, Data: map[string]string{"Username": "asha", "Link": "http://x/reset?token=abc"}},
			wantSubject: "Reset your ParkEasy password",
			wantBody:    []string{"http://x/reset?token=abc"},
		},
		{
			name:        "receipt",
			msg:         Message{Template: TemplateReceipt, Data: map[string]string{"ReceiptNumber": "RCPT-20261018-0001", "Total": "125.00"}},
			wantSubject: "ParkEasy receipt RCPT-20261018-0001",
			wantBody:    []string{"125.00"},
		},
		{
			name:        "site name override",
			msg:         Message{Template: TemplateWelcome, Data: map[string]string{"SiteName": "Other"}},
			wantSubject: "Welcome to Other",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := Render("ParkEasy", tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
			for _, s := range tt.wantBody {
				assert.Contains(t, body, s)
			}
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("ParkEasy", Message{Template: "nope"})
	assert.Error(t, err)
}

func TestMailerSend(t *testing.T) {
	var got Message
	ok := NewMailer(dispatchFunc(func(_ context.Context, m Message) error {
		got = m
		return nil
	}), zap.NewNop().Sugar()).Send(context.Background(), "a@example.com", TemplateWelcome, map[string]string{"Username": "a"})
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", got.To)
	assert.Equal(t, TemplateWelcome, got.Template)

	failing := NewMailer(dispatchFunc(func(context.Context, Message) error {
		return errors.New("smtp down")
	}), zap.NewNop().Sugar())
	assert.False(t, failing.Send(context.Background(), "a@example.com", TemplateOTP, nil))
	assert.False(t, failing.Send(context.Background(), "", TemplateOTP, nil))

	var nilMailer *Mailer
	assert.False(t, nilMailer.Send(context.Background(), "a@example.com", TemplateOTP, nil))
}

func TestDeliver(t *testing.T) {
	var got Message
	d := dispatchFunc(func(_ context.Context, m Message) error {
		got = m
		return nil
	})
	body, err := json.Marshal(Message{To: "b@example.com", Template: TemplateOTP, Data: map[string]string{"Code": "123456"}})
	require.NoError(t, err)

	require.NoError(t, Deliver(context.Background(), d, body))
	assert.Equal(t, "123456", got.Data["Code"])

	assert.Error(t, Deliver(context.Background(), d, []byte("{")))
	assert.Error(t, Deliver(context.Background(), d, []byte(`{"template":"otp"}`)))
}

func TestLogDispatcher(t *testing.T) {
	d := &LogDispatcher{SiteName: "ParkEasy", Logger: zap.NewNop().Sugar()}
	assert.NoError(t, d.Dispatch(context.Background(), Message{To: "x@example.com", Template: TemplateWelcome}))
	assert.Error(t, d.Dispatch(context.Background(), Message{To: "x@example.com", Template: "bogus"}))
}
