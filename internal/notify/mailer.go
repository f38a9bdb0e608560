package notify

import (
	"context"

	"go.uber.org/zap"
)

// Mailer is the entry point used by services. Delivery failures are logged
// and reported as false; they never propagate as errors.
type Mailer struct {
	d  Dispatcher
	lg *zap.SugaredLogger
}

func NewMailer(d Dispatcher, lg *zap.SugaredLogger) *Mailer {
	return &Mailer{d: d, lg: lg}
}

func (m *Mailer) Send(ctx context.Context, to string, tmpl Template, data map[string]string) bool {
	if m == nil || m.d == nil {
		return false
	}
	if to == "" {
		m.lg.Warnw("mail skipped, no recipient", "template", tmpl)
		return false
	}
	if err := m.d.Dispatch(ctx, Message{To: to, Template: tmpl, Data: data}); err != nil {
		m.lg.Errorw("mail dispatch failed", "template", tmpl, "to", to, "error", err)
		return false
	}
	m.lg.Debugw("mail dispatched", "template", tmpl, "to", to)
	return true
}
