package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher writes rendered mail to the log instead of sending it.
type LogDispatcher struct {
	SiteName string
	Logger   *zap.SugaredLogger
}

func (d *LogDispatcher) Dispatch(_ context.Context, msg Message) error {
	subject, body, err := Render(d.SiteName, msg)
	if err != nil {
		return err
	}
	d.Logger.Infow("mail", "to", msg.To, "subject", subject, "body", body)
	return nil
}
