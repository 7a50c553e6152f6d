package notify

import (
	"context"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/service"
	applogger "MacroPull/pkg/logger"
)

// LogNotifier writes alerts to the application log.
type LogNotifier struct {
	l *applogger.Logger
}

var _ service.AlertNotifier = (*LogNotifier)(nil)

func NewLogNotifier(l *applogger.Logger) *LogNotifier {
	if l == nil {
		l = applogger.NewNop()
	}
	return &LogNotifier{l: l}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, a models.Alert) error {
	n.l.Warn(a.Subject(),
		applogger.String("alert_id", a.ID),
		applogger.String("series", a.SeriesID),
		applogger.Float64("value", a.Value),
		applogger.Float64("threshold", a.Threshold),
		applogger.Bool("test", a.Test),
	)
	return nil
}
