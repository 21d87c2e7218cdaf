// Package notification renders and delivers collection notices to occupants.
//
// The current delivery channel writes rendered notices to the structured log,
// which is enough for back-office operators to act on. Swapping in an email
// or SMS gateway means implementing collection.Notifier against the same
// rendered output.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	appcollection "github.com/bms/backend/internal/application/collection"
	"github.com/bms/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// defaultTemplate is used when a stage has no message template configured.
const defaultTemplate = "Dear {{.OccupantName}}, apartment {{.UnitNumber}} has an outstanding balance of {{.Balance}} ({{.DaysOverdue}} days overdue). Please settle it promptly."

// templateData is the variable set exposed to stage message templates.
type templateData struct {
	OccupantName string
	UnitNumber   string
	Balance      string
	DaysOverdue  int
	StageName    string
	SenderName   string
}

// LogNotifier renders stage message templates and emits the result through
// the structured log.
type LogNotifier struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(cfg config.NotificationConfig, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{cfg: cfg, logger: logger}
}

// Notify renders the notification and writes it to the log. Rendering errors
// are returned so the caller can record the failed delivery.
func (n *LogNotifier) Notify(_ context.Context, notice appcollection.Notification) error {
	if !n.cfg.Enabled {
		n.logger.Debug("notifications disabled, dropping notice",
			zap.String("apartment_id", notice.ApartmentID.String()),
			zap.Int("stage_number", notice.StageNumber),
		)
		return nil
	}

	body, err := n.render(notice)
	if err != nil {
		return fmt.Errorf("failed to render notification: %w", err)
	}

	n.logger.Info("collection notice",
		zap.String("apartment_id", notice.ApartmentID.String()),
		zap.String("unit_number", notice.UnitNumber),
		zap.String("occupant", notice.OccupantName),
		zap.Int("stage_number", notice.StageNumber),
		zap.String("stage_name", notice.StageName),
		zap.String("action_type", notice.ActionType.String()),
		zap.String("sender", n.cfg.SenderName),
		zap.String("body", body),
	)
	return nil
}

// render executes the stage's message template against the notification data.
func (n *LogNotifier) render(notice appcollection.Notification) (string, error) {
	text := notice.MessageTemplate
	if text == "" {
		text = defaultTemplate
	}

	tmpl, err := template.New("notice").Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid message template for stage %d: %w", notice.StageNumber, err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, templateData{
		OccupantName: notice.OccupantName,
		UnitNumber:   notice.UnitNumber,
		Balance:      notice.Balance,
		DaysOverdue:  notice.DaysOverdue,
		StageName:    notice.StageName,
		SenderName:   n.cfg.SenderName,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Ensure LogNotifier implements Notifier
var _ appcollection.Notifier = (*LogNotifier)(nil)
