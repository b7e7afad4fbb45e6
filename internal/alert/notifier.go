// internal/alert/notifier.go
package alert

import (
	"context"
	"fmt"

	"parcinfo-verifier/internal/common/aws"
	"parcinfo-verifier/internal/common/config"
	"parcinfo-verifier/internal/common/errors"
	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

// Notifier raises operator alerts when verification confidence falls below
// the configured threshold. Delivery failures are logged, never escalated.
type Notifier struct {
	cfg    config.AlertsConfig
	sns    *aws.SNSClient
	ses    *aws.SESClient
	logger logger.Logger
}

func NewNotifier(cfg config.AlertsConfig, snsClient *aws.SNSClient, sesClient *aws.SESClient, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		sns:    snsClient,
		ses:    sesClient,
		logger: log.WithFields(map[string]interface{}{"component": "alert"}),
	}
}

// Check fires an alert when the report breaches the confidence threshold.
func (n *Notifier) Check(ctx context.Context, report *models.Report) {
	if !n.cfg.Enabled || report == nil {
		return
	}
	if report.ConfidenceScore >= n.cfg.ConfidenceThreshold {
		return
	}

	subject := fmt.Sprintf("Low-confidence chatbot response (%.2f)", report.ConfidenceScore)
	message := fmt.Sprintf(
		"Verification report %s scored %.2f (threshold %.2f). Unverified entities: %d, inconsistencies: %d.",
		report.ID, report.ConfidenceScore, n.cfg.ConfidenceThreshold,
		countUnverified(report), len(report.Inconsistencies),
	)

	if n.cfg.AWS.SNS.Enabled && n.sns != nil {
		if err := n.sns.PublishAlert(ctx, n.cfg.AWS.SNS.TopicARN, subject, message); err != nil {
			stdErr := errors.NewAlertSendFailedError("sns", err)
			n.logger.Warn(stdErr.Message, map[string]interface{}{"details": stdErr.Details})
		}
	}

	if n.cfg.AWS.SES.Enabled && n.ses != nil {
		if err := n.ses.SendAlert(ctx, n.cfg.AWS.SES.FromEmail, n.cfg.AWS.SES.ToEmail, subject, message); err != nil {
			stdErr := errors.NewAlertSendFailedError("ses", err)
			n.logger.Warn(stdErr.Message, map[string]interface{}{"details": stdErr.Details})
		}
	}
}

func countUnverified(report *models.Report) int {
	count := 0
	for _, result := range report.Results {
		if result != nil && !result.Verified {
			count++
		}
	}
	return count
}
