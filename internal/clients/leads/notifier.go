package leads

import (
	"context"
	"fmt"

	commonaws "proposal-chat/internal/common/aws"
	"proposal-chat/internal/common/logger"
	"proposal-chat/internal/dialogue"
)

// EmailNotifier alerts the sales address over SES whenever a lead lands.
type EmailNotifier struct {
	ses          *commonaws.SESClient
	sender       string
	salesAddress string
	log          logger.Logger
}

func NewEmailNotifier(sesClient *commonaws.SESClient, sender, salesAddress string, log logger.Logger) *EmailNotifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &EmailNotifier{
		ses:          sesClient,
		sender:       sender,
		salesAddress: salesAddress,
		log:          log,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, lead dialogue.Lead) error {
	subject := fmt.Sprintf("New estimator lead: %s", lead.Name)
	body := fmt.Sprintf(
		"Name: %s\nEmail: %s\nPhone: %s\nStatus: %s\nTranscript messages: %d\n",
		lead.Name, lead.Email, lead.Phone, lead.Message, len(lead.Transcript),
	)

	if err := n.ses.SendPlain(ctx, n.sender, n.salesAddress, subject, body); err != nil {
		return fmt.Errorf("failed to send lead alert: %w", err)
	}

	n.log.Info("lead alert emailed", map[string]interface{}{
		"to":    n.salesAddress,
		"email": lead.Email,
	})
	return nil
}
