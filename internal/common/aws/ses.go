// Package aws holds the AWS SDK wrappers the chat client touches. SES is
// the only service in play: it carries the sales alert emailed after a
// lead is delivered.
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESClient struct {
	client *ses.Client
}

func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg)}, nil
}

// SendPlain sends a single plain-text email, the only shape the lead
// alert needs.
func (s *SESClient) SendPlain(ctx context.Context, sender, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Source: awssdk.String(sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: awssdk.String(body)},
			},
		},
	}
	_, err := s.client.SendEmail(ctx, input)
	return err
}
