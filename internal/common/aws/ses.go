// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	"ascend-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const charsetUTF8 = "UTF-8"

// SESService is the subset of the SES API used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESConfig struct {
	Region    string
	AccessKey string
	SecretKey string
}

// SESClient delivers models.Message values through Amazon SES.
type SESClient struct {
	client SESService
}

// NewSESClient uses static credentials when both keys are set, otherwise the
// default AWS credential chain.
func NewSESClient(ctx context.Context, cfg SESConfig) (*SESClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESClient{client: ses.NewFromConfig(awsCfg)}, nil
}

// NewSESClientWithService wraps an existing SES implementation.
func NewSESClientWithService(svc SESService) *SESClient {
	return &SESClient{client: svc}
}

func (s *SESClient) Send(ctx context.Context, msg models.Message) error {
	_, err := s.client.SendEmail(ctx, buildSendEmailInput(msg))
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

func buildSendEmailInput(msg models.Message) *ses.SendEmailInput {
	body := &types.Body{
		Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String(charsetUTF8)},
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(charsetUTF8)}
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
			Body:    body,
		},
		Source: aws.String(msg.From),
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	return input
}
