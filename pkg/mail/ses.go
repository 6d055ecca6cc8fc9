// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/designo-group/secret-santa/pkg/config"
)

// SendEmailAPI is the subset of the SES v2 client used by SESTransport.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport delivers mail through the AWS SES v2 API.
type SESTransport struct {
	client SendEmailAPI
	log    *zap.SugaredLogger
}

// NewSESTransport loads the AWS configuration for cfg.Region. Static
// credentials are used when both key and secret are set; otherwise the
// default credential chain applies.
func NewSESTransport(ctx context.Context, cfg config.SES, log *zap.SugaredLogger) (*SESTransport, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Infow("Initializing SES transport", "region", cfg.Region)
	return NewSESTransportWithClient(sesv2.NewFromConfig(awsCfg), log), nil
}

// NewSESTransportWithClient wraps an existing client.
func NewSESTransportWithClient(client SendEmailAPI, log *zap.SugaredLogger) *SESTransport {
	return &SESTransport{client: client, log: log.Named("ses")}
}

func (t *SESTransport) Name() string {
	return config.TransportSES
}

func (t *SESTransport) Send(ctx context.Context, msg *Message) error {
	out, err := t.client.SendEmail(ctx, buildSESInput(msg))
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	t.log.Debugw("SES accepted message", "id", msg.ID, "sesMessageID", aws.ToString(out.MessageId))
	return nil
}

func buildSESInput(msg *Message) *sesv2.SendEmailInput {
	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From()),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTML),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}
}
