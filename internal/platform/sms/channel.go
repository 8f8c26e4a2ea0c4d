package sms

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
)

// API is the subset of the SNS client used for SMS delivery
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	GetSMSAttributes(ctx context.Context, params *sns.GetSMSAttributesInput, optFns ...func(*sns.Options)) (*sns.GetSMSAttributesOutput, error)
}

// Channel delivers balance messages as SMS through Amazon SNS.
// The selected channel ID is used as the SMS sender ID.
type Channel struct {
	api    API
	logger *slog.Logger
}

// NewChannel creates a new SNS channel
func NewChannel(api API, logger *slog.Logger) *Channel {
	return &Channel{api: api, logger: logger}
}

// NewChannelFromRegion loads the default AWS configuration and creates a channel
func NewChannelFromRegion(ctx context.Context, region string, logger *slog.Logger) (*Channel, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewChannel(sns.NewFromConfig(cfg), logger), nil
}

// Available checks that the caller may use SMS at all
func (c *Channel) Available(ctx context.Context) error {
	_, err := c.api.GetSMSAttributes(ctx, &sns.GetSMSAttributesInput{
		Attributes: []string{"DefaultSMSType"},
	})
	if err == nil {
		return nil
	}
	if isAuthorizationError(err) {
		return errors.NewPermissionError("SMS publishing is not permitted", err)
	}
	return errors.NewChannelUnavailableError("SMS channel unreachable", err)
}

// Send publishes message to phone
func (c *Channel) Send(ctx context.Context, phone, message, channelID string) error {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if channelID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(channelID),
		}
	}

	out, err := c.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "SMS publish failed", "error", err)
		if isAuthorizationError(err) {
			return errors.NewPermissionError("SMS publishing is not permitted", err)
		}
		return errors.NewChannelUnavailableError("SMS publish failed", err)
	}
	c.logger.DebugContext(ctx, "SMS published", "messageID", aws.ToString(out.MessageId))
	return nil
}

func isAuthorizationError(err error) bool {
	var apiErr smithy.APIError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "AuthorizationError", "AccessDenied", "AccessDeniedException", "OptedOut":
		return true
	}
	return false
}

var _ notification.Channel = (*Channel)(nil)
