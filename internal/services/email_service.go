package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// MessageKind selects the template a mail is rendered from.
type MessageKind string

const (
	MessageWelcome       MessageKind = "welcome"
	MessageVerification  MessageKind = "verification"
	MessagePasswordReset MessageKind = "passwordReset"
)

// Mailer is the email collaborator: given a recipient, display name and
// target URL it renders the message kind and reports success or failure.
type Mailer interface {
	Send(ctx context.Context, kind MessageKind, recipient, displayName, url string) error
}

// SESMailer sends templated mail through AWS SES. Every send is raced
// against a timeout; exceeding it fails the send, and that failure drives
// the caller's rollback behavior (signup, forgot-password).
type SESMailer struct {
	sesClient   *ses.Client
	fromAddress string
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewSESMailer creates an SES-backed Mailer.
func NewSESMailer(region, fromAddress string, sendTimeout time.Duration, logger *slog.Logger) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESMailer{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		sendTimeout: sendTimeout,
		logger:      logger,
	}, nil
}

func (m *SESMailer) Send(ctx context.Context, kind MessageKind, recipient, displayName, url string) error {
	subject, htmlBody, textBody, err := renderMessage(kind, displayName, url)
	if err != nil {
		return err
	}

	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()

	result, err := m.sesClient.SendEmail(sendCtx, input)
	if err != nil {
		m.logger.Error("failed to send email via SES",
			slog.String("kind", string(kind)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		slog.String("kind", string(kind)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// firstName extracts the leading name component for the greeting.
func firstName(displayName string) string {
	if i := strings.IndexByte(displayName, ' '); i > 0 {
		return displayName[:i]
	}
	return displayName
}

func renderMessage(kind MessageKind, displayName, url string) (subject, htmlBody, textBody string, err error) {
	name := firstName(displayName)

	switch kind {
	case MessageWelcome:
		subject = "Welcome to the Tourbook family!"
		htmlBody = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h1>Welcome, %s!</h1>
  <p>We're thrilled to have you on board. Browse our tours and start planning your next adventure:</p>
  <p><a href="%s">Visit your account</a></p>
  <p>Need help? Just reply to this email, we're happy to assist.</p>
</body>
</html>
`, name, url)
		textBody = fmt.Sprintf(`Welcome, %s!

We're thrilled to have you on board. Browse our tours and start planning your next adventure:

%s

Need help? Just reply to this email, we're happy to assist.
`, name, url)

	case MessageVerification:
		subject = "Verify your email address (valid for only 10 minutes)"
		htmlBody = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h1>Hi %s,</h1>
  <p>Please confirm your email address by clicking the link below:</p>
  <p><a href="%s">Verify email address</a></p>
  <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
  <p>This link expires in 10 minutes. If you didn't create an account, you can ignore this email.</p>
</body>
</html>
`, name, url, url)
		textBody = fmt.Sprintf(`Hi %s,

Please confirm your email address by opening the link below:

%s

This link expires in 10 minutes. If you didn't create an account, you can ignore this email.
`, name, url)

	case MessagePasswordReset:
		subject = "Your password reset token (valid for only 10 minutes)"
		htmlBody = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h1>Hi %s,</h1>
  <p>Forgot your password? Submit a request with your new password to:</p>
  <p><a href="%s">Reset your password</a></p>
  <p>This link expires in 10 minutes. If you didn't forget your password, please ignore this email.</p>
</body>
</html>
`, name, url)
		textBody = fmt.Sprintf(`Hi %s,

Forgot your password? Submit a request with your new password to:

%s

This link expires in 10 minutes. If you didn't forget your password, please ignore this email.
`, name, url)

	default:
		return "", "", "", fmt.Errorf("unknown message kind: %q", kind)
	}

	return subject, htmlBody, textBody, nil
}
