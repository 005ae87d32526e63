package service

import (
	"context"
	"fmt"
	"log/slog"

	"familycard/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends card issuance notifications via Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates a new email service. When fromEmail is empty
// the service is created disabled and every send becomes a no-op.
func NewEmailService(awsRegion, fromEmail, fromName string) (*EmailService, error) {
	if fromEmail == "" {
		slog.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	slog.Info("email service enabled", "from", fromEmail, "region", awsRegion)

	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendCardIssuedEmail notifies the family owner that their utility card
// has been issued.
func (s *EmailService) SendCardIssuedEmail(ctx context.Context, toEmail string, family *models.Family) error {
	if !s.enabled {
		slog.Info("skipping email send (service disabled)", "to", toEmail)
		return nil
	}

	subject := fmt.Sprintf("Your family utility card %s", family.CardNumber)
	body := fmt.Sprintf(
		"Hello,\n\nA utility card has been issued for family %q.\n\n"+
			"Card number: %s\nScheme tier: %s\nAnnual fee: %d\nDiscount: %d%%\n\n"+
			"Keep the card number safe; it identifies your family at participating providers.\n",
		family.FamilyName, family.CardNumber, family.SchemeType, family.Fee, family.Discount)

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("card notification sent", "to", toEmail, "card_number", family.CardNumber)
	return nil
}
