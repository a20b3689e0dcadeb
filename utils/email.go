// utils/email.go
package utils

import (
	"fmt"
	"log"
	"os"
	"storefront/models"

	"github.com/keighl/postmark"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
}

// NewEmailService initializes an EmailService. When POSTMARK_API_TOKEN is
// unset the service is disabled and every send becomes a no-op, so the API
// can run without an email account configured.
func NewEmailService() *EmailService {
	apiToken := os.Getenv("POSTMARK_API_TOKEN")
	if apiToken == "" {
		log.Println("POSTMARK_API_TOKEN not set, email notifications disabled")
		return &EmailService{}
	}
	return &EmailService{client: postmark.NewClient(apiToken, "")}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es.client == nil {
		return nil
	}
	_, err := es.client.SendEmail(postmark.Email{
		From:     os.Getenv("EMAIL_SENDER"),
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOrderPaidEmail notifies the user that payment for an order settled.
func (es *EmailService) SendOrderPaidEmail(toEmail string, order models.Order) error {
	subject := "Payment Confirmed"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Your payment for order <strong>%s</strong> has been confirmed.<br>Total: <strong>$%.2f</strong><br><br>Thank you for shopping with us!",
		order.ID.Hex(),
		order.Total,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
