// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/models"
)

// PurchaseNotifier is told about every newly recorded purchase.
type PurchaseNotifier interface {
	PurchaseCompleted(ctx context.Context, purchase *models.Purchase) error
}

type mailSender func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// NotificationService emails the buyer a receipt and the author a sale
// notice. Without an SMTP host it only logs.
type NotificationService struct {
	db          *gorm.DB
	email       config.EmailConfig
	frontendURL string
	send        mailSender
}

type emailTemplate struct {
	Subject string
	Body    *template.Template
}

var emailTemplates = map[string]emailTemplate{
	"purchase_receipt": {
		Subject: "Your purchase: %s",
		Body: template.Must(template.New("purchase_receipt").Parse(`<!DOCTYPE html>
<html>
<body>
	<h2>Thank you, {{.BuyerName}}!</h2>
	<p>You now own "{{.BookTitle}}" for {{.Amount}}.</p>
	<a href="{{.BookURL}}">Start reading</a>
	<p>Happy reading,<br>Highdeium</p>
</body>
</html>`)),
	},
	"author_sale": {
		Subject: "You sold a copy of %s",
		Body: template.Must(template.New("author_sale").Parse(`<!DOCTYPE html>
<html>
<body>
	<h2>New sale!</h2>
	<p>Hello {{.AuthorName}},</p>
	<p>{{.BuyerName}} just bought "{{.BookTitle}}" for {{.Amount}}.</p>
	<a href="{{.BookURL}}">View your book</a>
	<p>Best regards,<br>Highdeium</p>
</body>
</html>`)),
	},
}

func NewNotificationService(db *gorm.DB, email config.EmailConfig, frontendURL string) *NotificationService {
	return &NotificationService{
		db:          db,
		email:       email,
		frontendURL: frontendURL,
		send:        smtp.SendMail,
	}
}

func (s *NotificationService) PurchaseCompleted(ctx context.Context, purchase *models.Purchase) error {
	var buyer models.User
	if err := s.db.WithContext(ctx).First(&buyer, "id = ?", purchase.UserID).Error; err != nil {
		return fmt.Errorf("failed to load buyer: %w", err)
	}

	var book models.Book
	if err := s.db.WithContext(ctx).Unscoped().Preload("Author").First(&book, "id = ?", purchase.BookID).Error; err != nil {
		return fmt.Errorf("failed to load book: %w", err)
	}

	data := map[string]interface{}{
		"BuyerName": buyer.DisplayName(),
		"BookTitle": book.Title,
		"Amount":    fmt.Sprintf("%.2f", purchase.Amount),
		"BookURL":   fmt.Sprintf("%s/books/%s", s.frontendURL, book.ID),
	}

	if err := s.sendTemplate(buyer.Email, "purchase_receipt", book.Title, data); err != nil {
		return err
	}

	if book.Author == nil {
		return nil
	}
	data["AuthorName"] = book.Author.DisplayName()
	return s.sendTemplate(book.Author.Email, "author_sale", book.Title, data)
}

func (s *NotificationService) sendTemplate(to *string, name, subjectArg string, data interface{}) error {
	if to == nil || *to == "" {
		return nil
	}

	tmpl := emailTemplates[name]
	var body bytes.Buffer
	if err := tmpl.Body.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(*to, fmt.Sprintf(tmpl.Subject, subjectArg), body.String())
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.email.SMTPHost == "" {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Debug("Email not configured, skipping")
		return nil
	}

	auth := smtp.PlainAuth("", s.email.SMTPUsername, s.email.SMTPPassword, s.email.SMTPHost)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.email.SMTPHost, s.email.SMTPPort)
	if err := s.send(addr, auth, s.email.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
