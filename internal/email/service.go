package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/gatherline/server/internal/config"
	"github.com/gatherline/server/internal/metrics"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service sends notification emails. Delivery is best effort: the Dispatch*
// methods run asynchronously with a bounded timeout and never surface errors
// to the caller.
type Service struct {
	config       config.EmailConfig
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
}

// WelcomeData holds data for the signup welcome email.
type WelcomeData struct {
	Role string
	Year int
}

// EventApprovedData holds data for the approval notification email.
type EventApprovedData struct {
	EventTitle string
	Message    string
	Year       int
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(senderAddress(cfg.From)); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	svc := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled && cfg.Provider == "resend" {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

// DispatchWelcome sends the signup welcome email in the background.
func (s *Service) DispatchWelcome(to, role string) {
	s.dispatch("welcome", to, func(ctx context.Context) error {
		return s.SendWelcome(ctx, to, role)
	})
}

// DispatchEventApproved notifies an organizer that their event went live,
// in the background.
func (s *Service) DispatchEventApproved(to, eventTitle string) {
	s.dispatch("event_approved", to, func(ctx context.Context) error {
		return s.SendEventApproved(ctx, to, eventTitle)
	})
}

// dispatch runs send in its own goroutine under the configured timeout so a
// stalled SMTP peer cannot pin the request path.
func (s *Service) dispatch(kind, to string, send func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.SendTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			metrics.EmailsTotal.WithLabelValues("failed").Inc()
			s.logger.Error().Err(err).Str("kind", kind).Str("to", to).Msg("email delivery failed")
		}
	}()
}

// SendWelcome sends the signup welcome email synchronously.
func (s *Service) SendWelcome(ctx context.Context, to, role string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		metrics.EmailsTotal.WithLabelValues("skipped").Inc()
		s.logger.Info().Str("to", to).Msg("email service disabled, skipping welcome email")
		return nil
	}

	htmlBody, err := s.renderTemplate("welcome.html", WelcomeData{
		Role: role,
		Year: time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}

	if err := s.send(ctx, to, "Welcome to Gatherline!", htmlBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	metrics.EmailsTotal.WithLabelValues("sent").Inc()
	s.logger.Info().Str("to", to).Msg("welcome email sent")
	return nil
}

// SendEventApproved sends the approval notification synchronously.
func (s *Service) SendEventApproved(ctx context.Context, to, eventTitle string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		metrics.EmailsTotal.WithLabelValues("skipped").Inc()
		s.logger.Info().Str("to", to).Str("event", eventTitle).Msg("email service disabled, skipping approval email")
		return nil
	}

	htmlBody, err := s.renderTemplate("event_approved.html", EventApprovedData{
		EventTitle: eventTitle,
		Message:    "Your event has been approved and is now visible to all users!",
		Year:       time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render approval template: %w", err)
	}

	subject := fmt.Sprintf("Event Update: %s", eventTitle)
	if err := s.send(ctx, to, subject, htmlBody); err != nil {
		return fmt.Errorf("failed to send approval email: %w", err)
	}

	metrics.EmailsTotal.WithLabelValues("sent").Inc()
	s.logger.Info().Str("to", to).Str("event", eventTitle).Msg("approval email sent")
	return nil
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	if s.config.Provider == "resend" {
		return s.sendViaResend(ctx, to, subject, htmlBody)
	}
	return s.sendViaSMTP(ctx, to, subject, htmlBody)
}

func (s *Service) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// validateEmailAddress validates format and rejects header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

// senderAddress strips an optional display name ("Name <a@b>") down to a@b.
func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return from
}
