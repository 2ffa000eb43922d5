package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/campus-events/server/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service sends transactional email through the Resend API. When disabled it
// logs the would-be send and returns nil so callers never branch on the flag.
type Service struct {
	config       config.EmailConfig
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
}

// AnnouncementData renders the event announcement sent to the audience when an
// event is approved.
type AnnouncementData struct {
	EventTitle  string
	Date        string
	Time        string
	Venue       string
	Description string
	Organizer   string
	CurrentYear int
}

// DecisionData renders the approval or rejection notice sent to the organizer.
type DecisionData struct {
	EventTitle  string
	Approved    bool
	Reason      string
	CurrentYear int
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	service := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		service.resendClient = resend.NewClient(cfg.APIKey)
	}
	return service, nil
}

// SendAnnouncement sends the approved-event announcement to a single recipient.
func (s *Service) SendAnnouncement(ctx context.Context, to string, data AnnouncementData) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("event", data.EventTitle).
			Msg("email service disabled, skipping announcement")
		return nil
	}

	data.CurrentYear = time.Now().Year()
	htmlBody, err := s.renderTemplate("announcement.html", data)
	if err != nil {
		return fmt.Errorf("render announcement template: %w", err)
	}

	subject := fmt.Sprintf("New Event: %s", data.EventTitle)
	return s.send(ctx, to, subject, htmlBody)
}

// SendDecision notifies the organizer that their proposal was approved or
// rejected.
func (s *Service) SendDecision(ctx context.Context, to string, data DecisionData) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("event", data.EventTitle).
			Bool("approved", data.Approved).
			Msg("email service disabled, skipping decision notice")
		return nil
	}

	data.CurrentYear = time.Now().Year()
	htmlBody, err := s.renderTemplate("decision.html", data)
	if err != nil {
		return fmt.Errorf("render decision template: %w", err)
	}

	subject := fmt.Sprintf("Your event %q was approved", data.EventTitle)
	if !data.Approved {
		subject = fmt.Sprintf("Your event %q was rejected", data.EventTitle)
	}
	return s.send(ctx, to, subject, htmlBody)
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email sent")
	return nil
}

func (s *Service) renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// validateEmailAddress checks format and rejects header injection attempts.
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
