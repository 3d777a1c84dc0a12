package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/mentorlink/mentor-api/internal/config"
)

type Service interface {
	SendVerification(ctx context.Context, to string, token string) error
	SendBookingRequested(ctx context.Context, to string, menteeName string, start time.Time) error
	SendBookingConfirmed(ctx context.Context, to string, mentorName string, start time.Time, joinLink string) error
	SendBookingCancelled(ctx context.Context, to string, start time.Time, reason string) error
	SendSessionReminder(ctx context.Context, to string, start time.Time, joinLink string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.EmailConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpService) SendVerification(ctx context.Context, to string, token string) error {
	body := fmt.Sprintf("Welcome! Confirm your email address with this token: %s", token)
	return s.send(to, "Confirm your email", body)
}

func (s *smtpService) SendBookingRequested(ctx context.Context, to string, menteeName string, start time.Time) error {
	body := fmt.Sprintf("%s requested a session on %s. Confirm or decline it from your dashboard.",
		menteeName, start.Format(time.RFC1123))
	return s.send(to, "New session request", body)
}

func (s *smtpService) SendBookingConfirmed(ctx context.Context, to string, mentorName string, start time.Time, joinLink string) error {
	body := fmt.Sprintf("Your session with %s on %s is confirmed.", mentorName, start.Format(time.RFC1123))
	if joinLink != "" {
		body += fmt.Sprintf(" Join link: %s", joinLink)
	}
	return s.send(to, "Session confirmed", body)
}

func (s *smtpService) SendBookingCancelled(ctx context.Context, to string, start time.Time, reason string) error {
	body := fmt.Sprintf("The session scheduled for %s was cancelled. Reason: %s",
		start.Format(time.RFC1123), reason)
	return s.send(to, "Session cancelled", body)
}

func (s *smtpService) SendSessionReminder(ctx context.Context, to string, start time.Time, joinLink string) error {
	body := fmt.Sprintf("Reminder: your session starts at %s.", start.Format(time.RFC1123))
	if joinLink != "" {
		body += fmt.Sprintf(" Join link: %s", joinLink)
	}
	return s.send(to, "Upcoming session reminder", body)
}
