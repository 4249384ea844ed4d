package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/lib/smtp"
	"github.com/myalgostack/license-server/internal/models"
)

// SenderService отправляет письма по событиям из очереди уведомлений.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendTradeClosedNotification отправляет письмо о закрытой сделке.
func (s *SenderService) SendTradeClosedNotification(body []byte) error {
	var event models.TradeClosedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal trade closed event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	profit := "n/a"
	if event.Profit != nil {
		profit = fmt.Sprintf("%.2f", *event.Profit)
	}

	to := []string{event.Email}
	subject := fmt.Sprintf("Trade closed: %s #%d", event.Symbol, event.Ticket)
	bodyText := fmt.Sprintf("Hello %s,\n\nYour EA closed trade #%d on %s (account %s).\nProfit: %s.\n\nSee the full history in your dashboard.",
		event.Username, event.Ticket, event.Symbol, event.AccountNumber, profit)

	return s.sendEmail(to, subject, bodyText)
}

// SendWelcomeNotification отправляет приветственное письмо новому
// пользователю с его реферальным кодом.
func (s *SenderService) SendWelcomeNotification(body []byte) error {
	var event models.UserRegisteredEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal user registered event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{event.Email}
	subject := "Welcome to My Algo Stack"
	bodyText := fmt.Sprintf("Hello %s,\n\nYour %d-day free trial has started. Link your trading account and attach your EA to begin.\nYour referral code: %s.\n\nHappy trading!",
		event.Username, event.TrialDays, event.ReferralCode)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
