// Package notify delivers transactional e-mail. Callers treat every failure as non-fatal.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"campus/internal/queue"
)

// Message is one outbound e-mail.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("notify: recipient required")
	}
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("notify: from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("notify: to: %w", err)
	}
	m.Subject(msg.Subject)
	if msg.Text != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	} else {
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	}

	opts := []mail.Option{mail.WithPort(s.cfg.Port), mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}

// LogSender only logs; used when no SMTP relay is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail not sent: smtp not configured")
	return nil
}

// MailJob is the queue message type carrying a Message.
const MailJob = "mail"

// QueueSender hands messages to the worker through a queue.
type QueueSender struct {
	q queue.Queue
}

func NewQueueSender(q queue.Queue) *QueueSender {
	return &QueueSender{q: q}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.q.Publish(ctx, queue.Message{Type: MailJob, Body: body})
}

// Deliver drains mail jobs from msgs until the channel closes.
// Failed deliveries are logged and dropped.
func Deliver(ctx context.Context, msgs <-chan queue.Message, sender Sender, log zerolog.Logger) {
	for qm := range msgs {
		if qm.Type != MailJob {
			continue
		}
		var msg Message
		if err := json.Unmarshal(qm.Body, &msg); err != nil {
			log.Warn().Err(err).Msg("drop malformed mail job")
			continue
		}
		if err := sender.Send(ctx, msg); err != nil {
			log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("mail delivery failed")
			continue
		}
		log.Debug().Str("to", msg.To).Msg("mail delivered")
	}
}
