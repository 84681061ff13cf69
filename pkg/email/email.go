package email

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRecipients is returned for messages without a To address
	ErrNoRecipients = errors.New("message has no recipients")

	// ErrNoSender is returned for messages without a From address
	ErrNoSender = errors.New("message has no sender")
)

// Message is a plain text mail
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Validate checks that the message can be delivered
func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return ErrNoSender
	}
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range m.To {
		if !strings.Contains(to, "@") {
			return fmt.Errorf("invalid recipient %q", to)
		}
	}
	return nil
}

// Emailer hands messages off for background delivery
type Emailer interface {
	SendAsync(msg Message) error
}

// Service sends mail to a fixed list of administrators
type Service struct {
	admins  []string
	emailer Emailer
}

// NewService creates a service for the comma separated adminEmails list
func NewService(adminEmails string, emailer Emailer) *Service {
	return &Service{
		admins:  ParseAddressList(adminEmails),
		emailer: emailer,
	}
}

// Admins returns the administrator addresses
func (s *Service) Admins() []string {
	out := make([]string, len(s.admins))
	copy(out, s.admins)
	return out
}

// SendMail queues a message from from to all administrators
func (s *Service) SendMail(from, subject, body string) error {
	return s.emailer.SendAsync(Message{
		From:    from,
		To:      s.Admins(),
		Subject: subject,
		Body:    body,
	})
}

// ParseAddressList splits a comma separated list, dropping blanks
func ParseAddressList(list string) []string {
	addrs := []string{}
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			addrs = append(addrs, part)
		}
	}
	return addrs
}
