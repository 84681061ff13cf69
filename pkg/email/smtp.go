package email

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/platinummonkey/selfservice/pkg/async"
	"github.com/sirupsen/logrus"
)

// SendFunc delivers a raw message; it has the signature of smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig configures SMTP delivery
type SMTPConfig struct {
	Addr     string
	Username string
	Password string
	Workers  int
	Queue    int
	Timeout  time.Duration
}

// SMTPEmailer delivers messages over SMTP from a worker pool
type SMTPEmailer struct {
	addr   string
	auth   smtp.Auth
	send   SendFunc
	pool   *async.WorkerPool
	logger *logrus.Logger
	now    func() time.Time
}

// NewSMTPEmailer starts an emailer. Close it to drain queued messages.
func NewSMTPEmailer(ctx context.Context, cfg SMTPConfig, logger *logrus.Logger) *SMTPEmailer {
	return NewSMTPEmailerWithSender(ctx, cfg, smtp.SendMail, logger)
}

// NewSMTPEmailerWithSender starts an emailer delivering through send
func NewSMTPEmailerWithSender(ctx context.Context, cfg SMTPConfig, send SendFunc, logger *logrus.Logger) *SMTPEmailer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 100
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		host, _, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			host = cfg.Addr
		}
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}

	return &SMTPEmailer{
		addr:   cfg.Addr,
		auth:   auth,
		send:   send,
		pool:   async.NewWorkerPool(ctx, cfg.Workers, cfg.Queue, "administration mail", cfg.Timeout),
		logger: logger,
		now:    time.Now,
	}
}

// SendAsync validates msg and queues it for delivery
func (e *SMTPEmailer) SendAsync(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return e.pool.Submit(func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.send(e.addr, e.auth, msg.From, msg.To, e.format(msg)); err != nil {
			return fmt.Errorf("failed to send %q: %w", msg.Subject, err)
		}
		e.logger.WithFields(logrus.Fields{
			"subject":    msg.Subject,
			"recipients": len(msg.To),
		}).Info("Sent administration mail")
		return nil
	})
}

// Close stops accepting messages and waits for queued ones to be delivered
func (e *SMTPEmailer) Close(timeout time.Duration) error {
	return e.pool.Shutdown(timeout)
}

func (e *SMTPEmailer) format(msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return buf.Bytes()
}
