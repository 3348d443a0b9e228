// Package mailer 通过 SMTP 发送纯文本邮件。
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gomail/gomail"

	"sportconnect-go/internal/config"
)

const defaultTimeout = 15 * time.Second

// ErrNotConfigured 表示没有配置 SMTP 账号，无法发送邮件。
var ErrNotConfigured = errors.New("mailer: smtp is not configured")

// Sender 定义了发送邮件的接口。
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender 是基于 gomail 的 Sender 实现。
type SMTPSender struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

// NewSMTPSender 创建一个新的 SMTPSender。
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &SMTPSender{cfg: cfg, timeout: timeout}
}

// Configured 报告 host、账号和密码是否齐全。
func (s *SMTPSender) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != ""
}

func (s *SMTPSender) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.Username
}

// Send 发送一封纯文本邮件，超过超时时间或 ctx 结束时返回错误。
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("mailer: empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from())
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	errChan := make(chan error, 1)
	go func() {
		errChan <- d.DialAndSend(m)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("mailer: failed to send email to %s: %w", to, err)
		}
		return nil
	case <-time.After(s.timeout):
		return fmt.Errorf("mailer: timeout sending email to %s", to)
	case <-ctx.Done():
		return ctx.Err()
	}
}
