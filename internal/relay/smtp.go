package relay

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/shatami1/Comcare/internal/config"
	"github.com/shatami1/Comcare/internal/constants"
)

// SMTPChannel 通过邮件投递表单通知
type SMTPChannel struct {
	cfg config.EmailConfig
}

// NewSMTPChannel 创建邮件通道
func NewSMTPChannel(cfg config.EmailConfig) *SMTPChannel {
	return &SMTPChannel{cfg: cfg}
}

// Name 通道名称
func (c *SMTPChannel) Name() string {
	return constants.RelayChannelEmail
}

// Send 将通知发送到配置的收件人
func (c *SMTPChannel) Send(ctx context.Context, msg Message) error {
	return c.SendHTML(ctx, c.cfg.To, msg.Subject, RenderHTML(msg))
}

// SendHTML 发送一封 HTML 邮件
func (c *SMTPChannel) SendHTML(ctx context.Context, to, subject, body string) error {
	if !c.cfg.Enabled || c.cfg.Host == "" || c.cfg.Port == 0 || c.cfg.From == "" {
		return ErrChannelNotConfigured
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return ErrInvalidRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := buildFromAddress(c.cfg.From, c.cfg.FromName)
	msg := buildEmailMessage(from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	var auth smtp.Auth
	if c.cfg.Username != "" || c.cfg.Password != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	var err error
	switch {
	case c.cfg.UseSSL:
		err = sendMailWithSSL(ctx, addr, auth, c.cfg.Host, c.cfg.From, []string{to}, []byte(msg))
	case c.cfg.UseTLS:
		err = sendMailWithStartTLS(ctx, addr, auth, c.cfg.Host, c.cfg.From, []string{to}, []byte(msg))
	default:
		err = sendMailPlain(ctx, addr, auth, c.cfg.Host, c.cfg.From, []string{to}, []byte(msg))
	}
	return normalizeEmailSendError(err)
}

// RenderHTML 渲染邮件正文
func RenderHTML(msg Message) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("<h3>%s</h3>\n", html.EscapeString(msg.Title)))
	writeHTMLFields(&buf, msg.Fields)
	if msg.Section != nil {
		buf.WriteString(fmt.Sprintf("<p><strong>%s:</strong></p>\n", html.EscapeString(msg.Section.Name)))
		buf.WriteString(fmt.Sprintf("<p>%s</p>\n", htmlMultiline(msg.Section.Value)))
	}
	writeHTMLFields(&buf, msg.Trailer)
	buf.WriteString("<hr>\n")
	buf.WriteString(fmt.Sprintf("<p><small>Submitted at: %s</small></p>\n", html.EscapeString(msg.Submitted())))
	return buf.String()
}

func writeHTMLFields(buf *strings.Builder, fields []Field) {
	for _, field := range fields {
		buf.WriteString(fmt.Sprintf("<p><strong>%s:</strong> %s</p>\n",
			html.EscapeString(field.Name), html.EscapeString(field.Value)))
	}
}

func htmlMultiline(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(value), "\n", "<br>")
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func dialSMTP(ctx context.Context, addr string) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, nil
}

func sendMailWithSSL(ctx context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	raw, err := dialSMTP(ctx, addr)
	if err != nil {
		return err
	}
	conn := tls.Client(raw, &tls.Config{ServerName: host})
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(ctx context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := dialSMTP(ctx, addr)
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}
	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(ctx context.Context, addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := dialSMTP(ctx, addr)
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func authenticate(client *smtp.Client, auth smtp.Auth) error {
	if auth == nil {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); ok {
		return client.Auth(auth)
	}
	return nil
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return fmt.Errorf("%w: %v", ErrRecipientRejected, err)
	}
	return fmt.Errorf("%w: email: %v", ErrDeliveryFailed, err)
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	keywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"mailbox unavailable",
	}
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return strings.HasPrefix(message, "550 ") || strings.HasPrefix(message, "553 ")
}
