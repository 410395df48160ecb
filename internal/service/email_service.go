package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"mime"
	"net/mail"
	"net/smtp"
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const siteName = "The Plan Beyond"

// EmailSender 是认证流程使用的外发邮件端口
type EmailSender interface {
	SendOTP(ctx context.Context, toEmail, code string, purpose consts.OTPPurpose, ttl time.Duration) error
	SendAmbassadorInvite(ctx context.Context, toEmail, inviterEmail, acceptURL string) error
}

type EmailService struct {
	cfg config.SMTPConfig
	log zerolog.Logger
}

func NewEmailService(cfg config.Config, log zerolog.Logger) *EmailService {
	return &EmailService{cfg: cfg.SMTP, log: log}
}

func (s *EmailService) SendOTP(ctx context.Context, toEmail, code string, purpose consts.OTPPurpose, ttl time.Duration) error {
	subject, body := renderOTPMail(code, purpose, ttl)
	return s.send(ctx, toEmail, subject, body)
}

func (s *EmailService) SendAmbassadorInvite(ctx context.Context, toEmail, inviterEmail, acceptURL string) error {
	subject := fmt.Sprintf("%s - Ambassador invitation", siteName)
	body := fmt.Sprintf(`
<h2>You have been invited as an ambassador</h2>
<p>%s has named you as an ambassador on %s.</p>
<p>Please accept the request: <a href="%s">%s</a></p>
`, html.EscapeString(inviterEmail), siteName, acceptURL, acceptURL)
	return s.send(ctx, toEmail, subject, body)
}

func renderOTPMail(code string, purpose consts.OTPPurpose, ttl time.Duration) (string, string) {
	minutes := int(ttl / time.Minute)
	var subject, intro string
	switch purpose {
	case consts.OTPPurposePasswordReset:
		subject = "Password reset OTP"
		intro = "Use the code below to reset your password."
	case consts.OTPPurposeLogin, consts.OTPPurposeAmbassadorLogin:
		subject = "Login verification OTP"
		intro = "Use the code below to finish signing in."
	default:
		subject = "Verify your email"
		intro = "Use the code below to verify your email address."
	}
	body := fmt.Sprintf(`
<h2>%s</h2>
<p>%s</p>
<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
<p>This code is valid for %d minutes.</p>
`, siteName, intro, code, minutes)
	return fmt.Sprintf("%s - %s", siteName, subject), body
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, body string) error {
	if s.cfg.Host == "" {
		s.log.Warn().Str("subject", subject).Msg("⚠️ SMTP 未配置，跳过邮件发送")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	fromHeader, fromAddr, err := parseAddressForHeader(s.cfg.From)
	if err != nil {
		return err
	}
	toHeader, toAddr, err := parseAddressForHeader(toEmail)
	if err != nil {
		return err
	}

	msg, err := buildEmailMessage(fromHeader, toHeader, subject, body)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	// 如果配置了 SSL (通常是端口 465)，需要使用 tls 连接
	if s.cfg.SSL {
		return s.sendMailWithSSL(addr, auth, fromAddr, []string{toAddr}, msg)
	}

	// 默认使用 STARTTLS (通常是端口 587 或 25)
	return smtp.SendMail(addr, auth, fromAddr, []string{toAddr}, msg)
}

func (s *EmailService) sendMailWithSSL(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		s.log.Error().Err(err).Msg("[Email] TLS 连接失败")
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		s.log.Error().Err(err).Msg("[Email] 创建 SMTP 客户端失败")
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err = client.Auth(auth); err != nil {
				s.log.Error().Err(err).Msg("[Email] SMTP认证失败")
				return err
			}
		}
	}

	if err = client.Mail(from); err != nil {
		s.log.Error().Err(err).Msg("[Email] MAIL FROM 命令失败")
		return err
	}
	for _, rcpt := range to {
		// 不记录具体邮箱地址
		if err = client.Rcpt(rcpt); err != nil {
			s.log.Error().Err(err).Msg("[Email] RCPT TO 命令失败")
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		s.log.Error().Err(err).Msg("[Email] DATA 命令失败")
		return err
	}
	if _, err = w.Write(msg); err != nil {
		s.log.Error().Err(err).Msg("[Email] 写入邮件内容失败")
		return err
	}
	if err = w.Close(); err != nil {
		s.log.Error().Err(err).Msg("[Email] 关闭 DATA 失败")
		return err
	}

	return client.Quit()
}

func parseAddressForHeader(input string) (string, string, error) {
	if err := rejectCRLF(input, "address"); err != nil {
		return "", "", err
	}

	addr, err := mail.ParseAddress(input)
	if err != nil {
		return "", "", err
	}

	headerValue := addr.String()
	if err := rejectCRLF(headerValue, "address"); err != nil {
		return "", "", err
	}

	return headerValue, addr.Address, nil
}

func buildEmailMessage(fromHeader, toHeader, subject, body string) ([]byte, error) {
	if err := rejectCRLF(subject, "subject"); err != nil {
		return nil, err
	}
	encodedSubject := mime.BEncoding.Encode("UTF-8", subject)
	dateStr := time.Now().Format(time.RFC1123Z)

	header := fmt.Sprintf("Date: %s\r\nFrom: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		dateStr, fromHeader, toHeader, encodedSubject)
	return []byte(header + body), nil
}

func rejectCRLF(value string, field string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("invalid %s header: CRLF not allowed", field)
	}
	return nil
}
