package service

import (
	"errors"
	"fmt"
	"html"

	"chatrelay/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("email service disabled")

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService 邮件服务
type EmailService struct {
	cfg    *config.EmailConfig
	sender mailSender
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Enabled 是否启用
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// SendWelcomeEmail 注册成功后发送欢迎邮件
func (s *EmailService) SendWelcomeEmail(toEmail, name string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	return s.sendEmail(toEmail, "Welcome to chatrelay", s.generateWelcomeEmailBody(name))
}

// generateWelcomeEmailBody 生成欢迎邮件内容，用户名需转义
func (s *EmailService) generateWelcomeEmailBody(name string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: #2563eb; color: white; padding: 30px; text-align: center; }
        .content { padding: 40px 30px; color: #333; line-height: 1.8; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>chatrelay</h1></div>
        <div class="content">
            <p>Hi %s,</p>
            <p>Your account has been created. You can now sign in and start chatting with the assistant.</p>
        </div>
        <div class="footer">This is an automated message, please do not reply.</div>
    </div>
</body>
</html>
`, html.EscapeString(name))
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
