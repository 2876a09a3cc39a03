package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/config"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// ChannelDispatcher routes one-time codes to the email or SMS transport.
type ChannelDispatcher struct {
	email *SMTPCodeSender
	sms   *HTTPSMSSender
}

func NewChannelDispatcher(email *SMTPCodeSender, sms *HTTPSMSSender) *ChannelDispatcher {
	return &ChannelDispatcher{email: email, sms: sms}
}

func (d *ChannelDispatcher) SendCode(ctx context.Context, channel otp.Channel, target, code string, purpose otp.Purpose) error {
	switch channel {
	case otp.ChannelEmail:
		return d.email.SendCode(ctx, target, code, purpose)
	case otp.ChannelSMS:
		return d.sms.SendCode(ctx, target, code, purpose)
	default:
		return fmt.Errorf("unknown channel: %s", channel)
	}
}

// SMTPCodeSender delivers one-time codes over SMTP.
type SMTPCodeSender struct {
	config config.EmailConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

func NewSMTPCodeSender(cfg config.EmailConfig, log logger.Interface) *SMTPCodeSender {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	return &SMTPCodeSender{
		config: cfg,
		dialer: dialer,
		logger: log,
	}
}

func (s *SMTPCodeSender) SendCode(ctx context.Context, to, code string, purpose otp.Purpose) error {
	subject, intro := codeCopy(purpose)

	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>%s</p>
			<p style="font-size: 24px; letter-spacing: 4px;"><strong>%s</strong></p>
			<p>The code expires in a few minutes. If you didn't request it, you can ignore this message.</p>
		</body>
		</html>
	`, intro, code)

	plainBody := fmt.Sprintf(`%s

%s

The code expires in a few minutes. If you didn't request it, you can ignore this message.
`, intro, code)

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func codeCopy(purpose otp.Purpose) (subject, intro string) {
	switch purpose {
	case otp.PurposeRegistration:
		return "Confirm your sign-up", "Use this code to confirm your sign-up:"
	case otp.PurposeRecoveryEmail, otp.PurposeRecoverySMS:
		return "Your account recovery code", "Use this code to continue recovering your account:"
	case otp.PurposeStepUp:
		return "Confirm this action", "Use this code to confirm the action you started:"
	default:
		return "Your sign-in code", "Use this code to sign in:"
	}
}

// HTTPSMSSender delivers one-time codes through an SMS gateway API.
type HTTPSMSSender struct {
	config config.SMSConfig
	client *http.Client
	logger logger.Interface
}

func NewHTTPSMSSender(cfg config.SMSConfig, log logger.Interface) *HTTPSMSSender {
	return &HTTPSMSSender{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log,
	}
}

type smsMessage struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

func (s *HTTPSMSSender) SendCode(ctx context.Context, to, code string, purpose otp.Purpose) error {
	_, intro := codeCopy(purpose)

	payload, err := json.Marshal(smsMessage{
		To:   to,
		From: s.config.Sender,
		Body: fmt.Sprintf("%s %s", intro, code),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.ProviderURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sms provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
