package emailsvc

import (
	"context"
	"crypto/tls"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/enactus/membership/core"
)

var errEmptyMessage = errors.New("email has no recipient or no content")

// SMTPService sends through an SMTP relay.
// gomail has no context support, so ctx is only checked before dialing.
type SMTPService struct {
	conf   *core.Config
	dialer *gomail.Dialer
}

var _ core.EmailService = (*SMTPService)(nil)

func NewSMTPService(conf *core.Config) *SMTPService {
	d := gomail.NewDialer(conf.SMTP.Host, conf.SMTP.Port, conf.SMTP.User, conf.SMTP.Password)
	d.SSL = conf.SMTP.Secure
	if !conf.SMTP.Secure {
		d.TLSConfig = &tls.Config{ServerName: conf.SMTP.Host}
	}
	return &SMTPService{conf: conf, dialer: d}
}

func (svc *SMTPService) prepare(msg *core.EmailMessage) (*gomail.Message, string) {
	from := svc.conf.DefaultFromEmail()
	msgID := "<" + uuid.NewString() + "@" + svc.conf.SMTP.Host + ">"

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from.Address, from.Name)
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, m.FormatAddress(addr.Address, addr.Name))
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", msgID)
	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}
	return m, msgID
}

func (svc *SMTPService) Send(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if err := msg.Render(svc.conf); err != nil {
		return "", errors.Wrap(err, "rendering email")
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		return "", errEmptyMessage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m, msgID := svc.prepare(msg)
	if err := svc.dialer.DialAndSend(m); err != nil {
		return "", errors.Wrap(err, "sending email")
	}
	return msgID, nil
}

// Verify opens (and closes) an authenticated connection to the relay.
func (svc *SMTPService) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sc, err := svc.dialer.Dial()
	if err != nil {
		return errors.Wrap(err, "dialing smtp relay")
	}
	return errors.Wrap(sc.Close(), "closing smtp connection")
}
