package emailsvc

import (
	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
)

// Providers
const (
	ProviderConsole  = "console"
	ProviderSMTP     = "smtp"
	ProviderSendgrid = "sendgrid"
	ProviderResend   = "resend"
)

// New returns the gateway selected by email.provider.
func New(conf *core.Config) (core.EmailService, error) {
	switch conf.Email.Provider {
	case ProviderConsole:
		return NewConsoleService(conf), nil
	case ProviderSMTP:
		if conf.SMTP.Host == "" {
			return nil, errors.New("smtp provider: smtp.host is not set")
		}
		return NewSMTPService(conf), nil
	case ProviderSendgrid:
		if conf.Email.SendgridApiKey == "" {
			return nil, errors.New("sendgrid provider: email.sendgridApiKey is not set")
		}
		return NewSendgridService(conf), nil
	case ProviderResend:
		if conf.Email.ResendApiKey == "" {
			return nil, errors.New("resend provider: email.resendApiKey is not set")
		}
		return NewResendService(conf), nil
	}
	return nil, errors.Errorf("unknown email provider %q", conf.Email.Provider)
}
