package emailsvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"

	"github.com/enactus/membership/core"
)

type ResendService struct {
	conf   *core.Config
	client *resend.Client
	from   string
}

var _ core.EmailService = (*ResendService)(nil)

func NewResendService(conf *core.Config) *ResendService {
	from := conf.DefaultFromEmail()
	return &ResendService{
		conf:   conf,
		client: resend.NewClient(conf.Email.ResendApiKey),
		from:   from.String(),
	}
}

func (svc *ResendService) Send(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if err := msg.Render(svc.conf); err != nil {
		return "", errors.Wrap(err, "rendering email")
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		return "", errEmptyMessage
	}

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	params := &resend.SendEmailRequest{
		From:    svc.from,
		To:      to,
		Subject: msg.Subject,
		Text:    msg.TextContent,
		Html:    msg.HTMLContent,
	}
	sent, err := svc.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", errors.Wrap(err, "sending email")
	}
	return sent.Id, nil
}

// Verify lists the domains of the account, which fails on a bad api key.
func (svc *ResendService) Verify(ctx context.Context) error {
	_, err := svc.client.Domains.ListWithContext(ctx)
	return errors.Wrap(err, "verifying resend")
}
