package emailsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/enactus/membership/core"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
	sendgridScopes   = "/v3/scopes"
)

type SendgridService struct {
	conf *core.Config
	key  string
	from *sgmail.Email
}

var _ core.EmailService = (*SendgridService)(nil)

func NewSendgridService(conf *core.Config) *SendgridService {
	from := conf.DefaultFromEmail()
	return &SendgridService{
		conf: conf,
		key:  conf.Email.SendgridApiKey,
		from: sgmail.NewEmail(from.Name, from.Address),
	}
}

func (svc *SendgridService) prepare(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(getSGEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (svc *SendgridService) Send(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if err := msg.Render(svc.conf); err != nil {
		return "", errors.Wrap(err, "rendering email")
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		return "", errEmptyMessage
	}

	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "sending email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return firstHeader(res.Headers, "X-Message-Id"), nil
}

// Verify checks that the api key is accepted.
func (svc *SendgridService) Verify(ctx context.Context) error {
	req := sendgrid.GetRequest(svc.key, sendgridScopes, sendgridHost)
	req.Method = http.MethodGet

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "verifying sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("verifying sendgrid - status: %d", res.StatusCode)
	}
	return nil
}

func firstHeader(headers map[string][]string, key string) string {
	if vals := http.Header(headers).Values(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
