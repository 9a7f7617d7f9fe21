package emailsvc

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
)

// ErrRejected is returned by ConsoleServiceMock for the recipients it was told to fail.
var ErrRejected = errors.New("recipient rejected by gateway")

// ConsoleService prints the messages to stdout instead of sending them (DEV).
type ConsoleService struct {
	conf          *core.Config
	from          mail.Address
	std           *log.Logger
	disableOutput bool
}

var _ core.EmailService = (*ConsoleService)(nil)

func NewConsoleService(conf *core.Config) *ConsoleService {
	return &ConsoleService{
		conf: conf,
		from: conf.DefaultFromEmail(),
		std:  log.New(os.Stdout, "EMAIL : ", log.LstdFlags),
	}
}

func (svc *ConsoleService) Send(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := msg.Render(svc.conf); err != nil {
		return "", errors.Wrap(err, "rendering email")
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		return "", errEmptyMessage
	}
	if !svc.disableOutput {
		svc.std.Println(svc.format(msg))
	}
	return "console-" + uuid.NewString(), nil
}

func (svc *ConsoleService) Verify(ctx context.Context) error {
	return ctx.Err()
}

func (svc *ConsoleService) format(msg *core.EmailMessage) string {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())

	if w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}}); err == nil {
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)
	}
	if msg.HTMLContent != "" {
		if w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}}); err == nil {
			_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
		}
	}
	_ = altW.Close()
	return body.String()
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock records the messages it is asked to send (TEST).
// Sends are synchronous and produce no output.
type ConsoleServiceMock struct {
	ConsoleService

	mu        sync.Mutex
	sent      []core.EmailMessage
	calls     int
	failFor   map[string]bool
	verifyErr error
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		ConsoleService: ConsoleService{
			conf:          conf,
			from:          conf.DefaultFromEmail(),
			disableOutput: true,
		},
		failFor: make(map[string]bool),
	}
}

func (svc *ConsoleServiceMock) Send(ctx context.Context, msg *core.EmailMessage) (string, error) {
	svc.mu.Lock()
	svc.calls++
	fail := svc.failFor[strings.ToLower(msg.Recipient())]
	svc.mu.Unlock()

	if fail {
		return "", ErrRejected
	}
	id, err := svc.ConsoleService.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()
	return id, nil
}

func (svc *ConsoleServiceMock) Verify(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.verifyErr != nil {
		return svc.verifyErr
	}
	return ctx.Err()
}

// FailFor makes every later Send to one of these addresses fail with ErrRejected.
func (svc *ConsoleServiceMock) FailFor(addrs ...string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, a := range addrs {
		svc.failFor[strings.ToLower(a)] = true
	}
}

// FailVerify makes Verify return err; nil restores it.
func (svc *ConsoleServiceMock) FailVerify(err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.verifyErr = err
}

// SentMessages returns a copy of the successfully sent messages, in send order.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	msgs := make([]core.EmailMessage, len(svc.sent))
	copy(msgs, svc.sent)
	return msgs
}

// Calls is the number of gateway calls, failed ones included.
func (svc *ConsoleServiceMock) Calls() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.calls
}

// Reset forgets the sent messages, the call count and the failures.
func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
	svc.calls = 0
	svc.failFor = make(map[string]bool)
	svc.verifyErr = nil
}
