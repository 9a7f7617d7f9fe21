package notify

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/enactus/membership/core"
)

// ErrMissingEmail is reported for a recipient without an address; the gateway is not called.
var ErrMissingEmail = errors.New("recipient has no email address")

type State string

// Outcome states. Sent and Failed are terminal; a recipient is never retried.
const (
	StatePending State = "pending"
	StateSent    State = "sent"
	StateFailed  State = "failed"
)

type (
	Recipient struct {
		Email       string `json:"email"`
		Name        string `json:"name"`
		MeetingDate string `json:"meetingDate,omitempty"`
		Reason      string `json:"reason,omitempty"`
	}

	Outcome struct {
		Recipient string `json:"email"`
		State     State  `json:"state"`
		Success   bool   `json:"success"`
		MessageID string `json:"messageId,omitempty"`
		Error     string `json:"error,omitempty"`
		Err       error  `json:"-"` // *core.NotificationError
	}

	Report struct {
		Total     int       `json:"total"`
		Succeeded int       `json:"succeeded"`
		Failed    int       `json:"failed"`
		Outcomes  []Outcome `json:"outcomes"`
	}

	// Observer is told about every terminal outcome (metrics).
	Observer interface {
		Notified(template string, success bool)
	}

	// Controller sends one notification per recipient, after the data it reports on is committed.
	// Failures are recorded in the Report and logged, never returned.
	Controller struct {
		gateway     core.EmailService
		conf        *core.Config
		logger      core.Logger
		observer    Observer
		concurrency int
		sendTimeout time.Duration
	}
)

type noopObserver struct{}

func (noopObserver) Notified(string, bool) {}

func NewController(gateway core.EmailService, conf *core.Config, logger core.Logger, observer Observer) *Controller {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Controller{
		gateway:     gateway,
		conf:        conf,
		logger:      logger,
		observer:    observer,
		concurrency: conf.Email.NotifyConcurrency,
		sendTimeout: conf.Email.SendTimeout,
	}
}

// NotifyAll sends the absence notice to every recipient.
func (c *Controller) NotifyAll(ctx context.Context, recipients []Recipient) Report {
	msgs := make([]*core.EmailMessage, 0, len(recipients))
	for _, r := range recipients {
		msgs = append(msgs, absenceMessage(c.conf, r))
	}
	return c.fanOut(ctx, absenceTemplate, msgs)
}

// NotifyAgenda sends the agenda notice of one event to every recipient.
func (c *Controller) NotifyAgenda(ctx context.Context, notice AgendaNotice, recipients []Recipient) Report {
	msgs := make([]*core.EmailMessage, 0, len(recipients))
	for _, r := range recipients {
		msgs = append(msgs, agendaMessage(c.conf, notice, r))
	}
	return c.fanOut(ctx, agendaTemplate, msgs)
}

// Verify checks that the gateway is reachable.
func (c *Controller) Verify(ctx context.Context) error {
	return c.gateway.Verify(ctx)
}

// fanOut runs sequentially unless a concurrency above 1 is configured.
// Outcomes keep the order of msgs either way.
func (c *Controller) fanOut(ctx context.Context, tmpl string, msgs []*core.EmailMessage) Report {
	outcomes := make([]Outcome, len(msgs))
	for i, msg := range msgs {
		outcomes[i] = Outcome{Recipient: msg.Recipient(), State: StatePending}
	}

	if c.concurrency <= 1 {
		for i, msg := range msgs {
			outcomes[i] = c.send(ctx, tmpl, msg)
		}
		return newReport(outcomes)
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, msg := range msgs {
		i, msg := i, msg
		g.Go(func() error {
			outcomes[i] = c.send(ctx, tmpl, msg)
			return nil // one failure must not cancel the others
		})
	}
	_ = g.Wait()
	return newReport(outcomes)
}

// send makes exactly one gateway call, unless ctx is already done or there is no address.
func (c *Controller) send(ctx context.Context, tmpl string, msg *core.EmailMessage) Outcome {
	out := Outcome{Recipient: msg.Recipient(), State: StatePending}
	if err := ctx.Err(); err != nil {
		return c.fail(tmpl, out, err)
	}
	if out.Recipient == "" {
		return c.fail(tmpl, out, ErrMissingEmail)
	}

	sendCtx := ctx
	if c.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, c.sendTimeout)
		defer cancel()
	}

	id, err := c.gateway.Send(sendCtx, msg)
	if err != nil {
		return c.fail(tmpl, out, err)
	}
	out.State = StateSent
	out.Success = true
	out.MessageID = id
	c.observer.Notified(tmpl, true)
	return out
}

func (c *Controller) fail(tmpl string, out Outcome, err error) Outcome {
	nErr := core.NewNotificationError(out.Recipient, err)
	c.logger.Warn(nErr.Error(), nErr, map[string]interface{}{"template": tmpl})
	c.observer.Notified(tmpl, false)

	out.State = StateFailed
	out.Error = err.Error()
	out.Err = nErr
	return out
}

func newReport(outcomes []Outcome) Report {
	rep := Report{Total: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Success {
			rep.Succeeded++
		} else {
			rep.Failed++
		}
	}
	return rep
}
