package attendance

import (
	"github.com/pkg/errors"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

var (
	errInvalidStatus = errors.New("status must be one of: present, absent, unset")
	errUnknownMember = errors.New("member is not part of the roster")
)

type Mark struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// Absentee is a member marked absent in a draft.
type Absentee struct {
	Member member.User
	Reason string
}

// Draft holds the marks of one bulk attendance session. It is never persisted
// and is not safe for concurrent use; each session owns its own Draft.
type Draft struct {
	members map[string]member.User
	order   []string
	marks   map[string]Mark
}

// NewDraft seeds every roster member to unset.
func NewDraft(roster []member.User) *Draft {
	d := &Draft{
		members: make(map[string]member.User, len(roster)),
		order:   make([]string, 0, len(roster)),
		marks:   make(map[string]Mark, len(roster)),
	}
	for _, m := range roster {
		if _, dup := d.members[m.ID]; dup {
			continue
		}
		d.members[m.ID] = m
		d.order = append(d.order, m.ID)
		d.marks[m.ID] = Mark{Status: StatusUnset}
	}
	return d
}

func (d *Draft) MarkStatus(memberID string, status Status) error {
	if !status.Valid() {
		return core.NewValidationError(errInvalidStatus, core.FieldError{Field: "status", Error: errInvalidStatus.Error()})
	}
	mark, ok := d.marks[memberID]
	if !ok {
		return core.NewValidationError(errUnknownMember, core.FieldError{Field: memberID, Error: errUnknownMember.Error()})
	}
	mark.Status = status
	d.marks[memberID] = mark
	return nil
}

// SetReason keeps free-form text; it only matters while the member is marked absent.
func (d *Draft) SetReason(memberID, text string) error {
	mark, ok := d.marks[memberID]
	if !ok {
		return core.NewValidationError(errUnknownMember, core.FieldError{Field: memberID, Error: errUnknownMember.Error()})
	}
	mark.Reason = text
	d.marks[memberID] = mark
	return nil
}

// Apply sets the status and reason of several members at once.
func (d *Draft) Apply(marks map[string]Mark) error {
	for id, mark := range marks {
		if mark.Status == "" {
			mark.Status = StatusUnset
		}
		if err := d.MarkStatus(id, mark.Status); err != nil {
			return err
		}
		if err := d.SetReason(id, mark.Reason); err != nil {
			return err
		}
	}
	return nil
}

func (d *Draft) Mark(memberID string) (Mark, bool) {
	mark, ok := d.marks[memberID]
	return mark, ok
}

func (d *Draft) Len() int { return len(d.order) }

// Reset puts every member back to unset.
func (d *Draft) Reset() {
	for id := range d.marks {
		d.marks[id] = Mark{Status: StatusUnset}
	}
}

// Absentees returns the members marked absent, in roster order.
func (d *Draft) Absentees() []Absentee {
	var abs []Absentee
	for _, id := range d.order {
		if mark := d.marks[id]; mark.Status == StatusAbsent {
			abs = append(abs, Absentee{Member: d.members[id], Reason: mark.Reason})
		}
	}
	return abs
}
