package notify

import (
	"net/mail"
	"time"

	"github.com/go-playground/locales/fr"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/attendance"
)

const (
	absenceTemplate = "absence"
	agendaTemplate  = "agenda"

	absenceSubject = "⚠️ Notification d'Absence - "
	agendaSubject  = "📅 Nouvel Événement Ajouté à l'Agenda - "
)

var (
	frLocale = fr.New()

	// accepted eventDate layouts, most precise first
	eventDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", core.CalendarDateLayout}
)

// AgendaNotice describes the event announced by the agenda notice.
type AgendaNotice struct {
	Title       string `json:"agendaTitle"`
	Description string `json:"agendaDescription"`
	EventDate   string `json:"eventDate"`
}

type (
	absenceData struct {
		MemberName  string
		MeetingDate string
		Reason      string
	}

	agendaData struct {
		MemberName  string
		Title       string
		Description string
		EventDate   string
	}
)

// RecipientsFromAbsences returns one recipient per recorded absence, in the same order.
func RecipientsFromAbsences(absences []attendance.Absence) []Recipient {
	recipients := make([]Recipient, 0, len(absences))
	for _, abs := range absences {
		recipients = append(recipients, Recipient{
			Email:       abs.UserEmail,
			Name:        abs.UserName,
			MeetingDate: abs.MeetingDate,
			Reason:      abs.Reason,
		})
	}
	return recipients
}

func absenceMessage(conf *core.Config, r Recipient) *core.EmailMessage {
	reason := core.CleanString(r.Reason)
	if reason == "" {
		reason = attendance.DefaultReason
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: r.Name, Address: r.Email}},
		Subject:      absenceSubject + conf.AppName,
		TemplateName: absenceTemplate,
		TemplateData: absenceData{
			MemberName:  r.Name,
			MeetingDate: FormatMeetingDate(r.MeetingDate),
			Reason:      reason,
		},
	}
}

func agendaMessage(conf *core.Config, notice AgendaNotice, r Recipient) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: r.Name, Address: r.Email}},
		Subject:      agendaSubject + conf.AppName,
		TemplateName: agendaTemplate,
		TemplateData: agendaData{
			MemberName:  r.Name,
			Title:       notice.Title,
			Description: notice.Description,
			EventDate:   FormatEventDate(notice.EventDate),
		},
	}
}

// FormatMeetingDate formats a meeting date as a French long date, e.g. "dimanche 10 mars 2024".
// Unparsable input is returned as is.
func FormatMeetingDate(date string) string {
	t, err := core.ParseCalendarDate(date)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, core.CleanString(date)); err != nil {
			return date
		}
	}
	return frLocale.FmtDateFull(t)
}

// FormatEventDate formats an event date as a French long date, followed by the time when it has one.
func FormatEventDate(date string) string {
	date = core.CleanString(date)
	for _, layout := range eventDateLayouts {
		t, err := time.Parse(layout, date)
		if err != nil {
			continue
		}
		if layout == core.CalendarDateLayout {
			return frLocale.FmtDateFull(t)
		}
		return frLocale.FmtDateFull(t) + " à " + frLocale.FmtTimeShort(t)
	}
	return date
}
