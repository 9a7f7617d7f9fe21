package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/member"
	inmemdb "github.com/enactus/membership/storage/database/inmem"
)

// NewStore returns an empty in-memory document store.
func NewStore(t *testing.T) *inmemdb.DB {
	t.Helper()
	return inmemdb.Open()
}

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	member.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo member.Repository,
	name, email, pwd, role, status string,
	createdAt ...time.Time,
) member.User {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Millisecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Millisecond)
	}
	usr := member.User{
		DisplayName:   name,
		Email:         email,
		Role:          role,
		AccountStatus: status,
		BureauRole:    member.DefaultBureauRole,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	if status == member.StatusApproved {
		usr.ApprovedAt = &tstamp
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAbsence(t *testing.T, repo attendance.Repository, usr member.User, meetingDate, reason string) attendance.Absence {
	t.Helper()
	abs, err := repo.InsertAbsence(context.Background(), attendance.Absence{
		UserID:         usr.ID,
		UserName:       usr.Name(),
		UserEmail:      usr.Email,
		UserBureauRole: usr.BureauRole,
		MeetingDate:    meetingDate,
		Reason:         reason,
		MarkedBy:       "admin",
		MarkedByName:   "Admin",
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		t.Fatalf("CreateAbsence() failed: %v", err)
	}
	return abs
}

// LogEntry is one call recorded by LoggerMock.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// LoggerMock is a core.Logger that records its entries.
type LoggerMock struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*LoggerMock)(nil)

func (l *LoggerMock) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *LoggerMock) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *LoggerMock) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *LoggerMock) Fatal(msg string, args ...interface{}) { panic(fmt.Sprintf("FATAL: %s", msg)) }

// Entries returns the recorded entries of level, or all of them when level is empty.
func (l *LoggerMock) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}
