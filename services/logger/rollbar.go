package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
)

// RollbarLogger reports entries to rollbar and mirrors them on a std logger.
// Debug entries are local only, and printed in debug mode.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is one log call with its args sorted by kind.
// expected args: error, map[string]interface{} (merged), member.User (first one wins)
type entry struct {
	msg    string
	err    error
	extras map[string]interface{}
	person *member.User
	other  []interface{}
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch a := arg.(type) {
		case member.User:
			if e.person == nil {
				usr := a
				e.person = &usr
			}
		case error:
			if e.err == nil {
				e.err = a
			} else {
				e.other = append(e.other, a)
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(a))
			}
			for k, v := range a {
				e.extras[k] = v
			}
		default:
			e.other = append(e.other, a)
		}
	}
	return e
}

// rollbarArgs follows rollbar.Log's convention: message, error, then one extras map.
func (e entry) rollbarArgs() []interface{} {
	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	extras := make(map[string]interface{}, len(e.extras)+1)
	for k, v := range e.extras {
		extras[k] = v
	}
	if len(e.other) > 0 {
		extras["args"] = e.other
	}
	if len(extras) > 0 {
		args = append(args, extras)
	}
	return args
}

func (e entry) String() string {
	var b strings.Builder
	b.WriteString(e.msg)
	if e.err != nil {
		fmt.Fprintf(&b, " error=%q", e.err.Error())
	}
	if e.person != nil {
		fmt.Fprintf(&b, " member=%s", e.person.ID)
	}
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	for _, o := range e.other {
		fmt.Fprintf(&b, " %+v", o)
	}
	return b.String()
}

func (l *RollbarLogger) log(level, prefix, msg string, args []interface{}) {
	e := newEntry(msg, args)
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.NameOrEmail(), e.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.rollbarArgs()...)
	l.std.Printf("%s: %s", prefix, e)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.std.Printf("DEBUG: %s", newEntry(msg, args))
	}
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, "INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, "WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, "ERROR", msg, args)
}

// Fatal flushes the rollbar queue before exiting.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, "FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
