package logsvc

import (
	"fmt"
	"log"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/user"
)

// rollbar keeps a single global person
var personMu sync.Mutex

// RollbarLogger reports entries to Rollbar and echoes them on a std logger.
// Args may be errors, map[string]interface{} of extra data and the acting user.User.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger returns a RollbarLogger; reporting stays off until Enable(true).
// Debug entries are dropped unless conf.Debug is set.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(false)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Flush blocks until the queued reports are sent.
func (l *RollbarLogger) Flush() {
	rollbar.Wait()
}

// entry is a log call split into what rollbar expects.
type entry struct {
	msg   string
	actor *user.User
	errs  []error
	extra map[string]interface{}
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, extra: make(map[string]interface{})}
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if e.actor == nil {
				usr := a
				e.actor = &usr
			}
		case *user.User:
			if e.actor == nil && a != nil {
				e.actor = a
			}
		case error:
			e.errs = append(e.errs, a)
		case map[string]interface{}:
			for k, v := range a {
				e.extra[k] = v
			}
		case nil:
		default:
			e.extra[fmt.Sprintf("arg%d", len(e.extra))] = a
		}
	}
	if e.actor != nil {
		e.extra["role"] = e.actor.Role
	}
	return e
}

// interfaces returns the args of a rollbar call: the message, the first error and the extra data.
func (e entry) interfaces() []interface{} {
	ifaces := []interface{}{e.msg}
	if len(e.errs) > 0 {
		ifaces = append(ifaces, e.errs[0])
	}
	if len(e.extra) > 0 {
		ifaces = append(ifaces, e.extra)
	}
	return ifaces
}

func (l *RollbarLogger) print(e entry) {
	l.std.Println(e.msg)
	for _, err := range e.errs {
		l.std.Printf("%+v\n", err)
	}
	if e.actor != nil {
		l.std.Printf("user: %s <%s> (%s)\n", e.actor.ID, e.actor.Email, e.actor.Role)
	}
	for k, v := range e.extra {
		if k != "role" {
			l.std.Printf("%s: %+v\n", k, v)
		}
	}
}

func (l *RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	e := newEntry(msg, args)

	personMu.Lock()
	if e.actor != nil {
		rollbar.SetPerson(e.actor.ID, e.actor.Name, e.actor.Email)
	} else {
		rollbar.ClearPerson()
	}
	send(e.interfaces()...)
	personMu.Unlock()

	l.print(e)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.report(rollbar.Debug, msg, args)
	}
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	l.Flush()
	l.std.Fatal(msg)
}
