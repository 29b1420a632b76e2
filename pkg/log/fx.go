package log

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// FxLogger routes fx lifecycle events to zerolog. Failures are logged at
// error level, everything else at debug.
type FxLogger struct {
	Logger zerolog.Logger
}

// FxOption installs an FxLogger for the "fx" component.
func FxOption() fx.Option {
	return fx.WithLogger(func() fxevent.Logger {
		return &FxLogger{Logger: WithComponent("fx")}
	})
}

// LogEvent implements fxevent.Logger.
func (l *FxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		l.result(e.Err, "OnStart hook").Str("callee", e.FunctionName).Str("runtime", e.Runtime.String()).Send()
	case *fxevent.OnStopExecuted:
		l.result(e.Err, "OnStop hook").Str("callee", e.FunctionName).Str("runtime", e.Runtime.String()).Send()
	case *fxevent.Provided:
		l.result(e.Err, "Provided").Strs("types", e.OutputTypeNames).Str("module", e.ModuleName).Send()
	case *fxevent.Invoked:
		l.result(e.Err, "Invoked").Str("function", e.FunctionName).Str("module", e.ModuleName).Send()
	case *fxevent.Decorated:
		l.result(e.Err, "Decorated").Strs("types", e.OutputTypeNames).Send()
	case *fxevent.Replaced:
		l.result(e.Err, "Replaced").Strs("types", e.OutputTypeNames).Send()
	case *fxevent.Stopped:
		l.result(e.Err, "Stopped").Send()
	case *fxevent.RolledBack:
		l.result(e.Err, "Rolled back").Send()
	case *fxevent.Started:
		l.result(e.Err, "Started").Send()
	}
}

func (l *FxLogger) result(err error, msg string) *zerolog.Event {
	if err != nil {
		return l.Logger.Error().Err(err).Str("event", msg)
	}

	return l.Logger.Debug().Str("event", msg)
}
