package utils

import (
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/rs/zerolog"
	"github.com/vgarvardt/gue/v5/adapter"
)

// GueLogAdapter writes gue worker logs to the app logger
type GueLogAdapter struct {
	fields []adapter.Field
}

// NewGueLoggerAdapter creates adapter, pool is added to every line
func NewGueLoggerAdapter(pool string) *GueLogAdapter {
	return &GueLogAdapter{fields: []adapter.Field{{Key: "pool", Value: pool}}}
}

// Debug is too chatty for gue polling, it goes to trace
func (l *GueLogAdapter) Debug(msg string, fields ...adapter.Field) {
	l.do(goapp.Log.Trace(), fields...).Msg(msg)
}

func (l *GueLogAdapter) Info(msg string, fields ...adapter.Field) {
	l.do(goapp.Log.Debug(), fields...).Msg(msg)
}

func (l *GueLogAdapter) Error(msg string, fields ...adapter.Field) {
	l.do(goapp.Log.Error(), fields...).Msg(msg)
}

// With keeps own fields and adds new ones
func (l *GueLogAdapter) With(fields ...adapter.Field) adapter.Logger {
	res := make([]adapter.Field, 0, len(l.fields)+len(fields))
	res = append(res, l.fields...)
	return &GueLogAdapter{fields: append(res, fields...)}
}

func (l *GueLogAdapter) do(le *zerolog.Event, fields ...adapter.Field) *zerolog.Event {
	for _, f := range append(l.fields, fields...) {
		if err, ok := f.Value.(error); ok && f.Key == zerolog.ErrorFieldName {
			le = le.Err(err)
			continue
		}
		le = le.Interface(f.Key, f.Value)
	}
	return le
}
