package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandlerOptions wraps the standard slog.HandlerOptions so callers
// construct a PrettyHandler the same way they'd construct any other
// slog.Handler.
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// PrettyHandler is a colorized, single-line slog.Handler intended for local
// development and test output: "[HH:MM:SS.mmm] LEVEL: message {json attrs}".
type PrettyHandler struct {
	slog.Handler
	l *log0
	m *sync.Mutex
}

// log0 is a minimal writer wrapper so PrettyHandler doesn't depend on the
// standard "log" package's global state.
type log0 struct {
	out io.Writer
}

func (l *log0) Println(v ...interface{}) {
	fmt.Fprintln(l.out, v...)
}

// NewPrettyHandler builds a PrettyHandler writing to out.
func NewPrettyHandler(out io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(out, &opts.SlogOpts),
		l:       &log0{out: out},
		m:       &sync.Mutex{},
	}
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := make(map[string]interface{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	b, err := json.Marshal(fields)
	if err != nil {
		return NewError("marshal log attributes", err)
	}

	timeStr := r.Time.Format("[15:04:05.000]")
	msg := color.CyanString(r.Message)

	h.m.Lock()
	defer h.m.Unlock()

	h.l.Println(timeStr, level, msg, string(b))
	return nil
}
