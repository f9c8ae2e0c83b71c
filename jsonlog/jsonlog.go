// Package jsonlog provides a log/slog handler that emits one JSON object per
// record, in the flat shape log aggregators expect: name, level, msg, time,
// then any record attributes. Attributes of type error expand into
// error_type and error_message fields.
package jsonlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
)

// Options configures a Handler.
type Options struct {
	// Name labels every record, typically with the emitting service or
	// component.
	Name string

	// Level is the minimum level to emit. Defaults to slog.LevelInfo.
	Level slog.Leveler
}

// Handler writes records as single-line JSON objects. It is safe for
// concurrent use by multiple goroutines.
type Handler struct {
	opts  Options
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
	group string
}

var _ slog.Handler = (*Handler)(nil)

// New returns a Handler writing to w.
func New(w io.Writer, opts *Options) *Handler {
	h := &Handler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
		"time":  r.Time.UTC().Format(time.RFC3339Nano),
	}
	if h.opts.Name != "" {
		data["name"] = h.opts.Name
	}
	for _, a := range h.attrs {
		h.put(data, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.put(data, a)
		return true
	})

	line, err := gojson.Marshal(data)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(line)
	return err
}

func (h *Handler) put(data map[string]any, a slog.Attr) {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	v := a.Value.Resolve()
	if err, ok := v.Any().(error); ok {
		data[key+"_type"] = fmt.Sprintf("%T", err)
		data[key+"_message"] = err.Error()
		return
	}
	data[key] = v.Any()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group != "" {
		h2.group = h.group + "." + name
	} else {
		h2.group = name
	}
	return &h2
}

// NewLogger wraps New in a *slog.Logger for callers that do not need the
// handler itself.
func NewLogger(w io.Writer, opts *Options) *slog.Logger {
	return slog.New(New(w, opts))
}
