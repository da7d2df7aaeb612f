package logsink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// EnvKey is the attribute that labels a record's stream.
const EnvKey = "env"

// Handler wraps another slog.Handler and mirrors every record it handles to a
// Shipper. The env label is taken from an "env" attribute, either bound with
// Logger.With or passed on the record.
type Handler struct {
	inner   slog.Handler
	shipper *Shipper
	env     string
	prefix  string
	attrs   []slog.Attr
}

func NewHandler(inner slog.Handler, shipper *Shipper) *Handler {
	return &Handler{inner: inner, shipper: shipper}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	env := h.env
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == EnvKey {
			env = a.Value.String()
		}
		writeAttr(&b, h.prefix, a)
		return true
	})

	h.shipper.Ship(Record{
		Time:    r.Time,
		Level:   LevelOf(r.Level),
		Message: b.String(),
		Env:     env,
	})
	return h.inner.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	h2.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == EnvKey {
			h2.env = a.Value.String()
		}
		a.Key = h.prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}
	return h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.inner = h.inner.WithGroup(name)
	h2.prefix = h.prefix + name + "."
	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		inner:   h.inner,
		shipper: h.shipper,
		env:     h.env,
		prefix:  h.prefix,
		attrs:   append([]slog.Attr(nil), h.attrs...),
	}
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, p, ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") {
		val = fmt.Sprintf("%q", val)
	}
	b.WriteString(" ")
	b.WriteString(prefix + a.Key)
	b.WriteString("=")
	b.WriteString(val)
}
