package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalHandler is a slog.Handler that writes to the systemd journal.
//
// Attributes become journal fields: keys are upper-cased, group-prefixed and
// reduced to the journal's field-name alphabet. LogValuers are resolved
// first, so a process descriptor logged under "process" is indexed as
// PROCESS_PID, PROCESS_NAME and PROCESS_BUNDLE_ID and can be queried with
// journalctl PROCESS_BUNDLE_ID=com.example.App.
type JournalHandler struct {
	level  slog.Leveler
	fields map[string]string // pre-rendered WithAttrs fields
	prefix string            // group prefix for later attributes
	send   func(message string, priority journal.Priority, fields map[string]string) error
}

// NewJournalHandler creates a journal handler gated by level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{
		level:  level,
		fields: map[string]string{},
		send:   journal.Send,
	}
}

// Enabled reports whether level is at or above the handler's level.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends r to the journal.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	priority := journalPriority(r.Level)

	fields := make(map[string]string, len(h.fields)+r.NumAttrs()+2)
	for k, v := range h.fields {
		fields[k] = v
	}
	r.Attrs(func(attr slog.Attr) bool {
		journalFields(fields, h.prefix, attr)
		return true
	})
	fields["PRIORITY"] = strconv.Itoa(int(priority))
	fields["SYSLOG_IDENTIFIER"] = Identifier

	if err := h.send(r.Message, priority, fields); err != nil {
		fmt.Fprintf(os.Stderr, "journal send failed: %v\n", err)
		return err
	}
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		journalFields(next.fields, h.prefix, attr)
	}
	return next
}

// WithGroup returns a handler that prefixes later attributes with name.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = fieldName(h.prefix, name) + "_"
	return next
}

func (h *JournalHandler) clone() *JournalHandler {
	fields := make(map[string]string, len(h.fields))
	for k, v := range h.fields {
		fields[k] = v
	}
	return &JournalHandler{level: h.level, fields: fields, prefix: h.prefix, send: h.send}
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalFields renders attr into fields under prefix.
func journalFields(fields map[string]string, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		// Inline groups (empty key) keep the current prefix.
		next := prefix
		if attr.Key != "" {
			next = fieldName(prefix, attr.Key) + "_"
		}
		for _, a := range attr.Value.Group() {
			journalFields(fields, next, a)
		}
		return
	}

	key := fieldName(prefix, attr.Key)
	if key == "" {
		return
	}

	switch attr.Value.Kind() {
	case slog.KindTime:
		fields[key] = attr.Value.Time().Format("2006-01-02T15:04:05.000Z07:00")
	case slog.KindAny:
		if err, ok := attr.Value.Any().(error); ok {
			fields[key] = err.Error()
			return
		}
		fields[key] = attr.Value.String()
	default:
		fields[key] = attr.Value.String()
	}
}

// fieldName joins prefix and key into a valid journal field name: upper
// case letters, digits and underscores, not starting with an underscore or a
// digit.
func fieldName(prefix, key string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), "_0123456789")
}

// IsJournalAvailable reports whether the systemd journal socket is reachable.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
