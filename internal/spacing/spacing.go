// Package spacing persists the menu-bar item spacing offset.
//
// The offset is a signed delta applied to two system settings, each with a
// built-in default. An offset of zero removes both settings instead of writing
// the defaults back, so the system falls back to its own values.
package spacing

import (
	"context"
	"log/slog"

	"github.com/smazurov/barspacing/internal/logging"
)

// Setting keys and their built-in defaults.
const (
	KeySpacing          = "NSStatusItemSpacing"
	KeySelectionPadding = "NSStatusItemSelectionPadding"

	DefaultSpacing          = 16
	DefaultSelectionPadding = 16
)

// Key describes one spacing setting.
type Key struct {
	Name    string
	Default int
}

var keys = []Key{
	{Name: KeySpacing, Default: DefaultSpacing},
	{Name: KeySelectionPadding, Default: DefaultSelectionPadding},
}

// Keys returns the settings written by Apply, in write order.
func Keys() []Key {
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

// EffectiveValue returns the value written for key at the given offset.
func (k Key) EffectiveValue(offset int) int {
	return k.Default + offset
}

// Store is the key/value configuration store the settings live in.
type Store interface {
	Write(ctx context.Context, key string, value int) error
	Remove(ctx context.Context, key string) error
}

// Writer applies spacing offsets to a Store.
type Writer struct {
	store  Store
	logger *slog.Logger
}

// NewWriter creates a writer. A nil logger uses the "spacing" module logger.
func NewWriter(store Store, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.GetLogger("spacing")
	}
	return &Writer{store: store, logger: logger}
}

// Apply writes both settings to default+offset, or removes both when offset
// is zero. The first failing key aborts the call; keys already updated stay
// updated.
func (w *Writer) Apply(ctx context.Context, offset int) error {
	for _, key := range keys {
		if offset == 0 {
			w.logger.Debug("Removing spacing setting", "key", key.Name)
			if err := w.store.Remove(ctx, key.Name); err != nil {
				return newError(key.Name, OpRemove, err)
			}
			continue
		}

		value := key.EffectiveValue(offset)
		w.logger.Debug("Writing spacing setting", "key", key.Name, "value", value)
		if err := w.store.Write(ctx, key.Name, value); err != nil {
			return newError(key.Name, OpWrite, err)
		}
	}

	w.logger.Info("Spacing offset persisted", "offset", offset)
	return nil
}
