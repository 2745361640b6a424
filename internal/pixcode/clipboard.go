package pixcode

import (
	"context"

	pkgerrors "github.com/angelmondragon/pixcheckout/pkg/errors"
)

// ErrClipboardUnavailable is returned when no primary clipboard is wired.
var ErrClipboardUnavailable = pkgerrors.New(pkgerrors.CodeUnavailable, "clipboard unavailable")

// Clipboard is the primary copy mechanism. It reports success or failure.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// LegacyCopier is the selection-based fallback. It has no success signal.
type LegacyCopier interface {
	SelectAndCopy(text string)
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// LegacyCopierFunc adapts a function to LegacyCopier.
type LegacyCopierFunc func(text string)

func (f LegacyCopierFunc) SelectAndCopy(text string) {
	f(text)
}

type unavailableClipboard struct{}

func (unavailableClipboard) WriteText(context.Context, string) error {
	return ErrClipboardUnavailable
}

type noopCopier struct{}

func (noopCopier) SelectAndCopy(string) {}
