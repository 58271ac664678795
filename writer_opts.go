package pod5

import (
	"log/slog"

	"github.com/google/uuid"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithSoftware sets the software name recorded in the footer.
func WithSoftware(name string) WriterOption {
	return func(w *Writer) {
		w.meta.Software = name
	}
}

// WithPod5Version sets the format version recorded in the footer.
func WithPod5Version(version string) WriterOption {
	return func(w *Writer) {
		w.meta.Pod5Version = version
	}
}

// WithFileIdentifier sets the file identifier recorded in the footer.
// By default a random UUID is used.
func WithFileIdentifier(id string) WriterOption {
	return func(w *Writer) {
		w.meta.FileIdentifier = id
	}
}

// WithSectionMarker sets the marker written between tables.
// By default a random UUID is used.
func WithSectionMarker(marker uuid.UUID) WriterOption {
	return func(w *Writer) {
		w.marker = marker
	}
}

// WithWriterLogger sets the logger for debug output.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}
