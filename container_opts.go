package pod5

import (
	"log/slog"

	"github.com/meigma/pod5/svb16"
)

// DefaultMaxDecoderMemory bounds the zstd decoder used for signal cells.
const DefaultMaxDecoderMemory = 256 << 20

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger for debug output.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithWorkers sets how many rows DecodeSignalColumn decodes at once.
// Values < 1 decode serially. The default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *Container) {
		c.workers = n
	}
}

// WithSignalCompression sets how signal cells are compressed.
// The default is SignalVBZ, as written by every POD5 producer.
func WithSignalCompression(sc SignalCompression) Option {
	return func(c *Container) {
		c.compression = sc
	}
}

// WithSignalLayout sets the svb16 selector layout of signal cells.
// The default is svb16.LayoutBit.
func WithSignalLayout(layout svb16.Layout) Option {
	return func(c *Container) {
		c.layout = layout
	}
}

// WithMaxDecoderMemory limits the memory used by the zstd decoder.
// Set limit to 0 to use the zstd default.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(c *Container) {
		c.maxDecoderMemory = limit
	}
}

// WithMmap controls whether OpenFile memory-maps the file. Mapping is only
// available on Unix; elsewhere OpenFile falls back to positional reads.
// Other constructors ignore it.
func WithMmap(enabled bool) Option {
	return func(c *Container) {
		c.mmap = enabled
	}
}
