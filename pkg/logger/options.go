package logger

import "io"

type options struct {
	out  io.Writer
	file string
}

// Option configures Init.
type Option func(*options)

// WithOutput replaces stdout as the primary destination.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithFile tees log records into the file at path (created or appended).
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}
