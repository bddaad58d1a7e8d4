package resultio

import "github.com/go-logr/logr"

// IOOption configures WriteFile/LoadFile. The only option today is an
// error logger, mirroring profiler.WithLogger and pool.WithLogger.
type IOOption func(*ioConfig)

type ioConfig struct {
	logger logr.Logger
}

// WithLogger registers a logger used to report I/O failures writing or
// reading a bundle file, before the error is also returned to the caller.
func WithLogger(l logr.Logger) IOOption {
	return func(c *ioConfig) { c.logger = l }
}

func (c ioConfig) logAnomaly(context string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error(err, context)
}
