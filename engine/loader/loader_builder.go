package loader

import "log/slog"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithChunkSize sets how many bytes are read between progress reports.
//
// Parameters:
//   - n: chunk size in bytes (values <= 0 are ignored)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the chunk size option to a loader
func WithChunkSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.chunkSize = n
		}
	}
}

// WithMaxAssetSize caps the number of bytes a single asset may contain.
//
// Parameters:
//   - n: maximum size in bytes, 0 disables the cap
//
// Returns:
//   - LoaderBuilderOption: a function that applies the size cap to a loader
func WithMaxAssetSize(n int64) LoaderBuilderOption {
	return func(l *loader) {
		l.maxAssetSize = n
	}
}

// WithLogger sets the structured logger used by the Loader.
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
