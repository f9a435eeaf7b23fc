package loader

import (
	"context"
	"io"

	"github.com/Carmen-Shannon/oxy-shot/engine/model"
)

// ProgressFunc receives the fraction of the asset consumed so far, in [0, 1].
type ProgressFunc func(fraction float64)

// loaderBackend defines the generic interface for loading models from streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// LoadReader imports a model from a reader stream, reporting progress as bytes are consumed.
	//
	// Parameters:
	//   - ctx: cancels the read between chunks
	//   - name: fallback model name
	//   - r: the reader providing model data
	//   - size: total byte count used for progress fractions (<= 0 when unknown)
	//   - onProgress: optional progress receiver
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if loading fails
	LoadReader(ctx context.Context, name string, r io.Reader, size int64, onProgress ProgressFunc) (*model.ImportedModel, error)
}
