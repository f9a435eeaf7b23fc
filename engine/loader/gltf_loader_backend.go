package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-shot/engine/model"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer  gltfImporter
	chunkSize int
	maxSize   int64
}

// gltfLoaderBackend is a loaderBackend implementation for GLB containers.
// It streams the bytes in chunks, then delegates to the gltfImporter for parsing and extraction.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new GLB loader backend.
//
// Parameters:
//   - chunkSize: bytes read between progress reports
//   - maxSize: maximum accepted asset size in bytes (<= 0 for unlimited)
//
// Returns:
//   - gltfLoaderBackend: the loader backend for GLB files
func newGLTFLoaderBackend(chunkSize int, maxSize int64) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer:  newGLTFImporter(),
		chunkSize: max(chunkSize, 1),
		maxSize:   maxSize,
	}
}

func (b *gltfLoaderBackendImpl) LoadReader(ctx context.Context, name string, r io.Reader, size int64, onProgress ProgressFunc) (*model.ImportedModel, error) {
	report := func(f float64) {
		if onProgress != nil {
			onProgress(min(max(f, 0), 1))
		}
	}

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	chunk := make([]byte, b.chunkSize)
	report(0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if b.maxSize > 0 && int64(buf.Len()) > b.maxSize {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrAssetTooLarge, b.maxSize)
			}
			if size > 0 {
				// the final 1.0 is reported only once the model is built
				report(min(float64(buf.Len())/float64(size), 0.99))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read asset: %w", err)
		}
	}

	imported, err := b.importer.ImportBytes(buf.Bytes(), name)
	if err != nil {
		return nil, err
	}
	report(1)
	return imported, nil
}
