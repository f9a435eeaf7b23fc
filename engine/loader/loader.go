package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-shot/engine/model"
)

var (
	// ErrUnsupportedFormat is returned when an asset is not a GLB container.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrAssetTooLarge is returned when an asset exceeds the configured maximum size.
	ErrAssetTooLarge = errors.New("asset exceeds maximum size")
)

const (
	defaultChunkSize    = 64 * 1024
	defaultMaxAssetSize = 256 * 1024 * 1024
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	logger *slog.Logger

	chunkSize    int
	maxAssetSize int64

	modelCache map[string]*model.ImportedModel

	backend loaderBackend
}

// Loader defines the public-facing interface for importing GLB assets into CPU-side models.
// Imported models are cached by key until released.
type Loader interface {
	// Load imports a GLB asset from a reader and caches the result under key.
	// If the key is already cached, the cached model is returned without reading r.
	//
	// Parameters:
	//   - ctx: cancels the import between read chunks
	//   - key: cache key, also used as the fallback model name
	//   - fileName: original file name, checked for the .glb extension when the bytes are ambiguous
	//   - r: the reader providing asset bytes
	//   - size: total size in bytes for progress reporting (<= 0 when unknown)
	//   - onProgress: optional receiver for the consumed fraction in [0, 1]
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if the asset is unsupported, malformed or the context is cancelled
	Load(ctx context.Context, key, fileName string, r io.Reader, size int64, onProgress ProgressFunc) (*model.ImportedModel, error)

	// Get retrieves a cached model by key. Returns nil if not found.
	//
	// Parameters:
	//   - key: the cache key to look up
	//
	// Returns:
	//   - *model.ImportedModel: the cached model or nil
	Get(key string) *model.ImportedModel

	// Release drops a cached model.
	//
	// Parameters:
	//   - key: the cache key to drop
	Release(key string)

	// Models returns a snapshot of the model cache.
	//
	// Returns:
	//   - map[string]*model.ImportedModel: all cached models keyed by key
	Models() map[string]*model.ImportedModel
}

var _ Loader = &loader{}

// NewLoader creates a new GLB Loader with the provided options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		logger:       slog.Default(),
		chunkSize:    defaultChunkSize,
		maxAssetSize: defaultMaxAssetSize,
		modelCache:   make(map[string]*model.ImportedModel),
	}

	for _, option := range options {
		option(l)
	}
	l.backend = newGLTFLoaderBackend(l.chunkSize, l.maxAssetSize)
	return l
}

func (l *loader) Load(ctx context.Context, key, fileName string, r io.Reader, size int64, onProgress ProgressFunc) (*model.ImportedModel, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[key]; ok {
		l.mu.RUnlock()
		if onProgress != nil {
			onProgress(1)
		}
		return cached, nil
	}
	l.mu.RUnlock()

	// peek the header so unsupported assets fail before the full read
	header := make([]byte, 4)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %q: %w", fileName, err)
	}
	header = header[:n]
	if err := resolveFormat(fileName, header); err != nil {
		return nil, err
	}

	stream := io.MultiReader(bytes.NewReader(header), r)
	imported, err := l.backend.LoadReader(ctx, modelNameFromFile(fileName, key), stream, size, onProgress)
	if err != nil {
		l.logger.Debug("asset import failed", "key", key, "file", fileName, "error", err)
		return nil, fmt.Errorf("failed to load %q: %w", fileName, err)
	}

	l.mu.Lock()
	l.modelCache[key] = imported
	l.mu.Unlock()

	l.logger.Debug("asset imported", "key", key, "file", fileName,
		"meshes", len(imported.Meshes), "materials", len(imported.Materials), "nodes", len(imported.Nodes))
	return imported, nil
}

func (l *loader) Get(key string) *model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[key]
}

func (l *loader) Release(key string) {
	l.mu.Lock()
	delete(l.modelCache, key)
	l.mu.Unlock()
}

func (l *loader) Models() map[string]*model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*model.ImportedModel, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

// resolveFormat accepts GLB magic bytes, or a .glb extension when the header is too short to tell.
// A file with the .glb extension but foreign magic is left to the parser to reject.
func resolveFormat(fileName string, header []byte) error {
	if bytes.Equal(header, []byte("glTF")) {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".glb" {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
}

// modelNameFromFile strips the directory and extension from a file name.
func modelNameFromFile(fileName, fallback string) string {
	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}
