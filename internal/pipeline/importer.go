package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-shot/engine"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
)

// Importer loads a model's bytes into its session scene.
type Importer interface {
	// Import exposes the record bytes through an object URL, imports them into the session
	// scene and revokes the URL when the import returns.
	//
	// Parameters:
	//   - ctx: cancels the import between read chunks
	//   - s: the session owning the destination scene
	//   - rec: the model to import
	//   - onProgress: optional receiver for the import fraction in [0, 1]; not called once
	//     the session is disposed
	//
	// Returns:
	//   - []scene.Node: the imported top-level nodes
	//   - error: an *ImportError, ErrSessionDisposed, or the context error
	Import(ctx context.Context, s *RenderSession, rec ModelRecord, onProgress func(fraction float64)) ([]scene.Node, error)
}

// importer is the implementation of Importer.
type importer struct {
	logger *slog.Logger
}

var _ Importer = &importer{}

// NewImporter creates an Importer.
func NewImporter(logger *slog.Logger) Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &importer{logger: logger}
}

func (im *importer) Import(ctx context.Context, s *RenderSession, rec ModelRecord, onProgress func(fraction float64)) (nodes []scene.Node, err error) {
	url, err := s.exposeBytes(rec.Data(), engine.MediaTypeGLB)
	if err != nil {
		return nil, err
	}
	defer s.revokeObjectURL()

	defer func() {
		if r := recover(); r != nil {
			im.logger.Error("asset import panicked", "model", rec.ID, "panic", fmt.Sprint(r))
			nodes, err = nil, &ImportError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	progress := func(f float64) {
		if onProgress != nil && !s.Disposed() {
			onProgress(f)
		}
	}

	nodes, err = s.Engine().ImportAsset(ctx, url, s.Scene(), progress)
	if s.Disposed() {
		return nil, ErrSessionDisposed
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ImportError{Err: err}
	}

	im.logger.Debug("asset imported", "model", rec.ID, "name", rec.Name, "bytes", rec.Size)
	return nodes, nil
}
