package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"videogen/internal/infra"
	"videogen/internal/storage"
)

// Workspace is the temporary area owned by exactly one run. It is created on
// entry and removed by Close on every exit path.
type Workspace struct {
	files  *storage.FileStore
	logger *infra.Logger
	closed bool
}

// OpenWorkspace creates root/<requestID>. An existing directory means another
// run owns that id and is reported as an error.
func OpenWorkspace(root, requestID string, logger *infra.Logger) (*Workspace, error) {
	if requestID == "" || filepath.Base(requestID) != requestID {
		return nil, fmt.Errorf("workspace: invalid request id %q", requestID)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: ensure root: %w", err)
	}
	dir := filepath.Join(root, requestID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("workspace: %s already in use", requestID)
		}
		return nil, fmt.Errorf("workspace: create: %w", err)
	}
	files, err := storage.NewFileStore(dir, "")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Workspace{files: files, logger: logger}, nil
}

// Dir is the workspace root on disk.
func (w *Workspace) Dir() string {
	return w.files.BasePath()
}

// Path returns where name lives inside the workspace.
func (w *Workspace) Path(name string) string {
	p, err := w.files.Path(name)
	if err != nil {
		return filepath.Join(w.Dir(), filepath.Base(name))
	}
	return p
}

// Write stores data under name and returns its path.
func (w *Workspace) Write(ctx context.Context, name string, data []byte) (string, error) {
	return w.files.Write(ctx, name, data)
}

// Close removes the workspace. Failures are logged and never returned to the
// run; calling Close more than once is a no-op.
func (w *Workspace) Close() {
	if w == nil || w.closed {
		return
	}
	w.closed = true
	if err := w.files.RemoveAll(); err != nil {
		w.logger.Warn().Err(err).Str("dir", w.Dir()).Msg("workspace: cleanup failed")
	}
}
