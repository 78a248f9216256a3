package worker

import (
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemError wraps a data-directory or outline-file I/O failure with
// the path involved.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem: %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Bootstrap prepares the place the engine keeps its data. Startup calls it
// before anything touches the database.
type Bootstrap interface {
	Ensure() error
}

// DataDir is the production Bootstrap. Ensure creates the directory tree
// and touches the database file so the lazily opened SQLite handle finds an
// existing file on first use.
type DataDir struct {
	Dir      string
	Database string
}

func (d DataDir) Ensure() error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return &FilesystemError{Path: d.Dir, Err: err}
	}
	if d.Database == "" {
		return nil
	}
	path := filepath.Join(d.Dir, d.Database)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &FilesystemError{Path: path, Err: err}
	}
	return f.Close()
}

// Dialogs answers the questions a desktop shell would pose with a file
// picker. Reporting ok == false means the user backed out, which turns the
// command into a silent no-op.
type Dialogs interface {
	ExportPath() (path string, ok bool)
}
