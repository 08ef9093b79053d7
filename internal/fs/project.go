// Package fs locates the mintdraw project directory and the files inside it.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the project directory created by init.
const DirName = ".mintdraw"

// ErrNoProject is returned when no project directory is found.
var ErrNoProject = errors.New("no " + DirName + "/ directory found")

// Project describes the layout of a project directory.
type Project struct {
	Root string
}

// Dir returns the path of the project directory.
func (p Project) Dir() string { return filepath.Join(p.Root, DirName) }

// StatePath returns the LevelDB directory holding allocator state.
func (p Project) StatePath() string { return filepath.Join(p.Dir(), "state") }

// LockPath returns the advisory lock file.
func (p Project) LockPath() string { return filepath.Join(p.Dir(), "lock") }

// Find walks up from start looking for a project directory.
func Find(start string) (Project, error) {
	dir := start
	for {
		info, err := os.Stat(filepath.Join(dir, DirName))
		if err == nil && info.IsDir() {
			return Project{Root: dir}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Project{}, ErrNoProject
		}
		dir = parent
	}
}

// FindOrCreate returns the project enclosing start, creating one in start
// when none exists.
func FindOrCreate(start string) (Project, error) {
	p, err := Find(start)
	if err == nil {
		return p, nil
	}
	p = Project{Root: start}
	if err := os.MkdirAll(p.Dir(), 0o755); err != nil {
		return Project{}, fmt.Errorf("creating %s directory: %w", DirName, err)
	}
	return p, nil
}
