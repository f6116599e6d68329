package notify

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// ErrTemplateNotFound is returned by a TemplateSource that has no template
// under the requested name.
var ErrTemplateNotFound = errors.New("template not found")

//go:embed templates/*.html
var defaultTemplates embed.FS

// TemplateSource loads raw template text by name.
type TemplateSource interface {
	Load(ctx context.Context, name string) (string, error)
}

// FSSource reads templates from a file system.
type FSSource struct {
	fsys fs.FS
}

// NewDirSource reads templates from a local directory.
func NewDirSource(dir string) *FSSource {
	return &FSSource{fsys: os.DirFS(dir)}
}

// NewEmbeddedSource serves the templates compiled into the binary.
func NewEmbeddedSource() *FSSource {
	sub, err := fs.Sub(defaultTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return &FSSource{fsys: sub}
}

func (s *FSSource) Load(ctx context.Context, name string) (string, error) {
	if !fs.ValidPath(name) || path.Base(name) != name || filepath.Base(name) != name {
		return "", ErrTemplateNotFound
	}
	b, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrTemplateNotFound
		}
		return "", err
	}
	return string(b), nil
}

// ChainSource asks each source in turn and returns the first template found.
type ChainSource []TemplateSource

func (c ChainSource) Load(ctx context.Context, name string) (string, error) {
	for _, src := range c {
		text, err := src.Load(ctx, name)
		if errors.Is(err, ErrTemplateNotFound) {
			continue
		}
		return text, err
	}
	return "", ErrTemplateNotFound
}
