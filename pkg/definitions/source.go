package definitions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
)

// Token identifies one version of a document. Any content change yields a
// different token.
type Token string

// Document is a loaded form or library description.
type Document struct {
	Name  string
	Data  []byte
	Token Token
}

// Source provides documents by name.
type Source interface {
	// ID identifies the source in cache fingerprints.
	ID() string
	// Token returns the current validity token of a document without
	// necessarily reading it.
	Token(ctx context.Context, name string) (Token, error)
	// Load reads a document together with its token.
	Load(ctx context.Context, name string) (*Document, error)
}

// Pinger is implemented by sources that can check their backend without
// naming a document.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FSSource reads "<name>.yaml" documents from a file system.
type FSSource struct {
	fsys fs.FS
	id   string
	ext  string
}

// NewFSSource creates a source over fsys. The id names it in fingerprints.
func NewFSSource(id string, fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys, id: id, ext: ".yaml"}
}

// NewDirSource creates a source over a directory.
func NewDirSource(dir string) *FSSource {
	return NewFSSource("dir:"+dir, os.DirFS(dir))
}

func (s *FSSource) ID() string { return s.id }

// Ping checks that the root of the file system can be read.
func (s *FSSource) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := fs.ReadDir(s.fsys, "."); err != nil {
		return wrapFSError(".", err)
	}
	return nil
}

func (s *FSSource) path(name string) (string, error) {
	p := name + s.ext
	if name == "" || !fs.ValidPath(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return p, nil
}

// Token returns modification time and size when the file system reports a
// modification time, and a content hash otherwise.
func (s *FSSource) Token(ctx context.Context, name string) (Token, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	info, err := fs.Stat(s.fsys, p)
	if err != nil {
		return "", wrapFSError(name, err)
	}
	if info.ModTime().IsZero() {
		data, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return "", wrapFSError(name, err)
		}
		return hashToken(data), nil
	}
	return statToken(info), nil
}

func (s *FSSource) Load(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(p)
	if err != nil {
		return nil, wrapFSError(name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, wrapFSError(name, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, wrapFSError(name, err)
	}
	tok := statToken(info)
	if info.ModTime().IsZero() {
		tok = hashToken(data)
	}
	return &Document{Name: name, Data: data, Token: tok}, nil
}

func statToken(info fs.FileInfo) Token {
	return Token(strconv.FormatInt(info.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(info.Size(), 36))
}

func hashToken(data []byte) Token {
	sum := sha256.Sum256(data)
	return Token("sha256:" + hex.EncodeToString(sum[:]))
}

func wrapFSError(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %q", ErrAccessDenied, name)
	}
	return fmt.Errorf("%w: %q: %w", ErrSource, name, err)
}
