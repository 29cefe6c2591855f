package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// MIMEOctetStream is reported when content sniffing finds nothing better.
const MIMEOctetStream = "application/octet-stream"

// sniffLen is the prefix http.DetectContentType looks at.
const sniffLen = 512

// Part is an uploaded file owned by exactly one widget.
type Part interface {
	// Filename is the client-supplied file name.
	Filename() string

	// Size is the part size in bytes.
	Size() int64

	// ContentType is the sniffed MIME type, falling back to the declared one.
	ContentType() string

	// Open returns a reader over the part content.
	Open() (io.ReadCloser, error)

	// Release frees any resources held by the part. It is idempotent.
	Release() error
}

// FileHeaderPart adapts a multipart file header.
type FileHeaderPart struct {
	fh       *multipart.FileHeader
	mimeType string
	once     sync.Once
	mu       sync.Mutex
	released bool
}

// FromFileHeader wraps fh as a Part.
func FromFileHeader(fh *multipart.FileHeader) *FileHeaderPart {
	return &FileHeaderPart{fh: fh}
}

func (p *FileHeaderPart) Filename() string { return p.fh.Filename }

func (p *FileHeaderPart) Size() int64 { return p.fh.Size }

// ContentType sniffs the first bytes of the part once and caches the result.
func (p *FileHeaderPart) ContentType() string {
	p.once.Do(func() {
		p.mimeType = p.fh.Header.Get("Content-Type")
		f, err := p.fh.Open()
		if err != nil {
			return
		}
		defer f.Close()
		if sniffed := sniff(f); sniffed != MIMEOctetStream || p.mimeType == "" {
			p.mimeType = sniffed
		}
	})
	if p.mimeType == "" {
		return MIMEOctetStream
	}
	return p.mimeType
}

func (p *FileHeaderPart) Open() (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, ErrReleased
	}
	return p.fh.Open()
}

// Release drops the reference to the file header so the multipart reader's
// temporary file can be collected.
func (p *FileHeaderPart) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	return nil
}

// Released reports whether Release has been called.
func (p *FileHeaderPart) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// MemoryPart is an in-memory Part, mostly useful for tests and programmatic values.
type MemoryPart struct {
	name        string
	contentType string
	data        []byte
	mu          sync.Mutex
	released    bool
}

// NewMemoryPart creates a Part backed by data.
// An empty contentType is sniffed from the content.
func NewMemoryPart(name, contentType string, data []byte) *MemoryPart {
	if contentType == "" {
		contentType = sniff(bytes.NewReader(data))
	}
	return &MemoryPart{name: name, contentType: contentType, data: data}
}

func (p *MemoryPart) Filename() string    { return p.name }
func (p *MemoryPart) Size() int64         { return int64(len(p.data)) }
func (p *MemoryPart) ContentType() string { return p.contentType }

func (p *MemoryPart) Open() (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, ErrReleased
	}
	return io.NopCloser(bytes.NewReader(p.data)), nil
}

func (p *MemoryPart) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	p.data = nil
	return nil
}

// Released reports whether Release has been called.
func (p *MemoryPart) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

func sniff(r io.Reader) string {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if n == 0 && err != nil {
		return MIMEOctetStream
	}
	return http.DetectContentType(buf[:n])
}

// normalizeMIME strips parameters such as charset and lowercases the type.
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}

// MatchesMIME reports whether mimeType matches one of the patterns.
// Patterns may end in "/*" to match a whole top-level type.
func MatchesMIME(mimeType string, patterns []string) bool {
	mimeType = normalizeMIME(mimeType)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(strings.ToLower(pattern))
		if mimeType == pattern {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok && strings.HasSuffix(prefix, "/") &&
			strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}
