package internal

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/htmx"
	"github.com/dmitrymomot/formtree/pkg/upload"
)

// DefaultMaxMemory is the part of a multipart body kept in memory; the
// rest is spooled to temporary files.
const DefaultMaxMemory = 32 << 20

// ErrMalformedBody is returned for request bodies that cannot be parsed.
var ErrMalformedBody = errors.New("formtree: malformed request body")

// ParseBody parses URL-encoded and multipart bodies. It is a no-op when
// the body has been parsed already.
func ParseBody(r *http.Request, maxMemory int64) error {
	if r.MultipartForm != nil || (r.Form != nil && r.PostForm != nil) {
		return nil
	}
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return nil
}

// HTTPRequest presents a parsed *http.Request as a formmodel.Request.
type HTTPRequest struct {
	r           *http.Request
	submitParam string
	locale      language.Tag
	detachLimit int64
}

var _ formmodel.Request = (*HTTPRequest)(nil)

// RequestOption configures an HTTPRequest.
type RequestOption func(*HTTPRequest)

// WithDetachLimit sets the largest upload copied into memory. Default:
// DefaultMaxMemory.
func WithDetachLimit(n int64) RequestOption {
	return func(q *HTTPRequest) {
		q.detachLimit = n
	}
}

// NewRequest wraps r, whose body must have been parsed with ParseBody.
// When the submit-id parameter submitParam is absent, htmx's
// HX-Trigger-Name header stands in for it.
func NewRequest(r *http.Request, submitParam string, locale language.Tag, opts ...RequestOption) *HTTPRequest {
	q := &HTTPRequest{r: r, submitParam: submitParam, locale: locale, detachLimit: DefaultMaxMemory}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *HTTPRequest) Parameter(name string) (string, bool) {
	if vs := q.r.Form[name]; len(vs) > 0 {
		return vs[0], true
	}
	if name == q.submitParam {
		if trigger := htmx.TriggerName(q.r); trigger != "" {
			return trigger, true
		}
	}
	return "", false
}

func (q *HTTPRequest) Parameters(name string) []string {
	return q.r.Form[name]
}

// File returns the part uploaded as name. Parts up to the detach limit are
// copied into memory so that they outlive the request: net/http removes
// multipart temporary files once the handler returns.
func (q *HTTPRequest) File(name string) (upload.Part, bool) {
	if q.r.MultipartForm == nil {
		return nil, false
	}
	headers := q.r.MultipartForm.File[name]
	if len(headers) == 0 {
		return nil, false
	}
	fh := headers[0]
	if fh.Size <= q.detachLimit {
		if part, err := detach(fh); err == nil {
			return part, true
		}
	}
	return upload.FromFileHeader(fh), true
}

func detach(fh *multipart.FileHeader) (*upload.MemoryPart, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return upload.NewMemoryPart(fh.Filename, upload.FromFileHeader(fh).ContentType(), data), nil
}

func (q *HTTPRequest) Locale() language.Tag {
	return q.locale
}
