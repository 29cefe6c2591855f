package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/formtree/pkg/definitions"
	"github.com/dmitrymomot/formtree/pkg/formbuilder"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/logger"
	"github.com/dmitrymomot/formtree/pkg/render"
)

// htmx events sent with form responses.
const (
	EventFormFinished = "form-finished"
	EventFormInvalid  = "form-invalid"
)

// FormSource creates form instances by definition name.
type FormSource interface {
	NewForm(ctx context.Context, name string) (*formmodel.Form, error)
}

// CompletionFunc writes the response for a finished form. The form is
// released once it returns.
type CompletionFunc func(c Context, name string, f *formmodel.Form) error

// FormsHandler serves forms at <prefix>/{name}: GET starts a new instance,
// POST processes a submission of a new or stored instance.
type FormsHandler struct {
	source     FormSource
	store      *FormStore
	onComplete CompletionFunc
	instanceID Extractor
	prefix     string
	maxMemory  int64
}

// FormsOption configures a FormsHandler.
type FormsOption func(*FormsHandler)

// WithFormStore replaces the default in-memory store.
func WithFormStore(s *FormStore) FormsOption {
	return func(h *FormsHandler) {
		if s != nil {
			h.store = s
		}
	}
}

// WithCompletion sets the handler for finished forms. The default renders
// the finished form.
func WithCompletion(fn CompletionFunc) FormsOption {
	return func(h *FormsHandler) {
		if fn != nil {
			h.onComplete = fn
		}
	}
}

// WithPathPrefix mounts the routes under prefix. Default: "/forms".
func WithPathPrefix(prefix string) FormsOption {
	return func(h *FormsHandler) {
		h.prefix = "/" + strings.Trim(prefix, "/")
	}
}

// WithMaxMemory sets the in-memory limit for multipart bodies.
func WithMaxMemory(n int64) FormsOption {
	return func(h *FormsHandler) {
		if n > 0 {
			h.maxMemory = n
		}
	}
}

// NewFormsHandler creates a handler serving forms from src.
func NewFormsHandler(src FormSource, opts ...FormsOption) *FormsHandler {
	h := &FormsHandler{
		source:     src,
		onComplete: RenderFinished,
		prefix:     "/forms",
		maxMemory:  DefaultMaxMemory,
		instanceID: NewExtractor(FromForm(InstanceIDParameter), FromHeader(HeaderInstanceID)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		h.store = NewFormStore()
	}
	return h
}

// Store returns the instance store.
func (h *FormsHandler) Store() *FormStore { return h.store }

func (h *FormsHandler) Routes(r Router) {
	r.Route(h.prefix, func(r Router) {
		r.GET("/{name}", h.show)
		r.POST("/{name}", h.submit)
	})
}

func (h *FormsHandler) show(c Context) error {
	name := c.Param("name")
	f, err := h.source.NewForm(c, name)
	if err != nil {
		return definitionError(name, err)
	}
	ctx := logger.WithInstanceID(logger.WithFormID(c, name), f.InstanceID())
	if err := h.store.Put(ctx, name, f); err != nil {
		return ErrInternal("form store unavailable", WithError(err))
	}
	c.Logger().DebugContext(ctx, "form started")
	return h.render(c, http.StatusOK, f)
}

func (h *FormsHandler) submit(c Context) error {
	name := c.Param("name")
	if err := ParseBody(c.Request(), h.maxMemory); err != nil {
		return ErrBadRequest("malformed request body", WithError(err), WithErrorCode("malformed_body"))
	}

	f, err := h.instance(c, name)
	if err != nil {
		return err
	}
	ctx := logger.WithInstanceID(logger.WithFormID(c, name), f.InstanceID())

	req := NewRequest(c.Request(), f.Config().SubmitIDParameter, c.Language(), WithDetachLimit(h.maxMemory))
	finished, err := f.Process(ctx, req)
	if err != nil {
		_ = h.store.Delete(ctx, f.InstanceID())
		f.Release()
		return processError(err)
	}

	if finished {
		defer func() {
			_ = h.store.Delete(ctx, f.InstanceID())
			f.Release()
		}()
		c.HX().Trigger(EventFormFinished, map[string]string{"form": name, "instance": f.InstanceID()})
		c.Logger().InfoContext(ctx, "form finished")
		return h.onComplete(c, name, f)
	}

	if err := h.store.Put(ctx, name, f); err != nil {
		return ErrInternal("form store unavailable", WithError(err))
	}
	status := http.StatusOK
	if errs := f.ValidationErrors(); len(errs) > 0 {
		status = http.StatusUnprocessableEntity
		c.HX().Trigger(EventFormInvalid, map[string]int{"errors": len(errs)})
	}
	return h.render(c, status, f)
}

// instance returns the stored form named by the request, or a new one.
func (h *FormsHandler) instance(c Context, name string) (*formmodel.Form, error) {
	if id, ok := h.instanceID.Extract(c); ok {
		if f, ok := h.store.Get(c, name, id); ok {
			return f, nil
		}
		c.LogDebug("form instance not found, starting a new one", "form", name, "instance", id)
	}
	f, err := h.source.NewForm(c, name)
	if err != nil {
		return nil, definitionError(name, err)
	}
	return f, nil
}

func (h *FormsHandler) render(c Context, status int, f *formmodel.Form) error {
	return RenderForm(c, status, f)
}

// RenderForm writes f as XML when the client asks for it with ?format=xml
// or an Accept header naming application/xml, and as HTML otherwise.
func RenderForm(c Context, status int, f *formmodel.Form) error {
	if c.Query("format") == "xml" || strings.Contains(c.Header("Accept"), "application/xml") {
		return c.Write(status, "application/xml; charset=utf-8", func(w io.Writer) error {
			xw := render.NewXMLWriter(w)
			if err := f.Generate(c, xw); err != nil {
				return err
			}
			return xw.Flush()
		})
	}
	return c.Render(status, render.Component(f))
}

// RenderFinished is the default CompletionFunc.
func RenderFinished(c Context, _ string, f *formmodel.Form) error {
	return RenderForm(c, http.StatusOK, f)
}

// definitionError maps definition lookup failures to HTTP errors.
func definitionError(name string, err error) error {
	switch {
	case errors.Is(err, definitions.ErrNotFound), errors.Is(err, definitions.ErrInvalidName):
		return ErrNotFound("form not found", WithError(err), WithErrorCode("form_not_found"))
	case errors.Is(err, definitions.ErrAccessDenied):
		return ErrForbidden("form not accessible", WithError(err), WithErrorCode("form_forbidden"))
	case errors.Is(err, definitions.ErrSource):
		return ErrServiceUnavailable("form definitions unavailable", WithError(err), WithErrorCode("source_unavailable"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return ErrInternal("form "+name+" is broken", WithError(err), WithErrorCode("broken_definition"))
}

// processError maps fatal processing errors. Broken definitions are server
// errors; everything else was caused by the request.
func processError(err error) error {
	var defErr *formmodel.DefinitionError
	var cycleErr *formmodel.CycleError
	switch {
	case errors.As(err, &defErr), errors.As(err, &cycleErr),
		errors.Is(err, formbuilder.ErrInvalidDocument), errors.Is(err, formmodel.ErrNotResolved):
		return ErrInternal("broken form definition", WithError(err), WithErrorCode("broken_definition"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return ErrBadRequest("malformed form submission", WithError(err), WithErrorCode("malformed_submission"))
}
