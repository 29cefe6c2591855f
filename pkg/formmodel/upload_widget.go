package formmodel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrymomot/formtree/pkg/render"
	"github.com/dmitrymomot/formtree/pkg/upload"
)

// PartStore persists accepted uploads.
type PartStore interface {
	Put(ctx context.Context, p upload.Part, opts ...upload.PutOption) (*upload.Stored, error)
}

// Upload holds one uploaded part. A part that is replaced, rejected or
// cleared is released immediately.
type Upload struct {
	widgetBase
	def      *UploadDefinition
	part     upload.Part
	rejected *upload.RuleError
}

func (u *Upload) Kind() string { return "upload" }

func (u *Upload) Value() any {
	if u.part == nil {
		return nil
	}
	return u.part
}

// Part returns the accepted part, nil when none.
func (u *Upload) Part() upload.Part { return u.part }

// SetValue accepts an upload.Part or nil. The widget takes ownership of the part.
func (u *Upload) SetValue(v any) error {
	switch x := v.(type) {
	case nil:
		return u.replace(nil)
	case upload.Part:
		return u.replace(x)
	}
	return fmt.Errorf("%w: %T is not an upload part for %q", ErrInvalidValue, v, u.FullyQualifiedID())
}

func (u *Upload) replace(p upload.Part) error {
	u.rejected = nil
	old := u.part
	if old == p {
		return nil
	}
	u.part = p
	if old != nil {
		if err := old.Release(); err != nil {
			u.logger().Warn("release upload", "widget", u.FullyQualifiedID(), "error", err)
		}
	}
	return u.raise(&ValueChangedEvent{Widget: u, Old: old, New: p})
}

func (u *Upload) ReadFromRequest(req Request) error {
	if !u.CombinedState().AcceptsInput() {
		return nil
	}
	p, ok := req.File(u.RequestParameterName())
	if !ok {
		return nil
	}
	if err := upload.Check(p, u.def.rules()...); err != nil {
		var re *upload.RuleError
		if !errors.As(err, &re) {
			return err
		}
		if err := p.Release(); err != nil {
			u.logger().Warn("release rejected upload", "widget", u.FullyQualifiedID(), "error", err)
		}
		u.rejected = re
		return nil
	}
	return u.replace(p)
}

func (u *Upload) Validate() bool {
	u.validationError = nil
	if !u.CombinedState().Validates() {
		return true
	}
	if u.rejected != nil {
		values := map[string]any{"code": u.rejected.Code}
		if got, ok := u.rejected.Details["got"]; ok {
			values["size"] = got
		}
		if limit, ok := u.rejected.Details["limit"]; ok {
			values["limit"] = limit
		}
		u.validationError = validationFailure(u, "validation.upload."+u.rejected.Code, u.rejected.Message, values)
		return false
	}
	if u.part == nil {
		if u.def.required {
			u.validationError = validationFailure(u, "validation.required", "is required", nil)
			return false
		}
		return true
	}
	return runValidators(u)
}

// Store persists the accepted part.
func (u *Upload) Store(ctx context.Context, store PartStore, opts ...upload.PutOption) (*upload.Stored, error) {
	if u.part == nil {
		return nil, fmt.Errorf("%w: no file uploaded for %q", ErrInvalidValue, u.FullyQualifiedID())
	}
	return store.Put(ctx, u.part, opts...)
}

// Release frees the held part.
func (u *Upload) Release() error {
	if u.part == nil {
		return nil
	}
	p := u.part
	u.part = nil
	return p.Release()
}

func (u *Upload) renderAttrs() []render.Attr {
	var attrs []render.Attr
	if u.def.required {
		attrs = append(attrs, render.Attr{Name: "required", Value: "true"})
	}
	if u.def.maxSize > 0 {
		attrs = append(attrs, render.Attr{Name: "max-size", Value: strconv.FormatInt(u.def.maxSize, 10)})
	}
	return attrs
}

func (u *Upload) generateContent(_ context.Context, sink render.Sink) error {
	if u.part == nil {
		return nil
	}
	return render.TextElement(sink, "value", u.part.Filename(),
		render.Attr{Name: "size", Value: strconv.FormatInt(u.part.Size(), 10)},
		render.Attr{Name: "mime-type", Value: u.part.ContentType()})
}

// releaseResources frees request-scoped resources held below w.
func releaseResources(w Widget) {
	switch x := w.(type) {
	case *Upload:
		_ = x.Release()
	case containerWidget:
		for _, c := range x.Children() {
			releaseResources(c)
		}
	}
}
