package render

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Component wraps g as a templ component producing HTML.
func Component(g Generator) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := NewHTMLWriter(w)
		if err := g.Generate(ctx, hw); err != nil {
			return err
		}
		return hw.Flush()
	})
}
