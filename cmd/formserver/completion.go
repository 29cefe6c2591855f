package main

import (
	"net/http"
	"path"

	"github.com/dmitrymomot/formtree"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/upload"
)

// submission is the JSON answer for a finished form.
type submission struct {
	Form     string         `json:"form"`
	Instance string         `json:"instance"`
	Values   map[string]any `json:"values"`
}

// completion answers finished forms with their values. With a store,
// uploads are persisted under prefix/form/instance and replaced by their
// storage descriptors; without one, by their file names.
func completion(store formmodel.PartStore, prefix string) formtree.CompletionFunc {
	return func(c formtree.Context, name string, f *formmodel.Form) error {
		values := f.Values()
		for id, v := range values {
			part, ok := v.(upload.Part)
			if !ok {
				continue
			}
			if store == nil {
				values[id] = part.Filename()
				continue
			}
			w, ok := f.LookupFullyQualified(id).(*formmodel.Upload)
			if !ok {
				continue
			}
			stored, err := w.Store(c, store, upload.WithPrefix(path.Join(prefix, name, f.InstanceID())))
			if err != nil {
				c.LogError("store upload", "widget", id, "error", err)
				return formtree.NewHTTPError(http.StatusBadGateway, "upload could not be stored")
			}
			values[id] = stored
		}

		return c.JSON(http.StatusOK, submission{Form: name, Instance: f.InstanceID(), Values: values})
	}
}
