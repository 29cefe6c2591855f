package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages
var builtin embed.FS

// WithBuiltinMessages loads the bundled English and German validation
// messages. Options applied later override individual keys.
func WithBuiltinMessages() Option {
	return func(c *Catalog) error {
		sub, err := fs.Sub(builtin, "messages")
		if err != nil {
			return err
		}
		return loadDir(c, sub, ".yaml", yaml.Unmarshal)
	}
}

// WithYAMLDir loads messages from {lang}/{namespace}.yaml (or .yml) files.
// The namespace prefixes every key of its file, so en/validation.yaml
// with a "required" entry defines "validation.required".
func WithYAMLDir(fsys fs.FS) Option {
	return func(c *Catalog) error {
		return loadDir(c, fsys, ".yaml", yaml.Unmarshal)
	}
}

// WithJSONDir loads messages from {lang}/{namespace}.json files.
func WithJSONDir(fsys fs.FS) Option {
	return func(c *Catalog) error {
		return loadDir(c, fsys, ".json", json.Unmarshal)
	}
}

func loadDir(c *Catalog, fsys fs.FS, ext string, unmarshal func([]byte, any) error) error {
	return fs.WalkDir(fsys, ".", func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		fileExt := strings.ToLower(path.Ext(filePath))
		if fileExt != ext && (ext != ".yaml" || fileExt != ".yml") {
			return nil
		}

		dir := path.Dir(filePath)
		if dir == "." {
			return fmt.Errorf("%w: file %q must be inside a language directory", ErrInvalidFile, filePath)
		}
		lang := path.Base(dir)
		namespace := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("reading %q: %w", filePath, err)
		}
		var messages map[string]any
		if err := unmarshal(data, &messages); err != nil {
			return fmt.Errorf("%w: parsing %q: %s", ErrInvalidFile, filePath, err)
		}
		return c.add(lang, map[string]any{namespace: messages})
	})
}
