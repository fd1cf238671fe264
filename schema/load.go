package schema

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Load parses a schema file, choosing the format from its extension
// (.ent, .yaml, .yml). When path is a directory every schema file in it is
// parsed in name order and merged.
func Load(path string) (*ParsedSchema, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, "load schema")
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && isSchemaFile(e.Name()) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)

	out := &ParsedSchema{}
	for _, f := range files {
		s, err := loadFile(f)
		if err != nil {
			return nil, err
		}
		if err := out.Merge(s); err != nil {
			return nil, errors.Wrapf(err, "merge %s", f)
		}
	}
	return out, nil
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ent", ".yaml", ".yml":
		return true
	}
	return false
}

func loadFile(path string) (*ParsedSchema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ent":
		return ParseSchemaFile(path)
	case ".yaml", ".yml":
		return ParseYAMLFile(path)
	}
	return nil, errors.Newf("load schema: unsupported file %q (expected .ent, .yaml or .yml)", path)
}
