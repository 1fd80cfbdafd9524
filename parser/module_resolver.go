package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Source is one COOL compilation unit after import resolution.
type Source struct {
	Path string
	Text string
}

// ResolveImports expands `import "name"` lines of the file at path into
// separate sources. Imported files come before their importer and each file
// appears once. Import and module lines are blanked rather than removed so
// line numbers in diagnostics still match the file on disk.
func ResolveImports(path string, code string) ([]Source, error) {
	r := &resolver{seen: map[string]bool{}}
	if err := r.resolve(path, code); err != nil {
		return nil, err
	}
	return r.sources, nil
}

type resolver struct {
	seen    map[string]bool
	sources []Source
}

func (r *resolver) resolve(path, code string) error {
	key := filepath.Clean(path)
	if r.seen[key] {
		return nil
	}
	r.seen[key] = true

	baseDir := filepath.Dir(path)
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import "), strings.HasPrefix(trimmed, "import\""):
			filename := strings.ToLower(strings.Trim(strings.TrimPrefix(trimmed, "import"), " \";"))
			if !strings.HasSuffix(filename, ".cool") {
				filename += ".cool"
			}

			importPath := filepath.Join(baseDir, filename)
			content, err := os.ReadFile(importPath)
			if err != nil {
				return errors.Wrapf(err, "%s:%d: cannot import %s", path, i+1, filename)
			}
			if err := r.resolve(importPath, string(content)); err != nil {
				return err
			}
			lines[i] = ""
		case strings.HasPrefix(trimmed, "module "):
			lines[i] = ""
		}
	}

	r.sources = append(r.sources, Source{Path: path, Text: strings.Join(lines, "\n")})
	return nil
}
