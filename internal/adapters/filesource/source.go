// internal/adapters/filesource/source.go
package filesource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stdin is the pseudo-name that reads standard input.
const Stdin = "-"

// Source implements domain.Source on the local filesystem.
type Source struct {
	stdin io.Reader
	exts  map[string]struct{}
}

// New returns a Source that expands directories to files with one of exts.
func New(stdin io.Reader, exts ...string) *Source {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = struct{}{}
	}
	return &Source{stdin: stdin, exts: set}
}

// Expand turns paths into a flat list of document names. Files and "-" pass
// through; directories expand to their direct children with a known
// extension, sorted by name.
func (s *Source) Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if p == Stdin {
			out = append(out, p)
			continue
		}
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !st.IsDir() {
			out = append(out, p)
			continue
		}
		ents, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		var files []string
		for _, e := range ents {
			if e.IsDir() {
				continue
			}
			if _, ok := s.exts[strings.ToLower(filepath.Ext(e.Name()))]; ok {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

func (s *Source) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == Stdin {
		if s.stdin == nil {
			return nil, fmt.Errorf("read stdin: no reader")
		}
		b, err := io.ReadAll(s.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}
