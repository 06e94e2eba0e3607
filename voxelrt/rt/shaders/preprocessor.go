package shaders

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

const (
	// Extension is appended to every import path.
	Extension = ".wgsl"

	directiveMarker = "#"
	importDirective = "#import "
)

var (
	ErrUnknownDirective = errors.New("unknown preprocessor directive")
	ErrImportCycle      = errors.New("import cycle")
)

// LoadWithImports reads name from fsys and expands its import directives.
//
// A line "#import <path>" is replaced by the expanded contents of
// <path>.wgsl, resolved against the directory of the importing file. Any
// other line starting with '#' is an error. Every emitted line ends with a
// single newline, so the expansion of a tree equals the depth-first
// concatenation of its plain lines.
func LoadWithImports(fsys fs.FS, name string) (string, error) {
	var out strings.Builder
	if err := expand(fsys, name, &out, nil); err != nil {
		return "", err
	}
	return out.String(), nil
}

func expand(fsys fs.FS, name string, out *strings.Builder, stack []string) error {
	for _, parent := range stack {
		if parent == name {
			return fmt.Errorf("%w: %s -> %s", ErrImportCycle, strings.Join(stack, " -> "), name)
		}
	}
	stack = append(stack, name)

	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read shader %s: %w", name, err)
	}

	dir := path.Dir(name)
	scanner := bufio.NewScanner(bytes.NewReader(src))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if !strings.HasPrefix(line, directiveMarker) {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		target, ok := strings.CutPrefix(line, importDirective)
		if !ok {
			return fmt.Errorf("%s:%d: %w: %q", name, lineNo, ErrUnknownDirective, line)
		}
		if err := expand(fsys, path.Join(dir, target+Extension), out, stack); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	return scanner.Err()
}
