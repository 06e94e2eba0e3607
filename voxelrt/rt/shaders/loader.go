package shaders

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/gogpu/naga"
)

// Loader resolves shader entry points against a file tree.
type Loader struct {
	FS fs.FS

	// Validate runs the expanded source through naga before it is handed
	// to the device, which gives file-level diagnostics instead of a
	// driver validation panic.
	Validate bool

	// Warnf receives validation results naga cannot judge. May be nil.
	Warnf func(format string, args ...any)
}

func NewLoader(fsys fs.FS, validate bool) *Loader {
	return &Loader{FS: fsys, Validate: validate}
}

// Load expands name and, if enabled, validates the result.
func (l *Loader) Load(name string) (string, error) {
	src, err := LoadWithImports(l.FS, name)
	if err != nil {
		return "", err
	}
	if !l.Validate {
		return src, nil
	}

	if err := Check(src); err != nil {
		if !IsUnsupported(err) {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		if l.Warnf != nil {
			l.Warnf("shader %s not fully checked: %v", name, err)
		}
	}
	return src, nil
}

// Check compiles WGSL source with naga and discards the output.
func Check(src string) error {
	if _, err := naga.Compile(src); err != nil {
		return fmt.Errorf("invalid wgsl: %w", err)
	}
	return nil
}

// IsUnsupported reports whether err comes from a naga feature gap rather
// than from a broken shader.
func IsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported")
}
