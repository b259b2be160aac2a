package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Error codes carried by LoadError.
const (
	ErrCodeNotFound   = "E101"
	ErrCodeFormat     = "E102"
	ErrCodeParse      = "E103"
	ErrCodeValidation = "E104"
)

//go:embed default.yaml
var defaultDeclaration []byte

// LoadError is a declaration that could not be read, parsed or validated.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Load reads a declaration from path. ".yaml" and ".yml" files are decoded
// strictly; ".cue" files are evaluated with CUE first. The result has
// defaults applied and is validated.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error()}
	}

	var f *File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	case ".cue":
		f, err = ParseCUE(path, data)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Path: path, Message: fmt.Sprintf("unsupported extension %q", ext)}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Path == "" {
			le.Path = path
		}
		return nil, err
	}
	return f, nil
}

// ParseYAML decodes a YAML declaration, rejecting unknown fields.
func ParseYAML(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	return finish(&f)
}

// ParseCUE evaluates a CUE declaration and decodes the result. filename is
// used for error positions only.
func ParseCUE(filename string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, cueLoadError("compile CUE", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError("validate CUE", err)
	}

	var f File
	if err := value.Decode(&f); err != nil {
		return nil, cueLoadError("decode CUE", err)
	}
	return finish(&f)
}

// Default returns the built-in declaration.
func Default() *File {
	f, err := ParseYAML(defaultDeclaration)
	if err != nil {
		panic(fmt.Sprintf("built-in declaration: %v", err))
	}
	return f
}

func cueLoadError(action string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", action, err)}
	var cerr cueerrors.Error
	if errors.As(err, &cerr) {
		le.Pos = cerr.Position()
	}
	return le
}

func finish(f *File) (*File, error) {
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeValidation, Message: err.Error()}
	}
	return f, nil
}

func (f *File) applyDefaults() {
	if f.Fixtures.Dir == "" {
		f.Fixtures.Dir = filepath.Join("test", "expected")
	}
	if f.Variant.Axis == "" {
		f.Variant.Axis = "shared"
	}
	if f.Variant.Shared == "" {
		f.Variant.Shared = "ON"
	}
	if f.Variant.Static == "" {
		f.Variant.Static = "OFF"
	}
	for name, p := range f.Platforms {
		if p.Build.SourceDir == "" {
			p.Build.SourceDir = ".."
		}
		if p.Build.BuildDir == "" {
			p.Build.BuildDir = "build"
		}
		f.Platforms[name] = p
	}
}
