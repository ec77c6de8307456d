// Package script runs small user-supplied JavaScript or Lua programs as
// local text tools. Scripts see their input as the INPUT global and produce
// output through console.log / print plus their final expression value.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnsupportedLanguage = errors.New("script: unsupported language")

type Result struct {
	Output string `json:"output"`
}

type Engine interface {
	Execute(ctx context.Context, code string, input map[string]any, timeout time.Duration) (*Result, error)
}

// Lookup returns the engine for lang ("js", "javascript" or "lua").
func Lookup(lang string) (Engine, error) {
	switch strings.ToLower(lang) {
	case "js", "javascript":
		return NewJS(), nil
	case "lua":
		return NewLua(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
}
