package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

type JS struct{}

func NewJS() *JS {
	return &JS{}
}

func (r *JS) Execute(ctx context.Context, code string, input map[string]any, timeout time.Duration) (*Result, error) {
	vm := goja.New()

	var output strings.Builder
	console := vm.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.String()
		}
		output.WriteString(strings.Join(args, " "))
		output.WriteString("\n")
		return goja.Undefined()
	})
	vm.Set("console", console)

	if input == nil {
		input = map[string]any{}
	}
	vm.Set("INPUT", input)

	done := make(chan struct{})
	go func() {
		select {
		case <-time.After(timeout):
			vm.Interrupt("timeout")
		case <-ctx.Done():
			vm.Interrupt("cancelled")
		case <-done:
		}
	}()
	defer close(done)

	val, err := vm.RunString(code)
	if err != nil {
		return nil, fmt.Errorf("js: %w", err)
	}

	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		output.WriteString(exportString(val.Export()))
	}

	return &Result{Output: output.String()}, nil
}

func exportString(v any) string {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case map[string]any, []any:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}
