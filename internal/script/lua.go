package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

type Lua struct{}

func NewLua() *Lua {
	return &Lua{}
}

func (r *Lua) Execute(ctx context.Context, code string, input map[string]any, timeout time.Duration) (*Result, error) {
	L := lua.NewState()
	defer L.Close()

	var output strings.Builder
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			if i > 1 {
				output.WriteString("\t")
			}
			output.WriteString(L.ToStringMeta(L.Get(i)).String())
		}
		output.WriteString("\n")
		return 0
	}))

	inputTable := L.NewTable()
	for k, v := range input {
		L.SetField(inputTable, k, toLua(L, v))
	}
	L.SetGlobal("INPUT", inputTable)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	L.SetContext(ctx)

	// Compile as a chunk so a trailing `return x` becomes the result.
	fn, err := L.LoadString(code)
	if err != nil {
		return nil, fmt.Errorf("lua: %w", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("lua: %w", err)
	}

	if ret := L.Get(-1); ret != lua.LNil {
		str, err := luaString(ret)
		if err != nil {
			return nil, fmt.Errorf("lua: %w", err)
		}
		output.WriteString(str)
	}

	return &Result{Output: output.String()}, nil
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(float64(val))
	case int64:
		return lua.LNumber(float64(val))
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case map[string]any:
		t := L.NewTable()
		for k, v := range val {
			L.SetField(t, k, toLua(L, v))
		}
		return t
	case []any:
		t := L.NewTable()
		for i, v := range val {
			L.SetTable(t, lua.LNumber(i+1), toLua(L, v))
		}
		return t
	case []string:
		t := L.NewTable()
		for i, s := range val {
			L.SetTable(t, lua.LNumber(i+1), lua.LString(s))
		}
		return t
	default:
		return lua.LNil
	}
}

func luaString(v lua.LValue) (string, error) {
	switch val := v.(type) {
	case lua.LNumber:
		n := float64(val)
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n)), nil
		}
		return fmt.Sprintf("%g", n), nil
	case lua.LString:
		return string(val), nil
	case lua.LBool:
		return fmt.Sprintf("%t", bool(val)), nil
	case *lua.LTable:
		conv, err := fromLua(val, make(map[*lua.LTable]struct{}), 0)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(conv)
		if err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		return string(b), nil
	default:
		return "", nil
	}
}

const maxTableDepth = 64

var (
	errCyclicTable = errors.New("result table references itself")
	errTableDepth  = errors.New("result table nested too deeply")
)

// fromLua converts tables with keys 1..n to slices and all others to maps.
// active holds the tables on the current path.
func fromLua(v lua.LValue, active map[*lua.LTable]struct{}, depth int) (any, error) {
	switch val := v.(type) {
	case lua.LNumber:
		return float64(val), nil
	case lua.LString:
		return string(val), nil
	case lua.LBool:
		return bool(val), nil
	case *lua.LTable:
		if _, ok := active[val]; ok {
			return nil, errCyclicTable
		}
		if depth >= maxTableDepth {
			return nil, errTableDepth
		}
		active[val] = struct{}{}
		defer delete(active, val)

		if n := val.Len(); n > 0 && val.MaxN() == n {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				item, err := fromLua(val.RawGetInt(i), active, depth+1)
				if err != nil {
					return nil, err
				}
				arr = append(arr, item)
			}
			return arr, nil
		}
		m := make(map[string]any)
		var firstErr error
		val.ForEach(func(k, v lua.LValue) {
			if firstErr != nil {
				return
			}
			item, err := fromLua(v, active, depth+1)
			if err != nil {
				firstErr = err
				return
			}
			m[k.String()] = item
		})
		if firstErr != nil {
			return nil, firstErr
		}
		return m, nil
	default:
		return nil, nil
	}
}
