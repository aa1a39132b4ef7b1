// Package text provides the `board:text` module: display-width helpers for
// laying out output on a fixed-width terminal.
//
//	const text = require('board:text');
//	text.width("日本");           // 4
//	text.length("café");   // 4
//	text.truncate("abcdef", 4);  // "a..."
//	text.pad("id", 4) + "|";     // "id  |"
package text

import (
	"errors"
	"strings"

	"github.com/dop251/goja"
	"github.com/rivo/uniseg"
)

// DefaultTail marks truncated text.
const DefaultTail = "..."

// Require returns a module loader for `board:text`.
func Require() func(runtime *goja.Runtime, module *goja.Object) {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		_ = exports.Set("width", func(call goja.FunctionCall) goja.Value {
			return runtime.ToValue(uniseg.StringWidth(stringArg(call, 0)))
		})

		_ = exports.Set("length", func(call goja.FunctionCall) goja.Value {
			return runtime.ToValue(uniseg.GraphemeClusterCount(stringArg(call, 0)))
		})

		// truncate(s: string, maxWidth: number, tail?: string): string
		_ = exports.Set("truncate", func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(runtime.NewGoError(errors.New("truncate: expected string and width")))
			}
			tail := DefaultTail
			if len(call.Arguments) > 2 {
				tail = call.Argument(2).String()
			}
			return runtime.ToValue(Truncate(stringArg(call, 0), int(call.Argument(1).ToInteger()), tail))
		})

		// pad(s: string, width: number): string
		_ = exports.Set("pad", func(call goja.FunctionCall) goja.Value {
			return runtime.ToValue(Pad(stringArg(call, 0), int(call.Argument(1).ToInteger())))
		})
	}
}

func stringArg(call goja.FunctionCall, i int) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// Truncate cuts s on a grapheme boundary so that it, plus tail, fits in
// maxWidth columns. A tail wider than maxWidth is returned alone.
func Truncate(s string, maxWidth int, tail string) string {
	if uniseg.StringWidth(s) <= maxWidth {
		return s
	}
	tailWidth := uniseg.StringWidth(tail)
	if tailWidth > maxWidth {
		return tail
	}
	budget := maxWidth - tailWidth

	var b strings.Builder
	state := -1
	used := 0
	for rest := s; rest != ""; {
		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+width > budget {
			break
		}
		used += width
		b.WriteString(cluster)
	}
	b.WriteString(tail)
	return b.String()
}

// Pad right-pads s with spaces to width columns.
func Pad(s string, width int) string {
	if n := width - uniseg.StringWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
