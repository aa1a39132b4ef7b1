// Package fs provides the `board:fs` module: file access confined to the
// console filesystem, resolved against the console's working directory.
package fs

import (
	"github.com/dop251/goja"
	"github.com/joeycumines/ttyconsole/internal/vfs"
)

// Require returns a module loader for `board:fs` backed by fsys.
func Require(fsys *vfs.FS) func(runtime *goja.Runtime, module *goja.Object) {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		throw := func(err error) {
			if err != nil {
				panic(runtime.NewGoError(err))
			}
		}
		pathArg := func(call goja.FunctionCall, i int) string {
			if goja.IsUndefined(call.Argument(i)) {
				return "."
			}
			return call.Argument(i).String()
		}

		// readFile(path: string): string
		_ = exports.Set("readFile", func(call goja.FunctionCall) goja.Value {
			data, err := fsys.ReadFile(pathArg(call, 0))
			throw(err)
			return runtime.ToValue(string(data))
		})

		// writeFile(path: string, content: string)
		_ = exports.Set("writeFile", func(call goja.FunctionCall) goja.Value {
			throw(fsys.WriteFile(pathArg(call, 0), []byte(call.Argument(1).String())))
			return goja.Undefined()
		})

		// exists(path: string): boolean
		_ = exports.Set("exists", func(call goja.FunctionCall) goja.Value {
			return runtime.ToValue(fsys.Exists(pathArg(call, 0)))
		})

		// readDir(path?: string): {name, dir, size}[]
		_ = exports.Set("readDir", func(call goja.FunctionCall) goja.Value {
			entries, err := fsys.ReadDir(pathArg(call, 0))
			throw(err)
			out := make([]any, 0, len(entries))
			for _, e := range entries {
				var size int64
				if info, err := e.Info(); err == nil {
					size = info.Size()
				}
				out = append(out, map[string]any{
					"name": e.Name(),
					"dir":  e.IsDir(),
					"size": size,
				})
			}
			return runtime.ToValue(out)
		})

		// cwd(): string
		_ = exports.Set("cwd", func(call goja.FunctionCall) goja.Value {
			return runtime.ToValue(fsys.Getwd())
		})

		// chdir(path: string)
		_ = exports.Set("chdir", func(call goja.FunctionCall) goja.Value {
			throw(fsys.Chdir(pathArg(call, 0)))
			return goja.Undefined()
		})

		// mkdir(path: string)
		_ = exports.Set("mkdir", func(call goja.FunctionCall) goja.Value {
			throw(fsys.Mkdir(pathArg(call, 0)))
			return goja.Undefined()
		})

		// remove(path: string)
		_ = exports.Set("remove", func(call goja.FunctionCall) goja.Value {
			throw(fsys.Remove(pathArg(call, 0)))
			return goja.Undefined()
		})

		// rename(src: string, dst: string)
		_ = exports.Set("rename", func(call goja.FunctionCall) goja.Value {
			throw(fsys.Rename(pathArg(call, 0), pathArg(call, 1)))
			return goja.Undefined()
		})
	}
}
