// Package gpio provides the `board:gpio` module, giving scripts access to the
// console's pin bank.
package gpio

import (
	"github.com/dop251/goja"
	pins "github.com/joeycumines/ttyconsole/internal/gpio"
)

// Require returns a module loader for `board:gpio` backed by bank.
func Require(bank *pins.Bank) func(runtime *goja.Runtime, module *goja.Object) {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		throw := func(err error) {
			if err != nil {
				panic(runtime.NewGoError(err))
			}
		}
		pinArg := func(call goja.FunctionCall) int {
			return int(call.Argument(0).ToInteger())
		}

		_ = exports.Set("HIGH", 1)
		_ = exports.Set("LOW", 0)
		for _, m := range []pins.Mode{pins.Input, pins.InputPullup, pins.InputPulldown, pins.Output} {
			_ = exports.Set(m.String(), m.String())
		}

		// pinMode(pin: number, mode: string)
		_ = exports.Set("pinMode", func(call goja.FunctionCall) goja.Value {
			mode, err := pins.ParseMode(call.Argument(1).String())
			throw(err)
			throw(bank.SetMode(pinArg(call), mode))
			return goja.Undefined()
		})

		// digitalWrite(pin: number, level: number|string)
		_ = exports.Set("digitalWrite", func(call goja.FunctionCall) goja.Value {
			level, err := levelArg(call.Argument(1))
			throw(err)
			throw(bank.DigitalWrite(pinArg(call), level))
			return goja.Undefined()
		})

		// digitalRead(pin: number): number
		_ = exports.Set("digitalRead", func(call goja.FunctionCall) goja.Value {
			level, err := bank.DigitalRead(pinArg(call))
			throw(err)
			return runtime.ToValue(level)
		})

		// analogRead(pin: number): number
		_ = exports.Set("analogRead", func(call goja.FunctionCall) goja.Value {
			v, err := bank.AnalogRead(pinArg(call))
			throw(err)
			return runtime.ToValue(v)
		})

		// mode(pin: number): string
		_ = exports.Set("mode", func(call goja.FunctionCall) goja.Value {
			m, err := bank.Mode(pinArg(call))
			throw(err)
			return runtime.ToValue(m.String())
		})
	}
}

func levelArg(v goja.Value) (int, error) {
	switch v.Export().(type) {
	case int64, float64:
		if v.ToInteger() != 0 {
			return 1, nil
		}
		return 0, nil
	case bool:
		if v.ToBoolean() {
			return 1, nil
		}
		return 0, nil
	}
	return pins.ParseLevel(v.String())
}
