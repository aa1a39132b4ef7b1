// Package builtin wires the native `board:*` modules into a require registry.
package builtin

import (
	"context"

	"github.com/dop251/goja_nodejs/require"
	fsmod "github.com/joeycumines/ttyconsole/internal/builtin/fs"
	gpiomod "github.com/joeycumines/ttyconsole/internal/builtin/gpio"
	sysmod "github.com/joeycumines/ttyconsole/internal/builtin/sys"
	textmod "github.com/joeycumines/ttyconsole/internal/builtin/text"
	"github.com/joeycumines/ttyconsole/internal/gpio"
	"github.com/joeycumines/ttyconsole/internal/vfs"
)

// Prefix namespaces the native modules.
const Prefix = "board:"

// Deps are the console resources exposed to scripts. Modules whose resource
// is nil are not registered.
type Deps struct {
	Pins      *gpio.Bank
	FS        *vfs.FS
	LookupEnv func(string) (string, bool)
}

// Register registers the native modules with registry.
func Register(ctx context.Context, registry *require.Registry, deps Deps) {
	if deps.Pins != nil {
		registry.RegisterNativeModule(Prefix+"gpio", gpiomod.Require(deps.Pins))
	}
	if deps.FS != nil {
		registry.RegisterNativeModule(Prefix+"fs", fsmod.Require(deps.FS))
	}
	registry.RegisterNativeModule(Prefix+"sys", sysmod.Require(ctx, deps.LookupEnv))
	registry.RegisterNativeModule(Prefix+"text", textmod.Require())
}
