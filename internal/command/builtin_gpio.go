package command

import (
	"fmt"
	"strconv"

	"github.com/joeycumines/ttyconsole/internal/gpio"
)

// RegisterGPIOCommands registers pinMode, digitalRead, digitalWrite and
// analogRead against bank.
func RegisterGPIOCommands(r *Registry, bank *gpio.Bank) {
	r.RegisterGroup(GroupGPIO,
		NewFunc("pinMode", "Configure a pin", "pinMode pin INPUT|INPUT_PULLUP|INPUT_PULLDOWN|OUTPUT", nil,
			func(inv *Invocation) int {
				if inv.NArg() != 2 {
					return inv.Failf("expected pin and mode")
				}
				pin, err := nextPin(inv)
				if err != nil {
					return inv.Failf("%v", err)
				}
				arg, _ := inv.Next()
				mode, err := gpio.ParseMode(arg)
				if err != nil {
					return inv.Failf("%v", err)
				}
				if err := bank.SetMode(pin, mode); err != nil {
					return inv.Failf("%v", err)
				}
				return 0
			}),
		NewFunc("digitalRead", "Read the level of a pin", "digitalRead pin", nil,
			func(inv *Invocation) int {
				pin, err := nextPin(inv)
				if err != nil {
					return inv.Failf("%v", err)
				}
				v, err := bank.DigitalRead(pin)
				if err != nil {
					return inv.Failf("%v", err)
				}
				level := "LOW"
				if v != 0 {
					level = "HIGH"
				}
				_, _ = fmt.Fprintln(inv.Stdout, level)
				return 0
			}),
		NewFunc("digitalWrite", "Drive an output pin", "digitalWrite pin HIGH|LOW", nil,
			func(inv *Invocation) int {
				if inv.NArg() != 2 {
					return inv.Failf("expected pin and level")
				}
				pin, err := nextPin(inv)
				if err != nil {
					return inv.Failf("%v", err)
				}
				arg, _ := inv.Next()
				level, err := gpio.ParseLevel(arg)
				if err != nil {
					return inv.Failf("%v", err)
				}
				if err := bank.DigitalWrite(pin, level); err != nil {
					return inv.Failf("%v", err)
				}
				return 0
			}),
		NewFunc("analogRead", "Sample a pin with the analog converter", "analogRead pin", nil,
			func(inv *Invocation) int {
				pin, err := nextPin(inv)
				if err != nil {
					return inv.Failf("%v", err)
				}
				v, err := bank.AnalogRead(pin)
				if err != nil {
					return inv.Failf("%v", err)
				}
				_, _ = fmt.Fprintln(inv.Stdout, v)
				return 0
			}),
	)
}

func nextPin(inv *Invocation) (int, error) {
	arg, ok := inv.Next()
	if !ok {
		return 0, fmt.Errorf("missing pin")
	}
	pin, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", arg)
	}
	return pin, nil
}
