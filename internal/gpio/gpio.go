// Package gpio simulates a bank of general purpose I/O pins. Commands and
// scripts drive it the same way they would drive board pins, and the serial
// transport reserves the pins it is routed through.
package gpio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultPins is the size of the bank created by NewBank(0).
const DefaultPins = 40

// AnalogMax is the full-scale reading of the 12-bit converter.
const AnalogMax = 4095

// Mode is a pin configuration.
type Mode int

const (
	Unconfigured Mode = iota
	Input
	InputPullup
	InputPulldown
	Output
)

var modeNames = map[Mode]string{
	Unconfigured:  "UNCONFIGURED",
	Input:         "INPUT",
	InputPullup:   "INPUT_PULLUP",
	InputPulldown: "INPUT_PULLDOWN",
	Output:        "OUTPUT",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range modeNames {
		if m != Unconfigured && name == upper {
			return m, nil
		}
	}
	return Unconfigured, fmt.Errorf("unknown pin mode %q (want INPUT, INPUT_PULLUP, INPUT_PULLDOWN or OUTPUT)", s)
}

// ParseLevel parses a digital level: HIGH/LOW or 1/0.
func ParseLevel(s string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "HIGH":
		return 1, nil
	case "0", "LOW":
		return 0, nil
	}
	return 0, fmt.Errorf("invalid level %q (want HIGH, LOW, 1 or 0)", s)
}

var (
	// ErrInvalidPin is returned for pin numbers outside the bank.
	ErrInvalidPin = errors.New("invalid pin")
	// ErrReserved is returned when a pin is owned by another peripheral.
	ErrReserved = errors.New("pin reserved")
	// ErrNotOutput is returned when writing a pin not configured as output.
	ErrNotOutput = errors.New("pin is not an output")
)

type pin struct {
	mode     Mode
	level    int // driven level (output) or external level (input)
	floating bool
	analog   int
	owner    string
}

// Bank is a set of simulated pins. It is safe for concurrent use.
type Bank struct {
	mu   sync.Mutex
	pins []pin
}

// NewBank creates a bank of n pins (DefaultPins if n <= 0).
func NewBank(n int) *Bank {
	if n <= 0 {
		n = DefaultPins
	}
	b := &Bank{pins: make([]pin, n)}
	for i := range b.pins {
		b.pins[i].floating = true
	}
	return b
}

// Len returns the number of pins.
func (b *Bank) Len() int {
	return len(b.pins)
}

func (b *Bank) get(n int) (*pin, error) {
	if n < 0 || n >= len(b.pins) {
		return nil, fmt.Errorf("%w %d (bank has %d pins)", ErrInvalidPin, n, len(b.pins))
	}
	return &b.pins[n], nil
}

// Reserve marks a pin as owned by a peripheral. Reserved pins reject mode
// changes and reads or writes from anyone else.
func (b *Bank) Reserve(n int, owner string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.get(n)
	if err != nil {
		return err
	}
	if p.owner != "" && p.owner != owner {
		return fmt.Errorf("%w: pin %d owned by %s", ErrReserved, n, p.owner)
	}
	p.owner = owner
	return nil
}

// Release frees a pin held by owner. Pins held by anyone else are left
// alone.
func (b *Bank) Release(n int, owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, err := b.get(n); err == nil && p.owner == owner {
		p.owner = ""
	}
}

// Owner returns the peripheral holding a pin, or "".
func (b *Bank) Owner(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, err := b.get(n); err == nil {
		return p.owner
	}
	return ""
}

func (b *Bank) usable(n int) (*pin, error) {
	p, err := b.get(n)
	if err != nil {
		return nil, err
	}
	if p.owner != "" {
		return nil, fmt.Errorf("%w: pin %d owned by %s", ErrReserved, n, p.owner)
	}
	return p, nil
}

// SetMode configures a pin.
func (b *Bank) SetMode(n int, m Mode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.usable(n)
	if err != nil {
		return err
	}
	if _, ok := modeNames[m]; !ok || m == Unconfigured {
		return fmt.Errorf("pin %d: invalid mode %v", n, m)
	}
	p.mode = m
	return nil
}

// Mode returns the current configuration of a pin.
func (b *Bank) Mode(n int) (Mode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.get(n)
	if err != nil {
		return Unconfigured, err
	}
	return p.mode, nil
}

// DigitalWrite drives an output pin.
func (b *Bank) DigitalWrite(n, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.usable(n)
	if err != nil {
		return err
	}
	if p.mode != Output {
		return fmt.Errorf("pin %d: %w", n, ErrNotOutput)
	}
	p.level = normalize(level)
	p.floating = false
	return nil
}

// DigitalRead samples a pin. Outputs read back their driven level; inputs
// read the external level, or their pull resistor while floating.
func (b *Bank) DigitalRead(n int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.usable(n)
	if err != nil {
		return 0, err
	}
	if p.mode == Output || !p.floating {
		return p.level, nil
	}
	if p.mode == InputPullup {
		return 1, nil
	}
	return 0, nil
}

// AnalogRead samples a pin through the 12-bit converter.
func (b *Bank) AnalogRead(n int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.usable(n)
	if err != nil {
		return 0, err
	}
	return p.analog, nil
}

// Drive sets the external level seen by an input pin, simulating a signal
// applied to it. A negative level leaves the pin floating.
func (b *Bank) Drive(n, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.get(n)
	if err != nil {
		return err
	}
	if p.mode == Output {
		return fmt.Errorf("pin %d: cannot drive an output", n)
	}
	if level < 0 {
		p.floating, p.level = true, 0
		return nil
	}
	p.floating, p.level = false, normalize(level)
	return nil
}

// SetAnalog sets the voltage seen by the converter on a pin, clamped to
// [0, AnalogMax].
func (b *Bank) SetAnalog(n, value int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.get(n)
	if err != nil {
		return err
	}
	p.analog = min(max(value, 0), AnalogMax)
	return nil
}

func normalize(level int) int {
	if level != 0 {
		return 1
	}
	return 0
}
