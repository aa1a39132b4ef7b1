// Package serial selects and binds the serial channel the console talks over.
//
// Channel 0 is the diagnostic default: the process standard streams. Other
// channels are character devices named by a pattern (e.g. /dev/ttyS%d) that
// are configured for raw 8N1 line discipline and then take over file
// descriptors 0, 1 and 2.
package serial

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// DefaultChannel is the channel served by the process standard streams.
const DefaultChannel = 0

// StandardBauds lists the supported baud rates.
var StandardBauds = []int{
	1200, 2400, 4800, 9600, 19200, 38400, 57600,
	115200, 230400, 460800, 921600,
}

// ErrUnsupported is returned by Bind on platforms without termios support.
var ErrUnsupported = errors.New("serial: alternate channels not supported on this platform")

// Config describes the requested transport.
type Config struct {
	Channel int
	Baud    int
	// RxPin and TxPin override the channel's default pins. -1 keeps the
	// default; both must be set together.
	RxPin int
	TxPin int
	// DevicePattern is formatted with the channel number.
	DevicePattern string
	// Channels is the number of channels the board exposes.
	Channels int
}

// ConfigError reports an invalid transport configuration.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("serial: invalid %s %s: %s", e.Field, e.Value, e.Reason)
}

// Port is a validated transport selection.
type Port struct {
	Config
	// Device is the device path, empty for the default channel.
	Device string
}

// Select validates cfg and resolves the device for its channel.
func Select(cfg Config) (Port, error) {
	if cfg.Channels < 1 {
		return Port{}, &ConfigError{Field: "channel count", Value: strconv.Itoa(cfg.Channels), Reason: "must be positive"}
	}
	if cfg.Channel < 0 || cfg.Channel >= cfg.Channels {
		return Port{}, &ConfigError{
			Field:  "channel",
			Value:  strconv.Itoa(cfg.Channel),
			Reason: fmt.Sprintf("must be between 0 and %d", cfg.Channels-1),
		}
	}
	if !slices.Contains(StandardBauds, cfg.Baud) {
		return Port{}, &ConfigError{Field: "baud rate", Value: strconv.Itoa(cfg.Baud), Reason: "not a standard rate"}
	}
	if (cfg.RxPin < 0) != (cfg.TxPin < 0) {
		return Port{}, &ConfigError{
			Field:  "pin override",
			Value:  fmt.Sprintf("rx=%d tx=%d", cfg.RxPin, cfg.TxPin),
			Reason: "rx and tx must be set together",
		}
	}
	if cfg.RxPin >= 0 && cfg.RxPin == cfg.TxPin {
		return Port{}, &ConfigError{Field: "pin override", Value: strconv.Itoa(cfg.RxPin), Reason: "rx and tx must differ"}
	}

	p := Port{Config: cfg}
	if cfg.Channel != DefaultChannel {
		if cfg.DevicePattern == "" {
			return Port{}, &ConfigError{Field: "device pattern", Value: `""`, Reason: "required for alternate channels"}
		}
		p.Device = fmt.Sprintf(cfg.DevicePattern, cfg.Channel)
	}
	return p, nil
}

// IsDefault reports whether the port is the process standard streams.
func (p Port) IsDefault() bool {
	return p.Channel == DefaultChannel
}

// Pins returns the pin override, if any.
func (p Port) Pins() (rx, tx int, ok bool) {
	if p.RxPin < 0 {
		return 0, 0, false
	}
	return p.RxPin, p.TxPin, true
}

func (p Port) String() string {
	if p.IsDefault() {
		return fmt.Sprintf("channel %d (stdio)", p.Channel)
	}
	return fmt.Sprintf("channel %d (%s @ %d baud)", p.Channel, p.Device, p.Baud)
}

// PinReserver claims pins for exclusive use.
type PinReserver interface {
	Reserve(pin int, owner string) error
	Release(pin int, owner string)
}

// Binding is an active transport. Release restores the previous standard
// streams and frees the reserved pins.
type Binding struct {
	port    Port
	restore func() error
	unpin   func()
}

// Bind makes p the console transport. For the default channel it does
// nothing. Otherwise it reserves the override pins in pins (if non-nil),
// opens and configures the device, and rebinds the standard streams to it.
// On failure no pins stay reserved.
func Bind(p Port, pins PinReserver) (*Binding, error) {
	b := &Binding{port: p}
	if p.IsDefault() {
		return b, nil
	}
	unpin, err := reservePins(p, pins)
	if err != nil {
		return nil, err
	}
	restore, err := bindDevice(p)
	if err != nil {
		unpin()
		return nil, err
	}
	b.restore, b.unpin = restore, unpin
	return b, nil
}

// reservePins claims the override pins of p. The returned func frees them.
func reservePins(p Port, pins PinReserver) (func(), error) {
	rx, tx, ok := p.Pins()
	if !ok || pins == nil {
		return func() {}, nil
	}
	owner := "serial" + strconv.Itoa(p.Channel)
	if err := pins.Reserve(rx, owner); err != nil {
		return nil, fmt.Errorf("serial: reserve rx pin: %w", err)
	}
	if err := pins.Reserve(tx, owner); err != nil {
		pins.Release(rx, owner)
		return nil, fmt.Errorf("serial: reserve tx pin: %w", err)
	}
	return func() {
		pins.Release(rx, owner)
		pins.Release(tx, owner)
	}, nil
}

// Port returns the bound port.
func (b *Binding) Port() Port {
	return b.port
}

// Release restores the standard streams and frees the pins. It is safe to
// call more than once.
func (b *Binding) Release() error {
	if b == nil || b.restore == nil {
		return nil
	}
	restore, unpin := b.restore, b.unpin
	b.restore, b.unpin = nil, nil
	err := restore()
	if unpin != nil {
		unpin()
	}
	return err
}
