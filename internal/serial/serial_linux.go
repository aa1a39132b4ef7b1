//go:build linux

package serial

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var bauds = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	921600: unix.B921600,
}

// stdFds are the descriptors taken over by the port.
var stdFds = []int{0, 1, 2}

func bindDevice(p Port) (func() error, error) {
	f, err := os.OpenFile(p.Device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", p.Device, err)
	}
	defer f.Close()

	if err := Configure(int(f.Fd()), p.Baud); err != nil {
		return nil, fmt.Errorf("serial: configure %s: %w", p.Device, err)
	}
	restore, err := rebind(int(f.Fd()), stdFds)
	if err != nil {
		return nil, fmt.Errorf("serial: rebind to %s: %w", p.Device, err)
	}
	return restore, nil
}

// Configure sets fd to baud, 8 data bits, no parity, one stop bit, with
// carriage returns translated to newlines on input and newlines expanded to
// CRLF on output.
func Configure(fd, baud int) error {
	speed, ok := bauds[baud]
	if !ok {
		return &ConfigError{Field: "baud rate", Value: fmt.Sprint(baud), Reason: "not a standard rate"}
	}
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	t.Cflag &^= unix.CBAUD | unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS
	t.Cflag |= speed | unix.CS8 | unix.CREAD | unix.CLOCAL
	t.Ispeed = speed
	t.Ospeed = speed

	t.Iflag &^= unix.IGNCR | unix.INLCR | unix.IXON | unix.IXOFF
	t.Iflag |= unix.ICRNL
	t.Oflag |= unix.OPOST | unix.ONLCR

	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

// rebind duplicates src onto each of targets, returning a function that puts
// the previous descriptors back.
func rebind(src int, targets []int) (func() error, error) {
	saved := make([]int, 0, len(targets))
	restore := func() error {
		var errs []error
		for i, fd := range saved {
			if err := unix.Dup3(fd, targets[i], 0); err != nil {
				errs = append(errs, err)
			}
			if err := unix.Close(fd); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	for _, fd := range targets {
		dup, err := unix.Dup(fd)
		if err != nil {
			_ = restore()
			return nil, err
		}
		saved = append(saved, dup)
	}
	for _, fd := range targets {
		if err := unix.Dup3(src, fd, 0); err != nil {
			_ = restore()
			return nil, err
		}
	}
	return restore, nil
}
