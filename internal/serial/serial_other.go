//go:build !linux

package serial

func bindDevice(Port) (func() error, error) {
	return nil, ErrUnsupported
}
