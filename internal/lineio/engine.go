package lineio

import (
	"errors"
	"sync"
)

// ErrEngineBusy is returned by Session.Open while another session holds the
// line editor. The editor owns the terminal and its history, so only one
// session may use it at a time.
var ErrEngineBusy = errors.New("lineio: line editor already in use")

var engine struct {
	mu   sync.Mutex
	busy bool
}

func acquireEngine() error {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.busy {
		return ErrEngineBusy
	}
	engine.busy = true
	return nil
}

func releaseEngine() {
	engine.mu.Lock()
	engine.busy = false
	engine.mu.Unlock()
}
