package command

import (
	"sync"
)

type registration struct {
	cmd   Command
	group string
}

// Registry manages the collection of available commands. Names keep the
// position of their first registration; registering a name again replaces
// the command silently.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]registration
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]registration)}
}

// Register adds or replaces a command without a group.
func (r *Registry) Register(cmd Command) {
	r.RegisterGroup("", cmd)
}

// RegisterGroup adds or replaces commands under a help group.
func (r *Registry) RegisterGroup(group string, cmds ...Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cmd := range cmds {
		if cmd == nil || cmd.Name() == "" {
			panic("command: invalid registration")
		}
		name := cmd.Name()
		if _, exists := r.commands[name]; !exists {
			r.order = append(r.order, name)
		}
		r.commands[name] = registration{cmd: cmd, group: group}
	}
}

// Lookup returns the command registered under exactly name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.commands[name]
	return reg.cmd, ok
}

// Names returns all command names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Groups returns the command names bucketed by group, groups in order of
// first appearance.
func (r *Registry) Groups() (groups []string, members map[string][]string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members = make(map[string][]string)
	for _, name := range r.order {
		g := r.commands[name].group
		if _, seen := members[g]; !seen {
			groups = append(groups, g)
		}
		members[g] = append(members[g], name)
	}
	return groups, members
}
