package console

import (
	"fmt"
	"strings"

	"github.com/joeycumines/ttyconsole/internal/argv"
	"github.com/joeycumines/ttyconsole/internal/command"
	"github.com/joeycumines/ttyconsole/internal/config"
)

// Kind is the dispatch decision for one input line.
type Kind int

const (
	// Unmatched lines go to the script interpreter.
	Unmatched Kind = iota
	// Matched lines go to the command facility.
	Matched
)

func (k Kind) String() string {
	if k == Matched {
		return "MATCHED"
	}
	return "UNMATCHED"
}

// Policy classifies interpolated input lines.
type Policy interface {
	Classify(line string) Kind
}

// DefaultAllowList is the set of lines routed to the command facility by
// the allowlist policy.
var DefaultAllowList = []string{"help", "meminfo", "sysinfo", "clear", "history", "restart"}

// AllowList matches the whole trimmed line exactly against a fixed set of
// names. Anything else, including a listed name followed by arguments, is
// script source.
type AllowList struct {
	names map[string]struct{}
}

// NewAllowList builds an AllowList; with no names it uses DefaultAllowList.
func NewAllowList(names ...string) *AllowList {
	if len(names) == 0 {
		names = DefaultAllowList
	}
	a := &AllowList{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			a.names[n] = struct{}{}
		}
	}
	return a
}

func (a *AllowList) Classify(line string) Kind {
	if _, ok := a.names[strings.TrimSpace(line)]; ok {
		return Matched
	}
	return Unmatched
}

// RegistryPolicy matches lines whose first word names a registered command.
type RegistryPolicy struct {
	Registry *command.Registry
}

func (p RegistryPolicy) Classify(line string) Kind {
	words, err := argv.Split(line)
	if err != nil || len(words) == 0 {
		return Unmatched
	}
	if _, ok := p.Registry.Lookup(words[0]); ok {
		return Matched
	}
	return Unmatched
}

// NewPolicy returns the policy named by a console.dispatch setting.
func NewPolicy(name string, allow []string, registry *command.Registry) (Policy, error) {
	switch name {
	case "", config.DispatchAllowList:
		return NewAllowList(allow...), nil
	case config.DispatchRegistry:
		return RegistryPolicy{Registry: registry}, nil
	default:
		return nil, fmt.Errorf("console: unknown dispatch policy %q", name)
	}
}
