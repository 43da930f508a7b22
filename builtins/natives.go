package builtins

import (
	"sort"

	"github.com/svaarala/duktape-sub000/derrors"
)

// Natives is the sorted table of native function identifiers. A NATIDX
// field is an index into it.
type Natives struct {
	names []string
	index map[string]int
}

// CollectNatives gathers every native referenced by objs: function
// object natives, accessor getters and setters, and function properties.
// Extension filtering is not applied, so the table is the same for every
// build variant.
func CollectNatives(objs []*Object) (*Natives, error) {
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" {
			seen[name] = true
		}
	}
	for _, o := range objs {
		add(o.Native)
		for _, v := range o.Values {
			if acc, ok := v.Payload.(AccessorPair); ok {
				add(acc.Getter)
				add(acc.Setter)
			}
		}
		for _, f := range o.Functions {
			add(f.Native)
		}
	}

	n := &Natives{index: make(map[string]int, len(seen))}
	for name := range seen {
		n.names = append(n.names, name)
	}
	sort.Strings(n.names)
	if len(n.names) > MaxNatives {
		return nil, derrors.Capacityf(n.names[MaxNatives], "native",
			"%d distinct native functions, at most %d fit a NATIDX field", len(n.names), MaxNatives)
	}
	for i, name := range n.names {
		n.index[name] = i
	}
	return n, nil
}

// Len returns the number of natives.
func (n *Natives) Len() int { return len(n.names) }

// Names returns the natives in NATIDX order.
func (n *Natives) Names() []string { return n.names }

// Index returns the NATIDX of name.
func (n *Natives) Index(name string) (int, bool) {
	i, ok := n.index[name]
	return i, ok
}
