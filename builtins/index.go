package builtins

import (
	"github.com/svaarala/duktape-sub000/derrors"
)

// Index maps object ids to BIDX values. It is built once over the whole
// object list before anything is encoded, so forward references need no
// patching.
type Index struct {
	ids  []string
	byID map[string]int
}

// NewIndex assigns BIDX values in declaration order.
func NewIndex(objs []*Object) (*Index, error) {
	x := &Index{byID: make(map[string]int, len(objs))}
	for i, o := range objs {
		if o.ID == "" {
			return nil, derrors.Schemaf("", "id", "object %d has no id", i)
		}
		if _, dup := x.byID[o.ID]; dup {
			return nil, derrors.Schemaf(o.ID, "id", "duplicate object id")
		}
		if i >= MaxBuiltins {
			return nil, derrors.Capacityf(o.ID, "", "object %d exceeds the limit of %d built-ins", i+1, MaxBuiltins)
		}
		x.byID[o.ID] = i
		x.ids = append(x.ids, o.ID)
	}
	return x, nil
}

// Len returns the number of indexed objects.
func (x *Index) Len() int { return len(x.ids) }

// IDs returns object ids in BIDX order.
func (x *Index) IDs() []string { return x.ids }

// Lookup returns the BIDX of id.
func (x *Index) Lookup(id string) (int, bool) {
	i, ok := x.byID[id]
	return i, ok
}

// Ref is an optional object reference, resolved to a BIDX.
type Ref struct {
	bidx  int
	valid bool
}

// NoRef is the absent reference.
var NoRef = Ref{}

// RefTo references the object at bidx.
func RefTo(bidx int) Ref { return Ref{bidx: bidx, valid: true} }

// Get returns the referenced BIDX.
func (r Ref) Get() (int, bool) { return r.bidx, r.valid }

// field is the only place the NoBidx sentinel is produced.
func (r Ref) field() uint32 {
	if !r.valid {
		return NoBidx
	}
	return uint32(r.bidx)
}

// RefFromField decodes a bidx field.
func RefFromField(v uint32) Ref {
	if v == NoBidx {
		return NoRef
	}
	return RefTo(int(v))
}

// Ref resolves an optional id; "" is NoRef.
func (x *Index) Ref(id string) (Ref, error) {
	if id == "" {
		return NoRef, nil
	}
	i, ok := x.byID[id]
	if !ok {
		return NoRef, derrors.Schemaf("", "", "unknown object id %q", id)
	}
	return RefTo(i), nil
}
