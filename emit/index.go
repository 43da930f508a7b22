package emit

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/svaarala/duktape-sub000/generator"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("emit: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Index is a machine-readable manifest of every index a build assigned,
// for tools that inspect heaps or snapshots of the runtime.
type Index struct {
	Version     int    `cbor:"version"`
	GitDescribe string `cbor:"git_describe"`

	// Builtins maps object id to BIDX.
	Builtins map[string]int `cbor:"builtins"`
	// Strings lists the string table in STRIDX order.
	Strings []IndexString `cbor:"strings"`
	// Natives lists native function names in NATIDX order.
	Natives []string `cbor:"natives"`

	StartReserved       int `cbor:"start_reserved"`
	StartStrictReserved int `cbor:"start_strict_reserved"`
	StringDataLength    int `cbor:"string_data_length"`

	Variants []IndexVariant `cbor:"variants"`
}

// IndexString is one string table slot.
type IndexString struct {
	Key    string `cbor:"key"`
	Define string `cbor:"define"`
	Flags  string `cbor:"flags,omitempty"`
}

// IndexVariant describes the builtin data of one byte order.
type IndexVariant struct {
	ByteOrder  string `cbor:"byte_order"`
	DataLength int    `cbor:"data_length"`
	Objects    int    `cbor:"objects"`
	Values     int    `cbor:"values"`
	Functions  int    `cbor:"functions"`
}

// BuildIndex collects the manifest for out.
func BuildIndex(out *generator.Output) *Index {
	x := &Index{
		Version:             out.Version,
		GitDescribe:         out.GitDescribe,
		Builtins:            make(map[string]int, out.Index.Len()),
		Natives:             out.Natives.Names(),
		StartReserved:       out.Strings.StartReserved(),
		StartStrictReserved: out.Strings.StartStrictReserved(),
		StringDataLength:    len(out.StringData.Data),
	}
	for i, id := range out.Index.IDs() {
		x.Builtins[id] = i
	}
	for _, s := range out.Strings.Strings() {
		x.Strings = append(x.Strings, IndexString{Key: s.Key, Define: s.Define, Flags: s.Flags.String()})
	}
	for _, v := range out.Variants {
		x.Variants = append(x.Variants, IndexVariant{
			ByteOrder:  v.ByteOrder.String(),
			DataLength: len(v.Data),
			Objects:    v.Stats.Objects,
			Values:     v.Stats.Values,
			Functions:  v.Stats.Functions,
		})
	}
	return x
}

// IndexCBOR renders the manifest in canonical CBOR.
func IndexCBOR(out *generator.Output) ([]byte, error) {
	return cborEncMode.Marshal(BuildIndex(out))
}

// UnmarshalIndex decodes a manifest written by IndexCBOR.
func UnmarshalIndex(data []byte) (*Index, error) {
	var x Index
	if err := cbor.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("emit: unmarshal index: %w", err)
	}
	return &x, nil
}
