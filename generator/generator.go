// Package generator runs the whole generation: string table, object index
// and native registry are built once, then one builtin bitstream is encoded
// per requested byte order.
package generator

import (
	"context"
	"fmt"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/svaarala/duktape-sub000/builtins"
	"github.com/svaarala/duktape-sub000/derrors"
	"github.com/svaarala/duktape-sub000/metadata"
	"github.com/svaarala/duktape-sub000/strtab"
)

var log = commonlog.GetLogger("genbuiltins.generator")

// Input is everything one run needs.
type Input struct {
	Set        *metadata.Set
	ByteOrders []builtins.ByteOrder
	Extensions builtins.Extensions

	Version     int
	GitDescribe string
	// VersionObject receives a "version" property when non-empty.
	VersionObject string

	InitJS []byte
	// DefinePrefix starts every generated define, e.g. "DUK_".
	DefinePrefix string
}

// Variant is the builtin init data for one byte order.
type Variant struct {
	ByteOrder builtins.ByteOrder
	Data      []byte
	Stats     builtins.Stats
}

// Output is the complete, immutable result of a run.
type Output struct {
	Strings    *strtab.Table
	StringData *strtab.Encoded
	Objects    []*builtins.Object
	Index      *builtins.Index
	Natives    *builtins.Natives
	// Variants follow Input.ByteOrders.
	Variants []Variant

	// InitJS is NUL terminated when non-empty.
	InitJS       []byte
	Version      int
	GitDescribe  string
	DefinePrefix string
}

// StridxPrefix is the define prefix for string indices.
func (o *Output) StridxPrefix() string { return o.DefinePrefix + "STRIDX_" }

// VersionString formats Version as major.minor.patch.
func (o *Output) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", o.Version/10000, o.Version/100%100, o.Version%100)
}

// Generate builds all outputs. Any failure cancels the remaining variants
// and no output is returned.
func Generate(ctx context.Context, in Input) (_ *Output, err error) {
	defer derrors.Wrap(&err, "generate")

	if in.Set == nil {
		return nil, fmt.Errorf("no metadata")
	}
	if len(in.ByteOrders) == 0 {
		return nil, fmt.Errorf("no byte orders requested")
	}

	set := in.Set.Clone()
	if in.VersionObject != "" {
		if err := set.AddVersion(in.VersionObject, in.Version); err != nil {
			return nil, err
		}
	}

	out := &Output{
		Objects:      set.Objects,
		InitJS:       terminate(in.InitJS),
		Version:      in.Version,
		GitDescribe:  in.GitDescribe,
		DefinePrefix: in.DefinePrefix,
	}
	if out.Strings, err = set.StringBuilder(out.StridxPrefix()).Build(); err != nil {
		return nil, err
	}
	if out.StringData, err = strtab.Encode(out.Strings); err != nil {
		return nil, err
	}
	if out.Index, err = builtins.NewIndex(set.Objects); err != nil {
		return nil, err
	}
	if out.Natives, err = builtins.CollectNatives(set.Objects); err != nil {
		return nil, err
	}

	out.Variants = make([]Variant, len(in.ByteOrders))
	group, gctx := errgroup.WithContext(ctx)
	for i, order := range in.ByteOrders {
		i, order := i, order
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := builtins.NewSession(set.Objects, out.Strings, out.Index, out.Natives,
				builtins.Options{ByteOrder: order, Extensions: in.Extensions})
			res, err := s.Encode()
			if err != nil {
				return err
			}
			out.Variants[i] = Variant{ByteOrder: order, Data: res.Data, Stats: res.Stats}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	log.Infof("%d strings, %d built-in objects, %d natives, %d variants, %d initjs data bytes",
		out.Strings.Len(), out.Index.Len(), out.Natives.Len(), len(out.Variants), len(out.InitJS))
	return out, nil
}

// terminate appends the NUL the runtime expects after init script source.
func terminate(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	out := append([]byte(nil), src...)
	if out[len(out)-1] != 0 {
		out = append(out, 0)
	}
	return out
}
