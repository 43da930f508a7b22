package metadata

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/svaarala/duktape-sub000/derrors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaVal  cue.Value
	schemaErr  error
)

func compiledSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaVal = schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		schemaErr = schemaVal.Err()
	})
	return schemaCtx, schemaVal, schemaErr
}

// validate checks a YAML document against a definition of the embedded
// schema, e.g. "#Builtins".
func validate(def, filename string, data []byte) error {
	ctx, schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return derrors.Schemaf(filename, "", "%v", err)
	}
	if doc == nil {
		return derrors.Schemaf(filename, "", "empty document")
	}

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return derrors.Schemaf(filename, "", "%v", err)
	}
	v = schema.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return derrors.Schemaf(filename, "", "%s", cueerrors.Details(err, nil))
	}
	return nil
}
