// Package derrors defines the error classes a generation run can fail with.
//
// Every failure is fatal for the run. Callers classify a failure with
// errors.Is against one of the sentinels below; the concrete *Error carries
// the offending entity and field.
package derrors

import (
	"errors"
	"fmt"
)

//lint:file-ignore ST1012 prefixing error values with Err would stutter

var (
	// Schema indicates malformed or incomplete input: a missing required
	// field, an unknown reference id or a duplicate id.
	Schema = errors.New("schema error")
	// Capacity indicates a count or value that does not fit its fixed
	// bit width.
	Capacity = errors.New("capacity error")
	// Consistency indicates input that is well formed in isolation but
	// contradicts itself, such as a string dedup collision.
	Consistency = errors.New("consistency error")
)

// Error is a classified failure tied to one entity (a builtin id, a string
// text or a config key) and optionally one field of it.
type Error struct {
	Kind   error
	Entity string
	Field  string
	Msg    string
}

func (e *Error) Error() string {
	var where string
	switch {
	case e.Entity != "" && e.Field != "":
		where = fmt.Sprintf("%s.%s: ", e.Entity, e.Field)
	case e.Entity != "":
		where = e.Entity + ": "
	}
	return fmt.Sprintf("%v: %s%s", e.Kind, where, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Schemaf returns a schema error for entity/field.
func Schemaf(entity, field, format string, args ...any) error {
	return &Error{Kind: Schema, Entity: entity, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Capacityf returns a capacity error for entity/field.
func Capacityf(entity, field, format string, args ...any) error {
	return &Error{Kind: Capacity, Entity: entity, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Consistencyf returns a consistency error for entity/field.
func Consistencyf(entity, field, format string, args ...any) error {
	return &Error{Kind: Consistency, Entity: entity, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// At attributes an *Error that does not yet name an entity to
// entity/field. Other errors are returned unchanged.
func At(err error, entity, field string) error {
	e, ok := err.(*Error)
	if !ok || e.Entity != "" {
		return err
	}
	c := *e
	c.Entity = entity
	if c.Field == "" {
		c.Field = field
	}
	return &c
}

// Entity returns the entity named by the first *Error in err's chain, or "".
func Entity(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Entity
	}
	return ""
}

// Wrap adds context to the error and allows
// unwrapping the result to recover the original error.
//
// Example:
//
//	defer derrors.Wrap(&err, "encode(%s)", order)
func Wrap(errp *error, format string, args ...any) {
	if *errp != nil {
		*errp = fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), *errp)
	}
}
