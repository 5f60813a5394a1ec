package core

import (
	"fmt"
)

// Accessor is the transient marshalling context between caller-supplied
// dynamic values and the engine's typed primitives. It is created per
// operation: bound to a session, a set of object schemas, the target type,
// and a flag distinguishing "create new" from "update existing".
type Accessor struct {
	session Session
	schemas map[string]*ObjectSchema
	schema  *ObjectSchema
	create  bool
	logger  Logger
}

// ObjectRef is the result of resolving a caller value against an object
// type: the primary key of the row it denotes, and whether the row was
// materialized by the resolution itself.
type ObjectRef struct {
	Key     any
	Created bool
}

// NewAccessor builds an accessor targeting one object type. The schema set
// must contain the target and every type reachable through relationships.
func NewAccessor(session Session, schemas []*ObjectSchema, target string, create bool) (*Accessor, error) {
	byName := make(map[string]*ObjectSchema, len(schemas))
	for _, s := range schemas {
		byName[s.Name] = s
	}
	schema, ok := byName[target]
	if !ok {
		return nil, wrapError("new_accessor", fmt.Errorf("unknown object type %q", target))
	}
	return &Accessor{
		session: session,
		schemas: byName,
		schema:  schema,
		create:  create,
		logger:  NopLogger(),
	}, nil
}

// WithLogger sets the accessor's logger and returns it for chaining.
func (a *Accessor) WithLogger(logger Logger) *Accessor {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Schema returns the accessor's target schema.
func (a *Accessor) Schema() *ObjectSchema {
	return a.schema
}

// ValueForProperty looks up the caller-supplied value for the property at
// the given schema position. Sources may be map-keyed (map[string]any) or
// positional ([]any). The second return distinguishes "no value supplied"
// from an explicit nil; positional sources simply run out rather than
// erroring, so trailing properties can fall back to their defaults.
func (a *Accessor) ValueForProperty(source any, propIndex int) (any, bool, error) {
	prop, ok := a.schema.PropertyAt(propIndex)
	if !ok {
		return nil, false, wrapError("value_for_property", ErrNoSuchProperty)
	}
	switch src := source.(type) {
	case map[string]any:
		v, present := src[prop.Name]
		return v, present, nil
	case []any:
		if propIndex >= len(src) {
			return nil, false, nil
		}
		return src[propIndex], true, nil
	case *Object:
		v, err := src.Get(prop.Name)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	default:
		return nil, false, wrapError("value_for_property",
			fmt.Errorf("%w: cannot read properties from %T", ErrUnsupportedOperation, source))
	}
}

// DefaultValueForProperty resolves the schema-declared default for a
// property, reporting whether one exists.
func (a *Accessor) DefaultValueForProperty(name string) (any, bool) {
	prop, ok := a.schema.Property(name)
	if !ok || prop.Default == nil {
		return nil, false
	}
	return prop.Default, true
}

// IsNull reports whether a caller value is the explicit null.
func (a *Accessor) IsNull(v any) bool {
	return v == nil
}

// NullValue returns the caller-facing null.
func (a *Accessor) NullValue() any {
	return nil
}

// ConvertProperty converts a caller value into the canonical primitive for
// one property. nil is accepted only for optional properties.
func (a *Accessor) ConvertProperty(prop *Property, v any) (any, error) {
	if v == nil {
		if prop.Optional {
			return nil, nil
		}
		return nil, typeMismatch(prop.Name, prop.Type, v)
	}
	return convertForColumn(prop.Type, prop.Name, v)
}

// ResolveObject determines whether a caller value denotes an existing row of
// the target type or must become a new one. Accepted values: an *Object of
// the same type (identity), a bare primary-key value, or a full property set
// (map or positional slice). allowUpdate overwrites an existing match in
// place; without it an existing primary key is an error for full-value
// sources.
func (a *Accessor) ResolveObject(value any, typeName string, allowUpdate bool) (ObjectRef, error) {
	const op = "resolve_object"
	schema, ok := a.schemas[typeName]
	if !ok {
		return ObjectRef{}, wrapError(op, fmt.Errorf("unknown object type %q", typeName))
	}
	pkProp, hasPK := schema.primaryKeyProperty()
	if !hasPK {
		return ObjectRef{}, wrapError(op,
			fmt.Errorf("%w: type %q has no primary key to resolve against", ErrUnsupportedOperation, typeName))
	}
	store, err := a.session.Records(typeName)
	if err != nil {
		return ObjectRef{}, wrapError(op, err)
	}

	switch v := value.(type) {
	case *Object:
		if v.TypeName() != typeName {
			return ObjectRef{}, wrapError(op, typeMismatch(pkProp.Name, pkProp.Type, v))
		}
		return ObjectRef{Key: v.Key()}, nil

	case map[string]any, []any:
		return a.resolveFromValues(op, schema, store, pkProp, v, allowUpdate)

	default:
		// A bare value is taken as the primary key of an existing or
		// implicitly-created row.
		pk, err := a.ConvertProperty(pkProp, value)
		if err != nil {
			return ObjectRef{}, wrapError(op, err)
		}
		exists, err := store.Contains(pk)
		if err != nil {
			return ObjectRef{}, wrapError(op, err)
		}
		if exists {
			return ObjectRef{Key: pk}, nil
		}
		props, err := a.defaultProps(schema, pkProp, pk)
		if err != nil {
			return ObjectRef{}, wrapError(op, err)
		}
		if err := store.Put(pk, props); err != nil {
			return ObjectRef{}, wrapError(op, err)
		}
		return ObjectRef{Key: pk, Created: true}, nil
	}
}

// resolveFromValues handles map and positional sources for ResolveObject.
func (a *Accessor) resolveFromValues(op string, schema *ObjectSchema, store RecordStore, pkProp *Property, source any, allowUpdate bool) (ObjectRef, error) {
	target := &Accessor{session: a.session, schemas: a.schemas, schema: schema, create: a.create, logger: a.logger}
	props, err := target.buildProps(source)
	if err != nil {
		return ObjectRef{}, wrapError(op, err)
	}
	pk, supplied := props[pkProp.Name]
	if !supplied || pk == nil {
		return ObjectRef{}, wrapError(op, fmt.Errorf("missing primary key %q for type %q", pkProp.Name, schema.Name))
	}
	exists, err := store.Contains(pk)
	if err != nil {
		return ObjectRef{}, wrapError(op, err)
	}
	if exists {
		if !allowUpdate {
			return ObjectRef{}, wrapError(op, fmt.Errorf("%w: %s[%v]", ErrExists, schema.Name, pk))
		}
		if err := store.Merge(pk, props); err != nil {
			return ObjectRef{}, wrapError(op, err)
		}
		return ObjectRef{Key: pk}, nil
	}
	if err := store.Put(pk, props); err != nil {
		return ObjectRef{}, wrapError(op, err)
	}
	return ObjectRef{Key: pk, Created: true}, nil
}

// buildProps assembles the full canonical property map for one object from
// a caller source, applying schema defaults for absent values.
func (a *Accessor) buildProps(source any) (map[string]any, error) {
	props := make(map[string]any, len(a.schema.Properties))
	for i := range a.schema.Properties {
		prop := &a.schema.Properties[i]
		v, present, err := a.ValueForProperty(source, i)
		if err != nil {
			return nil, err
		}
		if !present {
			if !a.create {
				// Updates leave unspecified properties untouched.
				continue
			}
			if def, ok := a.DefaultValueForProperty(prop.Name); ok {
				v = def
			} else if prop.Optional {
				props[prop.Name] = nil
				continue
			} else {
				return nil, fmt.Errorf("missing value for property %q", prop.Name)
			}
		}
		conv, err := a.ConvertProperty(prop, v)
		if err != nil {
			return nil, err
		}
		props[prop.Name] = conv
	}
	return props, nil
}

// defaultProps builds a minimal record carrying only defaults and the
// primary key, for rows materialized from a bare key value.
func (a *Accessor) defaultProps(schema *ObjectSchema, pkProp *Property, pk any) (map[string]any, error) {
	props := make(map[string]any, len(schema.Properties))
	for i := range schema.Properties {
		prop := &schema.Properties[i]
		if prop.Name == pkProp.Name {
			props[prop.Name] = pk
			continue
		}
		if prop.Default != nil {
			conv, err := convertForColumn(prop.Type, prop.Name, prop.Default)
			if err != nil {
				return nil, err
			}
			props[prop.Name] = conv
			continue
		}
		props[prop.Name] = nil
	}
	return props, nil
}

// AddObject resolves a caller value into a persisted row of the given type,
// creating or updating it as needed, and returns a handle to the result.
func (a *Accessor) AddObject(value any, typeName string, update bool) (*Object, error) {
	ref, err := a.ResolveObject(value, typeName, update)
	if err != nil {
		return nil, err
	}
	return a.WrapObject(typeName, ref.Key)
}

// WrapList lifts a table handle into an observable list without copying
// the underlying storage.
func (a *Accessor) WrapList(table Table, record, property string, registry *Registry) (*List, error) {
	return NewList(table, ListOptions{
		Record:   record,
		Property: property,
		Registry: registry,
		Logger:   a.logger,
	})
}

// WrapResults lifts a table handle into a read-only results view.
func (a *Accessor) WrapResults(table Table) (*Results, error) {
	if table == nil {
		return nil, wrapError("wrap_results", fmt.Errorf("table handle cannot be nil"))
	}
	return &Results{table: table}, nil
}

// WrapObject lifts a (type, primary key) pair into an object handle.
func (a *Accessor) WrapObject(typeName string, pk any) (*Object, error) {
	const op = "wrap_object"
	schema, ok := a.schemas[typeName]
	if !ok {
		return nil, wrapError(op, fmt.Errorf("unknown object type %q", typeName))
	}
	store, err := a.session.Records(typeName)
	if err != nil {
		return nil, wrapError(op, err)
	}
	return &Object{store: store, schema: schema, key: pk}, nil
}

// EnumerateList iterates a caller-supplied ordered sequence once, in order,
// synchronously. The callback must not mutate the sequence it is visiting.
func (a *Accessor) EnumerateList(value any, visit func(v any) error) error {
	const op = "enumerate_list"
	switch seq := value.(type) {
	case []any:
		for _, v := range seq {
			if err := visit(v); err != nil {
				return err
			}
		}
		return nil
	case *List:
		n := seq.Count()
		for i := 0; i < n; i++ {
			v, err := seq.Get(i)
			if err != nil {
				return err
			}
			if err := visit(v); err != nil {
				return err
			}
		}
		return nil
	case *Results:
		return seq.ForEach(visit)
	default:
		return wrapError(op, fmt.Errorf("%w: cannot enumerate %T", ErrUnsupportedOperation, value))
	}
}
