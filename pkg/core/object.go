package core

import "fmt"

// Object is a caller-facing handle for one persisted record, identified by
// its type and primary key. Property values travel through the same
// conversion set the list dispatcher uses.
type Object struct {
	store  RecordStore
	schema *ObjectSchema
	key    any
}

// TypeName returns the object's schema name.
func (o *Object) TypeName() string {
	return o.schema.Name
}

// Key returns the object's primary key.
func (o *Object) Key() any {
	return o.key
}

// Get returns the value of one property.
func (o *Object) Get(property string) (any, error) {
	const op = "object_get"
	if _, ok := o.schema.Property(property); !ok {
		return nil, wrapError(op, fmt.Errorf("%w: %s.%s", ErrNoSuchProperty, o.schema.Name, property))
	}
	props, err := o.store.Fetch(o.key)
	if err != nil {
		return nil, wrapError(op, err)
	}
	return props[property], nil
}

// Set overwrites the value of one property in place.
func (o *Object) Set(property string, v any) error {
	const op = "object_set"
	prop, ok := o.schema.Property(property)
	if !ok {
		return wrapError(op, fmt.Errorf("%w: %s.%s", ErrNoSuchProperty, o.schema.Name, property))
	}
	if property == o.schema.PrimaryKey {
		return wrapError(op, fmt.Errorf("%w: primary key cannot be reassigned", ErrUnsupportedOperation))
	}
	var conv any
	if v == nil {
		if !prop.Optional {
			return wrapError(op, typeMismatch(prop.Name, prop.Type, v))
		}
	} else {
		var err error
		conv, err = convertForColumn(prop.Type, prop.Name, v)
		if err != nil {
			return wrapError(op, err)
		}
	}
	return wrapError(op, o.store.Merge(o.key, map[string]any{property: conv}))
}

// Results is a read-only, ordered view over a table handle. It copies
// nothing: every access goes back to the underlying storage.
type Results struct {
	table Table
}

// Count returns the number of rows in the view, 0 once detached.
func (r *Results) Count() int {
	if !r.table.Attached() {
		return 0
	}
	return r.table.Size()
}

// Get returns the value at the given position.
func (r *Results) Get(i int) (any, error) {
	const op = "results_get"
	if i < 0 || i >= r.Count() {
		return nil, wrapError(op, ErrOutOfRange)
	}
	v, err := loadRow(r.table, i)
	if err != nil {
		return nil, wrapError(op, err)
	}
	return v, nil
}

// ForEach visits every value in order.
func (r *Results) ForEach(visit func(v any) error) error {
	n := r.Count()
	for i := 0; i < n; i++ {
		v, err := r.Get(i)
		if err != nil {
			return err
		}
		if err := visit(v); err != nil {
			return err
		}
	}
	return nil
}
