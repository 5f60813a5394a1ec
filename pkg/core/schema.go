package core

// Property describes one schema-declared property of an object type.
type Property struct {
	Name string
	Type ColumnType
	// Optional properties accept explicit nil values.
	Optional bool
	// Default is used when an input supplies no value for the property.
	Default any
}

// ObjectSchema describes the persisted shape of one object type.
type ObjectSchema struct {
	Name       string
	PrimaryKey string
	Properties []Property
}

// Property returns the property with the given name.
func (s *ObjectSchema) Property(name string) (*Property, bool) {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			return &s.Properties[i], true
		}
	}
	return nil, false
}

// PropertyAt returns the property at the given schema position.
func (s *ObjectSchema) PropertyAt(i int) (*Property, bool) {
	if i < 0 || i >= len(s.Properties) {
		return nil, false
	}
	return &s.Properties[i], true
}

// primaryKeyProperty returns the schema's primary-key property, if any.
func (s *ObjectSchema) primaryKeyProperty() (*Property, bool) {
	if s.PrimaryKey == "" {
		return nil, false
	}
	return s.Property(s.PrimaryKey)
}
