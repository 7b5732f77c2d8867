// Package schema describes the shape of module action payloads and the
// constraint rules applied to their fields.
package schema

// Field defines one key of a payload object.
type Field struct {
	// Name is the payload key.
	Name string

	// Type is the field type. See FieldType constants.
	Type FieldType

	// Required fields must be present and non-null.
	Required bool

	// Values lists valid values for enum fields.
	Values []string

	// Items describes array elements.
	Items *Field

	// Fields describes the keys of object values, in order.
	Fields []Field

	// Constraints defines extra validation rules.
	Constraints []Constraint
}

// FieldType represents the type of a schema field.
type FieldType string

const (
	// Primitive types
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"

	// Semantic types (string with validation)
	FieldTypeEmail FieldType = "email"
	FieldTypeURL   FieldType = "url"
	FieldTypeUUID  FieldType = "uuid"

	// Composite types
	FieldTypeEnum   FieldType = "enum"   // Requires Values
	FieldTypeObject FieldType = "object" // Uses Fields
	FieldTypeArray  FieldType = "array"  // Uses Items
	FieldTypeAny    FieldType = "any"
)

// Required returns a copy of f marked required.
func Required(f Field) Field {
	f.Required = true
	return f
}

// String declares an optional string field.
func String(name string, constraints ...Constraint) Field {
	return Field{Name: name, Type: FieldTypeString, Constraints: constraints}
}

// Int declares an optional integer field.
func Int(name string) Field {
	return Field{Name: name, Type: FieldTypeInt}
}

// Bool declares an optional boolean field.
func Bool(name string) Field {
	return Field{Name: name, Type: FieldTypeBool}
}

// Enum declares an optional field restricted to values.
func Enum(name string, values ...string) Field {
	return Field{Name: name, Type: FieldTypeEnum, Values: values}
}

// Array declares an optional array whose elements follow items.
func Array(name string, items Field) Field {
	return Field{Name: name, Type: FieldTypeArray, Items: &items}
}

// Object declares an optional nested object.
func Object(name string, fields ...Field) Field {
	return Field{Name: name, Type: FieldTypeObject, Fields: fields}
}
