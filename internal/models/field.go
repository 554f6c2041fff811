package models

import "encoding/json"

// Field is a JSON value that distinguishes three states: absent from
// the document, present but null, and present with a value. Patch
// structs use it so an omitted key never clears a stored field, while
// an explicit null can clear nullable ones (parent references, due
// dates).
type Field[T any] struct {
	Value T
	Set   bool // key was present in the document
	Valid bool // value was non-null
}

// UnmarshalJSON is only invoked for keys present in the document, so
// Set is always true here; absent keys leave the zero Field.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		var zero T
		f.Value = zero
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// MarshalJSON round-trips the tagged value; an unset or null field
// marshals as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// FieldOf builds a set, non-null Field. Test helper and convenience
// for server-constructed patches.
func FieldOf[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true, Valid: true}
}

// NullField builds a set-but-null Field.
func NullField[T any]() Field[T] {
	return Field[T]{Set: true}
}
