package store

import "github.com/go-playground/validator/v10"

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// StructValidator is the default RecordValidator: plain validator/v10
// struct-tag validation of the loaded record. Descriptors can compose
// extra checks on top of it.
func StructValidator(record any) error {
	return structValidator.Struct(record)
}
