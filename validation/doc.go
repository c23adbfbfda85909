// Package validation provides load-time validation helpers for pipeline
// definitions and engine configuration. It combines tag-based struct
// validation (go-playground/validator) with a fluent validator for semantic
// checks that tags cannot express, such as unique stage identifiers and
// resolvable dependency references.
package validation
