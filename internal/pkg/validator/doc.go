// Package validator validates module dependencies and usecase inputs through
// struct tags. Failures come back as a field to message map keyed in snake_case.
package validator
