package apperror

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors collects reasons per field path, e.g. "content_s.limit".
type FieldErrors map[string][]string

func (fe FieldErrors) Add(path, reason string) {
	fe[path] = append(fe[path], reason)
}

type ValidationError struct {
	Fields FieldErrors
}

func NewValidation(path, reason string) *ValidationError {
	fe := FieldErrors{}
	fe.Add(path, reason)
	return &ValidationError{Fields: fe}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	paths := make([]string, 0, len(e.Fields))
	for p := range e.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, p+": "+strings.Join(e.Fields[p], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type PermissionDenied struct {
	Reason string
}

func (e *PermissionDenied) Error() string {
	return "permission denied: " + e.Reason
}

type NotFound struct {
	Kind string
	ID   string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

type Conflict struct {
	Kind string
	Key  string
}

func (e *Conflict) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Kind, e.Key)
}

// TypeTargetMismatch is returned when a device references a device type whose
// target model names another device kind.
type TypeTargetMismatch struct {
	DeviceKind string
	TypeID     string
}

func (e *TypeTargetMismatch) Error() string {
	return fmt.Sprintf("device type %s is not allowed for %s devices", e.TypeID, e.DeviceKind)
}

// ContentRequired: the device type has a content schema but the device carries
// neither content nor the missing-content flag.
type ContentRequired struct {
	TypeCode string
}

func (e *ContentRequired) Error() string {
	return fmt.Sprintf("device type %s requires structured content or the missing_content flag", e.TypeCode)
}

// ContentNotAllowed: content was supplied for a device type without a schema.
type ContentNotAllowed struct {
	TypeCode string
}

func (e *ContentNotAllowed) Error() string {
	return fmt.Sprintf("device type %s accepts no structured content", e.TypeCode)
}

// ContentAmbiguous: content and the missing-content flag were both supplied.
type ContentAmbiguous struct{}

func (e *ContentAmbiguous) Error() string {
	return "missing_content cannot be set when content_s is not empty"
}

// OffendingKind lists devices of one kind that block a target-model change.
type OffendingKind struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

type TargetChangeUnsafe struct {
	NewTarget string
	Offending []OffendingKind
}

func (e *TargetChangeUnsafe) Error() string {
	kinds := make([]string, 0, len(e.Offending))
	for _, o := range e.Offending {
		kinds = append(kinds, fmt.Sprintf("%s (%d)", o.Kind, len(o.IDs)))
	}
	return fmt.Sprintf("devices would become invalid if target_model is changed to %s: %s",
		e.NewTarget, strings.Join(kinds, ", "))
}

// IntegrityError wraps an unexpected store-level failure.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("integrity error on constraint %s: %v", e.Constraint, e.Err)
	}
	return fmt.Sprintf("integrity error: %v", e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }
