package cypher

import (
	"errors"
	"fmt"
)

// Error is returned by Build and by the Compile methods of nodes.
//
// Errors fall in three groups:
//   - Construction errors: a builder call composed an invalid combination.
//     The clause records it (see Err methods) and Build refuses the tree.
//   - Compilation errors: a node cannot produce valid text during the walk.
//   - Naming conflicts: an explicit name collides with one already handed out.
//
// A build that fails returns no Result; partial text is never returned.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node names the node kind that produced the error (e.g. "Call", "Function").
	Node string
}

// ErrorCode categorizes build errors.
type ErrorCode string

const (
	// ErrCodeConstruction indicates an invalid builder call.
	ErrCodeConstruction ErrorCode = "CONSTRUCTION"

	// ErrCodeCompile indicates a node could not render valid Cypher.
	ErrCodeCompile ErrorCode = "COMPILE"

	// ErrCodeNamingConflict indicates an explicit name collides with an assigned one.
	ErrCodeNamingConflict ErrorCode = "NAMING_CONFLICT"

	// ErrCodeEnvironmentSealed indicates an Environment was used after its build finished.
	ErrCodeEnvironmentSealed ErrorCode = "ENVIRONMENT_SEALED"

	// ErrCodeSharedClause indicates one clause instance has two parents.
	ErrCodeSharedClause ErrorCode = "SHARED_CLAUSE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConstructionError reports whether err is a construction error.
// Uses errors.As to handle wrapped errors.
func IsConstructionError(err error) bool {
	return hasCode(err, ErrCodeConstruction)
}

// IsCompileError reports whether err is a compilation error.
func IsCompileError(err error) bool {
	return hasCode(err, ErrCodeCompile)
}

// IsNamingConflict reports whether err is a naming conflict.
func IsNamingConflict(err error) bool {
	return hasCode(err, ErrCodeNamingConflict)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func newConstructionError(node, format string, args ...any) *Error {
	return &Error{Code: ErrCodeConstruction, Message: fmt.Sprintf(format, args...), Node: node}
}

func newCompileError(node, format string, args ...any) *Error {
	return &Error{Code: ErrCodeCompile, Message: fmt.Sprintf(format, args...), Node: node}
}

func newNamingConflict(format string, args ...any) *Error {
	return &Error{Code: ErrCodeNamingConflict, Message: fmt.Sprintf(format, args...)}
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
