package querydef

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/alecthomas/participle/v2"
)

// DefinitionError reports an invalid definition.
type DefinitionError struct {
	// Field is the path of the offending field, e.g. "query[1].match.where".
	Field   string
	Message string
	// Pos is the CUE source position, when known.
	Pos token.Pos
}

func (e *DefinitionError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldError(field, format string, args ...any) *DefinitionError {
	return &DefinitionError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// syntaxError converts a grammar error for the text in field.
func syntaxError(field, text string, err error) *DefinitionError {
	var perr participle.Error
	if errors.As(err, &perr) {
		return fieldError(field, "%q: column %d: %s", text, perr.Position().Column, perr.Message())
	}
	return fieldError(field, "%q: %v", text, err)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	defErr := &DefinitionError{Field: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		defErr.Pos = positions[0]
	}
	return defErr
}
