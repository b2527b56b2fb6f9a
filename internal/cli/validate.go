package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherbuild/internal/querydef"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one invalid definition.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate query definitions without printing them",
		Long: `Validate every YAML and CUE query definition under a path.

Each definition is loaded, checked against the definition schema and
compiled to a clause tree. Nothing is rendered or stored. Directories
starting with a dot are skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, root string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := querydef.FindFiles(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("path not found: %s", root), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeScanError, err.Error(), nil)
	}
	if len(files) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNoFiles, fmt.Sprintf("no definition files found in %s", root), nil)
	}

	formatter.VerboseLog("Found %d definition file(s) in %s", len(files), root)

	var validationErrors []ValidationError
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		if err := validateFile(file); err != nil {
			validationErrors = append(validationErrors, newValidationError(file, err))
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(files), validationErrors)
	}
	return outputValidateSuccess(formatter, len(files))
}

// validateFile loads, checks and compiles one definition.
func validateFile(path string) error {
	def, err := querydef.LoadFile(path)
	if err != nil {
		return err
	}
	if err := querydef.Validate(def); err != nil {
		return err
	}
	_, err = querydef.Compile(def)
	return err
}

func newValidationError(file string, err error) ValidationError {
	verr := ValidationError{
		File:    file,
		Code:    errorCode(err, ErrCodeGeneric),
		Message: err.Error(),
	}
	var derr *querydef.DefinitionError
	if errors.As(err, &derr) {
		verr.Field = derr.Field
		verr.Message = derr.Message
		if derr.Pos.IsValid() {
			verr.Line = derr.Pos.Line()
		}
	}
	return verr
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "%s All definitions valid (%d file(s))\n", passMark, files)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Files:  files,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", failMark)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.File, err.Line)
		} else {
			fmt.Fprintln(formatter.Writer, err.File)
		}
		if err.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
