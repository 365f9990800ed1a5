package errors

import (
	"fmt"
)

// ParseError represents a configuration or manifest parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CommandError reports a failure returned by a registered command.
type CommandError struct {
	Command string
	Err     error
}

// NewCommandError constructs a CommandError.
func NewCommandError(command string, err error) error {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

// Unwrap exposes the root error.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecipeError indicates a failure while building a recipe.
type RecipeError struct {
	Recipe  string
	Message string
	Err     error
}

// NewRecipeError constructs a RecipeError for the given recipe.
func NewRecipeError(recipe string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &RecipeError{Recipe: recipe, Message: message, Err: err}
}

func (e *RecipeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Recipe != "" {
		return fmt.Sprintf("recipe error [%s]: %s", e.Recipe, e.Message)
	}
	return fmt.Sprintf("recipe error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *RecipeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
