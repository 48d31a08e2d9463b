package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // config key, e.g. "output.format"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidOutputFormats returns the formats parse can write
func ValidOutputFormats() []string {
	return []string{"json", "yaml", "folded"}
}

// ValidLogLevels returns the accepted logging.level values
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidThemes returns the accepted tui.theme values
func ValidThemes() []string {
	return []string{"dark", "light"}
}

// Validate checks the Config and returns every problem found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidOutputFormats(), c.Output.Format) {
		errs = append(errs, oneOf("output.format", c.Output.Format, ValidOutputFormats()))
	}
	if strings.ContainsAny(c.Output.Postfix, `/\`) {
		errs = append(errs, ValidationError{
			Field:   "output.postfix",
			Value:   c.Output.Postfix,
			Message: "must not contain path separators",
		})
	}

	if c.Parse.Workers < 0 {
		errs = append(errs, ValidationError{
			Field:   "parse.workers",
			Value:   c.Parse.Workers,
			Message: "must be non-negative",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, oneOf("logging.level", c.Logging.Level, ValidLogLevels()))
	}

	if !slices.Contains(ValidThemes(), c.TUI.Theme) {
		errs = append(errs, oneOf("tui.theme", c.TUI.Theme, ValidThemes()))
	}

	if c.History.MaxFiles < 1 {
		errs = append(errs, ValidationError{
			Field:   "history.max_files",
			Value:   c.History.MaxFiles,
			Message: "must be at least 1",
		})
	}

	if c.Update.IntervalDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "update.interval_days",
			Value:   c.Update.IntervalDays,
			Message: "must be non-negative",
		})
	}

	return errs
}

func oneOf(field string, value any, valid []string) ValidationError {
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(valid, ", ")),
	}
}
