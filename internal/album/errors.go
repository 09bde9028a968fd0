package album

import (
	"fmt"
	"strings"
)

// ConfigurationError is fatal for the album it names. An empty Album means
// the error concerns the run configuration itself, e.g. a bad level spec.
type ConfigurationError struct {
	Album       string
	Property    string
	Directories []string
	Reason      string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Album != "" {
		fmt.Fprintf(&b, " in album %q", e.Album)
	}
	if e.Property != "" {
		fmt.Fprintf(&b, ": property %s", e.Property)
	}
	if len(e.Directories) > 0 {
		fmt.Fprintf(&b, " (directories %s)", strings.Join(e.Directories, ", "))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// ValidationError marks a declaration file that could not be used. The
// directory is treated as having no declaration.
type ValidationError struct {
	Directory string
	Field     string
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid album properties in %s: %v", e.Directory, e.Err)
	}
	return fmt.Sprintf("invalid album properties in %s: field %s: %v", e.Directory, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
