package migration

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// Statements that would remove or rename a value of an enum type. Persisted
// rows, events and idempotency keys may still carry old labels, so up
// migrations may only add values (ALTER TYPE ... ADD VALUE).
var nonAdditiveEnumChange = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\bDROP\s+TYPE\b`),
	regexp.MustCompile(`(?is)\bALTER\s+TYPE\s+\S+\s+RENAME\b`),
	regexp.MustCompile(`(?is)\bALTER\s+TYPE\s+\S+\s+DROP\b`),
}

var sqlLineComment = regexp.MustCompile(`--[^\n]*`)

// EnumChangeError reports an up migration that breaks the additive rule
type EnumChangeError struct {
	File      string
	Statement string
}

func (e *EnumChangeError) Error() string {
	return fmt.Sprintf("migration %s removes or renames an enum value: %q", e.File, e.Statement)
}

// ValidateAdditiveEnums scans every *.up.sql file of fsys and rejects the
// first statement that drops or renames an enum type or value.
// Down migrations are not checked.
func ValidateAdditiveEnums(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	for _, name := range files {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		body := sqlLineComment.ReplaceAllString(string(content), "")
		for _, pattern := range nonAdditiveEnumChange {
			if match := pattern.FindString(body); match != "" {
				return &EnumChangeError{File: name, Statement: strings.Join(strings.Fields(match), " ")}
			}
		}
	}
	return nil
}
