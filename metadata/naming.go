package metadata

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

const (
	defaultIDAttribute         = "id"
	defaultDiscriminatorColumn = "dtype"
)

// TableName returns the default table for an entity name: plural snake_case, the same
// convention bun applies to models.
func TableName(entity string) string {
	return inflection.Plural(toSnake(entity))
}

// ColumnName returns the default column for an attribute name.
func ColumnName(attribute string) string {
	return toSnake(attribute)
}

// ForeignKeyName returns the default foreign key column of an owning association,
// e.g. "customer" targeting a type identified by "id" gives "customer_id".
func ForeignKeyName(association, targetIDAttribute string) string {
	return toSnake(association) + "_" + toSnake(targetIDAttribute)
}

// toSnake converts the provided string to snake_case using ASCII-aware rules.
// Punctuation is collapsed into a single underscore so that generated table and column
// names stay valid unquoted identifiers.
func toSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastUnderscore := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case unicode.IsUpper(r):
			if b.Len() > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if (unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower) && !lastUnderscore {
					b.WriteByte('_')
					lastUnderscore = true
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false

		case unicode.IsLower(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false

		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}
