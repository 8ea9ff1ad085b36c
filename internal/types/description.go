package types

import "strings"

// Description carries human-readable rule metadata.
// Absence means "not specified", never the empty string: a nil pointer is
// the only representation of a missing field.
type Description struct {
	Title    *string
	Abstract *string
}

// EmptyDescription is the identity for Combine: both fields absent.
var EmptyDescription = Description{}

// Combine merges two descriptions field by field. When both sides carry a
// field the texts are joined with "with" (left first, so Combine is not
// commutative in the join text); when only one side carries it, that text
// is kept; when neither does, the field stays absent.
func Combine(a, b Description) Description {
	return Description{
		Title:    combineField(a.Title, b.Title),
		Abstract: combineField(a.Abstract, b.Abstract),
	}
}

func combineField(a, b *string) *string {
	switch {
	case a != nil && b != nil:
		joined := *a + " with " + *b
		return &joined
	case a != nil:
		return a
	default:
		return b
	}
}

// Extract scans comment text for an "@keyword value" marker and returns the
// value, or nil when the keyword is absent. The value runs to the end of
// the marker's line. Comment delimiters and leading decoration asterisks
// are ignored, so both line and block comments work:
//
//	/* @title Major rivers
//	 * @abstract Waterways wider than 10m */
func Extract(comment, keyword string) *string {
	marker := "@" + keyword
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(strings.TrimLeft(line, "*/ \t"))
		rest, ok := strings.CutPrefix(line, marker)
		if !ok {
			continue
		}
		// Reject prefix matches like @titlecase for keyword "title".
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "*/"))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		return &value
	}
	return nil
}
