package parser

import (
	"strings"
)

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, "\"'`")
}

// stripTypeColon drops the leading ':' of a type_annotation node text.
func stripTypeColon(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, ":")
	return strings.TrimSpace(value)
}

func normalizeRefName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\n", "")
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\t", "")
	value = strings.ReplaceAll(value, " ", "")
	return value
}

// moduleExportName returns the name of an import/export specifier part,
// which may be an identifier or a string literal.
func moduleExportName(text string) string {
	if strings.HasPrefix(text, "\"") || strings.HasPrefix(text, "'") {
		return trimQuoted(text)
	}
	return strings.TrimSpace(text)
}
