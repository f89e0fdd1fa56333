package mimetype

import (
	"strings"
)

// Splits text on separator, ignoring separators inside double-quoted strings. A
// backslash inside quotes escapes the following character. Always returns at least
// one element.
func splitQuoted(text string, separator byte) []string {
	var parts []string
	inQuotes := false
	escaped := false
	start := 0

	for index := 0; index < len(text); index++ {
		char := text[index]
		switch {
		case escaped:
			escaped = false
		case inQuotes && char == '\\':
			escaped = true
		case char == '"':
			inQuotes = !inQuotes
		case !inQuotes && char == separator:
			parts = append(parts, text[start:index])
			start = index + 1
		}
	}

	return append(parts, text[start:])
}

// Strips surrounding double quotes and resolves backslash escapes.
func unquote(value string) string {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return value
	}

	value = value[1 : len(value)-1]
	if !strings.ContainsRune(value, '\\') {
		return value
	}

	builder := strings.Builder{}
	escaped := false
	for _, char := range value {
		if !escaped && char == '\\' {
			escaped = true
			continue
		}
		escaped = false
		builder.WriteRune(char)
	}
	return builder.String()
}

// Quotes a parameter value when it holds characters that are not valid in a bare
// token.
func quoteIfNeeded(value string) string {
	if value != "" && !strings.ContainsAny(value, " \t\",;=\\()<>@:/[]?{}") {
		return value
	}

	builder := strings.Builder{}
	builder.WriteByte('"')
	for _, char := range value {
		if char == '"' || char == '\\' {
			builder.WriteByte('\\')
		}
		builder.WriteRune(char)
	}
	builder.WriteByte('"')
	return builder.String()
}
