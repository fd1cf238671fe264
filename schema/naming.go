package schema

import (
	"strings"
	"unicode"
)

// splitName splits a name on hyphens, underscores and dots.
func splitName(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
}

// ToPascalCase turns a snake_case or kebab-case name into PascalCase. The
// case of letters after the first of each part is kept, so names that are
// already PascalCase come out unchanged.
func ToPascalCase(name string) string {
	var b strings.Builder
	for _, part := range splitName(name) {
		runes := []rune(part)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// CommonAcronyms are name parts written fully uppercased in Go names.
var CommonAcronyms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"uuid": "UUID",
	"api":  "API",
	"http": "HTTP",
	"json": "JSON",
	"sql":  "SQL",
}

// ToPascalCaseAcronyms is ToPascalCase with CommonAcronyms applied to whole
// parts.
func ToPascalCaseAcronyms(name string) string {
	var b strings.Builder
	for _, part := range splitName(name) {
		if acronym, ok := CommonAcronyms[strings.ToLower(part)]; ok {
			b.WriteString(acronym)
			continue
		}
		runes := []rune(part)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

func goName(name string, cfg RenderConfig) string {
	if cfg.UseAcronyms {
		return ToPascalCaseAcronyms(name)
	}
	return ToPascalCase(name)
}
