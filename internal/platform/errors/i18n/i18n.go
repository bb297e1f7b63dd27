// Package i18n provides locale catalogs for user-facing error messages.
package i18n

import (
	"strings"
	"text/template"
)

// Code is the string form of a domain error code.
type Code = string

// Catalog holds the user-facing messages for one locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

// Locale returns the catalog's locale tag.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for a code, substituting metadata fields.
// Unknown codes fall back to a generic message so callers never leak
// internal error text to users.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	msg, ok := c.messages[code]
	if !ok {
		return "An unexpected error occurred"
	}
	if !strings.Contains(msg, "{{") {
		return msg
	}

	tmpl, err := template.New(code).Parse(msg)
	if err != nil {
		return msg
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, metadata); err != nil {
		return msg
	}
	return out.String()
}

// GetCatalog returns the catalog for the requested locale, falling back
// to en-US for unknown locales.
func GetCatalog(locale string) *Catalog {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "", "en", "en-us":
		return enUSCatalog
	default:
		return enUSCatalog
	}
}
