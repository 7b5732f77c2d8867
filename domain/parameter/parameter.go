// Package parameter provides value types for site configuration and
// per-instance module parameters.
package parameter

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Site-wide configuration keys read by the document shell.
const (
	KeyWebsiteName        = "website.name"
	KeyWebsiteDescription = "website.description"
	KeyWebsiteKeywords    = "website.keywords"
	KeyWebsiteAuthor      = "website.author"
	KeyWebsiteLogo        = "website.logo"
	KeyWebsiteFavicon     = "website.favicon"
	KeyWebsiteTheme       = "website.theme"
)

// ShellKeys lists the config keys rendered into every document head.
var ShellKeys = []string{
	KeyWebsiteName,
	KeyWebsiteDescription,
	KeyWebsiteKeywords,
	KeyWebsiteAuthor,
	KeyWebsiteFavicon,
	KeyWebsiteTheme,
}

// ValueType is the declared type of a parameter value.
type ValueType string

const (
	TypeString     ValueType = "STRING"
	TypeNumber     ValueType = "NUMBER"
	TypeBoolean    ValueType = "BOOLEAN"
	TypeURL        ValueType = "URL"
	TypeExpression ValueType = "EXPRESSION"
)

// Type is a global schema entry for a parameter key.
type Type struct {
	Key          string
	ValueType    ValueType
	IsRequired   bool
	IsSelect     bool
	SelectValues []string
}

// ConfigParameter is a single site-wide key/value row.
type ConfigParameter struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Qualify returns the fully-qualified key stored for a module parameter.
func Qualify(shortName, key string) string {
	return shortName + "." + key
}

// Row is a raw stored parameter of a module instance.
type Row struct {
	Key   string
	Value string
}

// Values is the resolved, prefix-free parameter map of one instance.
type Values map[string]string

// Get returns the value for key or "".
func (v Values) Get(key string) string {
	return v[key]
}

// Has reports whether key is present with a non-empty value.
func (v Values) Has(key string) bool {
	return v[key] != ""
}

// Bool interprets the value as a boolean flag.
func (v Values) Bool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(v[key])) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Int returns the value as int or def when absent or invalid.
func (v Values) Int(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v[key]))
	if err != nil {
		return def
	}
	return n
}

// Resolve folds raw rows of a module instance into Values.
// The "<shortName>." prefix is stripped; rows without it keep their key.
// Every value passes through Sanitize.
func Resolve(shortName string, rows []Row) Values {
	prefix := shortName + "."
	out := make(Values, len(rows))
	for _, r := range rows {
		key := strings.TrimPrefix(r.Key, prefix)
		out[key] = Sanitize(r.Value)
	}
	return out
}

// Sanitize drops invalid UTF-8 and control characters other than
// newline and tab. HTML escaping happens at render time.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
