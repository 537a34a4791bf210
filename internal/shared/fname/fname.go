// Package fname turns user supplied file names into names that are safe to
// store on disk and echo back in URLs.
package fname

import (
	"strings"
	"unicode"
)

// Base strips any directory part, accepting both / and \ separators so that
// browser paths like `C:\fakepath\wall.jpg` reduce to `wall.jpg`.
func Base(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// Secure keeps ASCII letters, digits, '.', '-' and '_', turns whitespace
// runs into a single '_' and trims leading and trailing dots and underscores.
// The result may be empty.
func Secure(name string) string {
	name = Base(name)
	var b strings.Builder
	space := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_'):
			if space && b.Len() > 0 {
				b.WriteByte('_')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

// Ext returns the lower-cased extension without the dot.
func Ext(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
