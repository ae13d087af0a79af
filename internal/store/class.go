package store

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Class is a character role.
type Class string

const (
	ClassTank     Class = "tank"
	ClassDPS      Class = "dps"
	ClassHealer   Class = "healer"
	ClassLearning Class = "learning"
)

// Classes lists every class in display order.
var Classes = []Class{ClassTank, ClassDPS, ClassHealer, ClassLearning}

// ParseClass accepts a class name in any case.
func ParseClass(s string) (Class, error) {
	c := Class(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("unknown class %q", s)
}

// Valid reports whether c is one of Classes.
func (c Class) Valid() bool {
	return c.order() >= 0
}

// Label is the display name of the class.
func (c Class) Label() string {
	switch c {
	case ClassTank:
		return "Tank"
	case ClassDPS:
		return "DPS"
	case ClassHealer:
		return "Healer"
	case ClassLearning:
		return "Learning"
	default:
		return string(c)
	}
}

func (c Class) order() int {
	for i, known := range Classes {
		if c == known {
			return i
		}
	}
	return -1
}

// FormatName trims name, collapses inner whitespace and capitalizes each
// word: "  moon   knight" becomes "Moon Knight".
func FormatName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(fields, " "))
}

// NormalizeName is the duplicate-detection key: lower case, letters and
// digits only. "Star-Lord" and "starlord" share a key.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitNames splits a comma-separated list, dropping blanks.
func SplitNames(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if name := FormatName(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
