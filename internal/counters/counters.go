// Package counters parses the hero counter-matchup table and resolves
// abbreviated hero names.
package counters

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Entry lists the counters for one hero.
type Entry struct {
	Name string   `json:"name"`
	Hard []string `json:"hard_counters"`
	Soft []string `json:"soft_counters"`
}

// Table maps lower-cased hero names to entries.
type Table map[string]Entry

var (
	headerPattern = regexp.MustCompile(`^(.+?):(\s|$)`)
	hardPattern   = regexp.MustCompile(`Hard Counter - (.+)`)
	softPattern   = regexp.MustCompile(`Soft Counter - (.+)`)
)

// Parse reads a counters document. A line "Name: ..." starts an entry and
// "Hard Counter - a, b" / "Soft Counter - c" lines append to the current one.
// Counter lines before the first header are ignored.
func Parse(r io.Reader) (Table, error) {
	table := Table{}
	var current string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := headerPattern.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			current = strings.ToLower(name)
			table[current] = Entry{Name: name}
		}
		if current == "" {
			continue
		}

		entry := table[current]
		if m := hardPattern.FindStringSubmatch(line); m != nil {
			entry.Hard = append(entry.Hard, splitList(m[1])...)
		}
		if m := softPattern.FindStringSubmatch(line); m != nil {
			entry.Soft = append(entry.Soft, splitList(m[1])...)
		}
		table[current] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read counters: %w", err)
	}
	return table, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var abbreviations = map[string]string{
	"psy":      "Psylocke",
	"wolv":     "Wolverine",
	"wolvie":   "Wolverine",
	"bp":       "Black Panther",
	"strange":  "Dr. Strange",
	"moon":     "Moon Knight",
	"adam":     "Adam Warlock",
	"hulk":     "Bruce Banner",
	"captain":  "Captain America",
	"cnd":      "Cloak and Dagger",
	"invis":    "Invisible Woman",
	"peni":     "Peni Parker",
	"rocket":   "Rocket Racoon",
	"scarlet":  "Scarlet Witch",
	"squirrel": "Squirrel Girl",
	"punisher": "The Punisher",
	"bucky":    "Winter Soldier",
}

// Normalize expands a known abbreviation to the full hero name. Other input
// is returned trimmed.
func Normalize(input string) string {
	input = strings.TrimSpace(input)
	if full, ok := abbreviations[strings.ToLower(input)]; ok {
		return full
	}
	return input
}

// Lookup resolves input (full or abbreviated) and returns the display name
// used for the reply along with the entry, if any.
func (t Table) Lookup(input string) (string, Entry, bool) {
	name := Normalize(input)
	entry, ok := t[strings.ToLower(name)]
	return name, entry, ok
}

// Names returns the display names of every entry, sorted.
func (t Table) Names() []string {
	out := make([]string, 0, len(t))
	for _, e := range t {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

// Format renders an entry as the chat reply.
func Format(name string, e Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Character:** %s\n", name)
	if len(e.Hard) > 0 {
		fmt.Fprintf(&b, "**Hard Counter:** %s\n", strings.Join(e.Hard, ", "))
	}
	if len(e.Soft) > 0 {
		fmt.Fprintf(&b, "**Soft Counter:** %s", strings.Join(e.Soft, ", "))
	}
	return strings.TrimSpace(b.String())
}
