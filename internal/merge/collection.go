package merge

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"questdb/internal/parser"
	"questdb/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Entry is one record of a collection.
type Entry struct {
	ID     int
	Name   string
	Record parser.Record
	// Source is the file the record was taken from.
	Source string
}

// Collection is a database file reduced to its records and the text around
// its table.
type Collection struct {
	Path  string
	Table string
	// Header holds the lines up to and including the table open marker.
	Header []string
	// Footer holds the lines from the table close marker on.
	Footer  []string
	Entries map[int]*Entry
}

// Load reads a database file into a collection.
func Load(path string, opts parser.LocateOptions) (*Collection, error) {
	f, err := parser.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromLines(path, f.Lines, opts), nil
}

// FromLines builds a collection from file content. When an id repeats, the
// first definition wins.
func FromLines(path string, lines []string, opts parser.LocateOptions) *Collection {
	c := &Collection{
		Path:    path,
		Table:   opts.Table,
		Entries: make(map[int]*Entry),
	}

	open, close := parser.TableBounds(lines, opts.Table)
	switch {
	case open >= 0:
		c.Header = append([]string(nil), lines[:open+1]...)
		if name, ok := parser.TableOpen(lines[open]); ok {
			c.Table = name
		}
		if close >= 0 {
			c.Footer = append([]string(nil), lines[close:]...)
		} else {
			c.Footer = []string{"}"}
		}
	default:
		if c.Table == "" {
			c.Table = "data"
		}
		c.Header = []string{c.Table + " = {"}
		c.Footer = []string{"}"}
	}

	for _, rec := range parser.Locate(lines, opts) {
		if _, dup := c.Entries[rec.ID]; dup {
			log.Warn().Str("path", path).Int("id", rec.ID).Int("line", rec.Line).Msg("Duplicate id ignored, keeping first")
			continue
		}
		c.Entries[rec.ID] = &Entry{
			ID:     rec.ID,
			Name:   recordName(rec),
			Record: rec,
			Source: path,
		}
	}

	return c
}

func recordName(rec parser.Record) string {
	fields := rec.Fields()
	if len(fields) == 0 || fields[0] == "nil" {
		return ""
	}
	return textutil.Unquote(fields[0])
}

// IDs returns the record ids in ascending order.
func (c *Collection) IDs() []int {
	ids := make([]int, 0, len(c.Entries))
	for id := range c.Entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.Entries) }

func (c *Collection) clone() *Collection {
	out := &Collection{
		Path:    c.Path,
		Table:   c.Table,
		Header:  c.Header,
		Footer:  c.Footer,
		Entries: make(map[int]*Entry, len(c.Entries)),
	}
	for id, e := range c.Entries {
		cp := *e
		out.Entries[id] = &cp
	}
	return out
}

// Lines renders the collection: header, records sorted by id, footer.
// Records taken from another file are tagged with a source comment.
func (c *Collection) Lines() []string {
	out := append([]string(nil), c.Header...)
	for _, id := range c.IDs() {
		e := c.Entries[id]
		indent := e.Record.Indent()
		if indent == "" {
			indent = "  "
		}

		line := fmt.Sprintf("%s[%d] = {%s},", indent, id, e.Record.FieldText)
		comment := trailerComment(e.Record.Trailer)
		if e.Source != c.Path {
			comment = "from " + filepath.Base(e.Source)
		}
		if comment != "" {
			line += " -- " + comment
		}
		out = append(out, strings.Split(line, "\n")...)
	}
	return append(out, c.Footer...)
}

// trailerComment extracts the comment text following a record, if any.
func trailerComment(trailer string) string {
	t := strings.TrimLeft(strings.TrimSpace(trailer), ",;")
	t = strings.TrimSpace(t)
	if !strings.HasPrefix(t, "--") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(t, "--"))
}
