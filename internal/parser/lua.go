package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxLineSize bounds a single source line; NPC spawn tables can be long.
const maxLineSize = 16 * 1024 * 1024

// File is a Lua database file held as lines so records can be rewritten
// without disturbing anything else.
type File struct {
	// Path is where the file was read from.
	Path string
	// Lines are the raw source lines without line terminators.
	Lines []string
}

// ReadFile loads a Lua file from disk.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	lines, err := readLines(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &File{Path: path, Lines: lines}, nil
}

// NewFile wraps in-memory source as a File.
func NewFile(path string, data []byte) *File {
	lines, _ := readLines(bytes.NewReader(data))
	return &File{Path: path, Lines: lines}
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lua file: %w", err)
	}
	return lines, nil
}

// Records locates the records of the file's table.
func (f *File) Records(opts LocateOptions) []Record {
	return Locate(f.Lines, opts)
}

// Bytes reconstructs the file content with a trailing newline.
func (f *File) Bytes() []byte {
	return []byte(strings.Join(f.Lines, "\n") + "\n")
}

// Edit replaces the 1-based inclusive line range [Line, EndLine] with Lines.
// A nil Lines deletes the range.
type Edit struct {
	Line    int
	EndLine int
	Lines   []string
}

// Apply returns a copy of the file with the edits applied. Edits must not
// overlap; they may be given in any order.
func (f *File) Apply(edits []Edit) *File {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Line < sorted[j].Line })

	out := make([]string, 0, len(f.Lines))
	next := 1
	for _, e := range sorted {
		if e.Line < next || e.Line > len(f.Lines) {
			continue
		}
		out = append(out, f.Lines[next-1:e.Line-1]...)
		out = append(out, e.Lines...)
		next = min(e.EndLine, len(f.Lines)) + 1
	}
	if next <= len(f.Lines) {
		out = append(out, f.Lines[next-1:]...)
	}
	return &File{Path: f.Path, Lines: out}
}

// Write stores the file at path, creating or truncating it.
func (f *File) Write(path string) error {
	if err := os.WriteFile(path, f.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SiblingPath returns path with suffix inserted before the extension:
// SiblingPath("db/epochQuestDB.lua", "_FIXED") is "db/epochQuestDB_FIXED.lua".
func SiblingPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
