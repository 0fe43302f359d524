package harvest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const stampLayout = "2006-01-02 15:04:05"

// WriteQuestAdditions renders the harvested quests as a Lua table.
func WriteQuestAdditions(w io.Writer, b *Batch, now time.Time) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "-- Quest entries extracted from GitHub issues")
	fmt.Fprintf(&buf, "-- Generated: %s\n", now.Format(stampLayout))
	fmt.Fprintf(&buf, "-- Total quests: %d\n\n", len(b.Quests))
	fmt.Fprintln(&buf, "local questAdditions = {")
	for _, r := range b.Quests {
		fmt.Fprintf(&buf, "    -- %s (Issue #%d)\n", r.Name, r.Issue.Number)
		if r.Issue.URL != "" {
			fmt.Fprintf(&buf, "    -- %s\n", r.Issue.URL)
		}
		switch r.Status {
		case StatusPlaceholder:
			fmt.Fprintf(&buf, "    -- replaces placeholder %q\n", r.Existing)
		case StatusExisting:
			fmt.Fprintf(&buf, "    -- already in database as %q, review before adding\n", r.Existing)
		}
		fmt.Fprintf(&buf, "    %s,\n\n", r.QuestEntry)
	}
	fmt.Fprintln(&buf, "}")

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteNPCAdditions renders the NPCs missing from the NPC database.
func WriteNPCAdditions(w io.Writer, b *Batch, now time.Time) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "-- NPC entries extracted from GitHub issues")
	fmt.Fprintf(&buf, "-- Generated: %s\n", now.Format(stampLayout))
	fmt.Fprintf(&buf, "-- Total NPCs: %d\n\n", len(b.NPCs))
	fmt.Fprintln(&buf, "local npcAdditions = {")
	for _, n := range b.NPCs {
		quests := make([]string, len(n.Quests))
		for i, q := range n.Quests {
			quests[i] = strconv.Itoa(q)
		}
		fmt.Fprintf(&buf, "    -- Related to quests: %s (Issue #%d)\n", strings.Join(quests, ", "), n.Issue)
		fmt.Fprintf(&buf, "    %s,\n\n", n.Entry)
	}
	fmt.Fprintln(&buf, "}")

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteReport renders a plain-text summary of the batch.
func WriteReport(w io.Writer, b *Batch, now time.Time) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "Quest Data Processing Report")
	fmt.Fprintln(&buf, strings.Repeat("=", 50))
	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "Generated: %s\n", now.Format(stampLayout))
	fmt.Fprintf(&buf, "Issues scanned: %d\n", b.Scanned)
	fmt.Fprintf(&buf, "Total quests processed: %d\n", len(b.Quests))
	fmt.Fprintf(&buf, "Total NPCs extracted: %d\n", len(b.NPCs))
	fmt.Fprintf(&buf, "Duplicate submissions skipped: %d\n\n", len(b.Duplicates))

	fmt.Fprintln(&buf, "Quests by ID:")
	fmt.Fprintln(&buf, strings.Repeat("-", 30))
	for _, r := range b.Quests {
		fmt.Fprintf(&buf, "%d: %s (Issue #%d) [%s]\n", r.QuestID, r.Name, r.Issue.Number, r.Status)
	}

	if len(b.Duplicates) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Duplicates:")
		fmt.Fprintln(&buf, strings.Repeat("-", 30))
		for _, d := range b.Duplicates {
			fmt.Fprintf(&buf, "%d: issue #%d skipped, kept issue #%d\n", d.QuestID, d.Issue, d.KeptIssue)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFiles writes the quest additions, NPC additions and report into dir
// with a timestamp in each name, and returns the paths written.
func WriteFiles(dir string, b *Batch, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	stamp := now.Format("20060102_150405")
	outputs := []struct {
		name  string
		write func(io.Writer, *Batch, time.Time) error
	}{
		{"epochQuestDB_additions_" + stamp + ".lua", WriteQuestAdditions},
		{"epochNpcDB_additions_" + stamp + ".lua", WriteNPCAdditions},
		{"processing_report_" + stamp + ".txt", WriteReport},
	}

	var paths []string
	for _, o := range outputs {
		path := filepath.Join(dir, o.name)
		var buf bytes.Buffer
		if err := o.write(&buf, b, now); err != nil {
			return paths, fmt.Errorf("render %s: %w", o.name, err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
		log.Info().Str("path", path).Msg("Wrote harvest output")
	}
	return paths, nil
}
