package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"questdb/internal/schema"

	"github.com/rs/zerolog/log"
)

// generatedSuffixes mark files written by this tool; they are not inputs.
var generatedSuffixes = []string{"_FIXED", "_MERGED", "_DEDUPED"}

// FileEntry is a database file ready for processing.
type FileEntry struct {
	Path string
	Kind schema.Kind
}

// InferKind guesses the record kind from a file name: names mentioning
// "npc" hold NPCs, everything else quests.
func InferKind(path string) schema.Kind {
	if strings.Contains(strings.ToLower(filepath.Base(path)), "npc") {
		return schema.KindNPC
	}
	return schema.KindQuest
}

// Discover expands paths into database files. Files are taken as given;
// directories are walked for .lua files, skipping generated outputs. A
// non-empty kind overrides inference.
func Discover(paths []string, kind schema.Kind) ([]FileEntry, error) {
	var entries []FileEntry
	add := func(path string) {
		k := kind
		if k == "" {
			k = InferKind(path)
		}
		entries = append(entries, FileEntry{Path: path, Kind: k})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Error walking path")
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".lua") || generated(path) {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}

		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
		log.Debug().Int("count", len(found)).Str("root", root).Msg("Discovered files")
	}

	return entries, nil
}

func generated(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, s := range generatedSuffixes {
		if strings.HasSuffix(stem, s) {
			return true
		}
	}
	return false
}
