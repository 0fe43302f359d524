package compare

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"questdb/internal/merge"
	"questdb/internal/parser"

	"github.com/rs/zerolog/log"
)

// ShowFile returns the content of path as it was at the given git ref. The
// path is resolved relative to its own directory, so it may live anywhere
// inside a work tree.
func ShowFile(ctx context.Context, ref, path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, "git", "show", ref+":./"+filepath.Base(abs))
	cmd.Dir = filepath.Dir(abs)

	output, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("git show %s:%s: %s", ref, path, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("git show %s:%s: %w", ref, path, err)
	}
	return output, nil
}

// LoadRevision loads path at ref as a collection labelled `path@ref`.
func LoadRevision(ctx context.Context, ref, path string, opts parser.LocateOptions) (*merge.Collection, error) {
	data, err := ShowFile(ctx, ref, path)
	if err != nil {
		return nil, err
	}

	label := path + "@" + ref
	f := parser.NewFile(label, data)
	log.Debug().Str("path", path).Str("ref", ref).Int("lines", len(f.Lines)).Msg("Loaded file from git")
	return merge.FromLines(label, f.Lines, opts), nil
}
