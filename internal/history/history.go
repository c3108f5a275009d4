// Package history archives completed hands as plain text files, one per hand.
// The archive is an audit trail; tables are never restored from it.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lox/llmholdem/internal/game"
)

// Archive writes hand logs under a directory.
type Archive struct {
	dir string
}

// NewArchive creates dir if needed.
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Path returns the file a hand is archived to. Hand ids sort by time, so
// directory listings are chronological.
func (a *Archive) Path(handID string) string {
	return filepath.Join(a.dir, handID+".txt")
}

// Write archives one completed hand.
func (a *Archive) Write(result game.HandEndEvent) error {
	if result.HandID == "" {
		return fmt.Errorf("hand has no id")
	}
	return WriteFileAtomic(a.Path(result.HandID), []byte(Format(result)), 0o644)
}

// Format renders a hand result as text.
func Format(r game.HandEndEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hand #%d  %s  %s\n", r.HandNumber, r.HandID, r.Timestamp().UTC().Format("2006-01-02 15:04:05"))
	for _, line := range r.Log {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("*** SUMMARY ***\n")
	fmt.Fprintf(&sb, "Total pot %d", r.Pot)
	if len(r.Board) > 0 {
		fmt.Fprintf(&sb, " | Board [%s]", strings.Join(r.Board, " "))
	}
	sb.WriteByte('\n')
	for _, w := range r.Winners {
		if w.Hand != "" {
			fmt.Fprintf(&sb, "%s collected %d with %s\n", w.Name, w.Amount, w.Hand)
		} else {
			fmt.Fprintf(&sb, "%s collected %d\n", w.Name, w.Amount)
		}
	}
	if r.HumanCards != "" {
		fmt.Fprintf(&sb, "Human cards: %s\n", r.HumanCards)
	}
	return sb.String()
}

// WriteFileAtomic writes to a temporary file in the same directory and
// renames it over filename, so readers see either no file or the whole file.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	ok = true
	return nil
}
