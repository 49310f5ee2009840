// Package history records what each local-origin push changed. Pure
// cloud-to-local pulls never create an entry: history answers "what did
// I change", not "what did sync fetch".
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

// Entry is one version-history record for an account.
type Entry struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Added     int       `json:"added"`
	Updated   int       `json:"updated"`
	Deleted   int       `json:"deleted"`
	Version   int64     `json:"version"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEntry builds a history entry for a push receipt. The caller only
// records entries whose receipt carried local-origin changes.
func NewEntry(source string, receipt bookmarks.PushReceipt, summary string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Source:    source,
		Added:     receipt.Added,
		Updated:   receipt.Updated,
		Deleted:   receipt.Deleted,
		Version:   receipt.Version,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
}

// maxSummaryLines caps the rendered diff so a bulk import cannot bloat
// a history entry.
const maxSummaryLines = 20

// Summarize renders a short human-readable line diff between two item
// collections, comparing their normalized forms so dateAdded churn
// never shows up as a change.
func Summarize(before, after []bookmarks.Item) string {
	a := renderLines(before)
	b := renderLines(after)

	if a == b {
		return ""
	}

	dmp := diffmatchpatch.New()

	ca, cb, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var (
		out     []string
		dropped int
	)

	for _, d := range diffs {
		var prefix string

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}

		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			if line == "" {
				continue
			}

			if len(out) >= maxSummaryLines {
				dropped++
				continue
			}

			out = append(out, prefix+line)
		}
	}

	if dropped > 0 {
		out = append(out, fmt.Sprintf("… %d more", dropped))
	}

	return strings.Join(out, "\n")
}

// renderLines flattens a normalized item collection into one line per
// item, stable under input permutation.
func renderLines(items []bookmarks.Item) string {
	var b strings.Builder

	for _, n := range bookmarks.Normalize(items) {
		if n.Kind == bookmarks.KindFolder {
			fmt.Fprintf(&b, "%s/[%d] folder %s\n", n.FolderPath, n.Index, n.Title)
			continue
		}

		fmt.Fprintf(&b, "%s/[%d] %s %s\n", n.FolderPath, n.Index, n.URL, n.Title)
	}

	return b.String()
}
