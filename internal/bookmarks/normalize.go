package bookmarks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// vendorRoots maps browser-vendor root folder names onto a canonical
// scheme so folders created by different browsers compare equal.
// Matched case-insensitively as path prefixes, at a segment boundary.
var vendorRoots = []struct {
	prefix    string
	canonical string
}{
	{"bookmarks bar", "toolbar"},
	{"bookmarks toolbar", "toolbar"},
	{"speed dial", "toolbar"},
	{"other bookmarks", "other"},
	{"unsorted bookmarks", "other"},
	{"bookmarks menu", "menu"},
}

// NormalizeFolderPath canonicalizes a folder path for cross-browser
// comparison: Unicode NFC, vendor root names mapped to toolbar/, other/
// or menu/, and a single trailing slash stripped. Empty input stays
// empty. Without this mapping identical folders created by different
// browsers would never compare equal and every sync would report
// spurious folder-path updates.
func NormalizeFolderPath(path string) string {
	if path == "" {
		return ""
	}

	path = norm.NFC.String(path)
	lower := strings.ToLower(path)

	for _, vr := range vendorRoots {
		if !strings.HasPrefix(lower, vr.prefix) {
			continue
		}

		rest := path[len(vr.prefix):]
		if rest != "" && !strings.HasPrefix(rest, "/") {
			// Prefix match inside a longer segment name, e.g.
			// "Bookmarks Barn". Not a vendor root.
			continue
		}

		path = vr.canonical + "/" + strings.TrimPrefix(rest, "/")

		break
	}

	return strings.TrimSuffix(path, "/")
}

// NormalizedItem is the projection of an Item used for equivalence
// checks. DateAdded is deliberately absent: pulling a bookmark onto a
// device reassigns dateAdded from the local clock, and including it
// would make every pull look like a content change.
type NormalizedItem struct {
	Kind       ItemKind `json:"type"`
	URL        string   `json:"url,omitempty"`
	Title      string   `json:"title"`
	FolderPath string   `json:"folderPath"`
	Index      int      `json:"index"`
}

// Normalize projects items onto their comparison-relevant fields and
// sorts them by (folderPath, index) — never by kind: a folder reordered
// among sibling bookmarks is a positional change, and bucketing by type
// would erase it. URL and title break ties so the result is a pure
// function of the set regardless of input order.
func Normalize(items []Item) []NormalizedItem {
	out := make([]NormalizedItem, 0, len(items))

	for _, it := range items {
		n := NormalizedItem{
			Title:      it.Title,
			FolderPath: it.FolderPath,
			Index:      it.IndexOrZero(),
		}

		if it.IsFolder() {
			n.Kind = KindFolder
		} else {
			n.Kind = KindBookmark
			n.URL = it.URL
		}

		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FolderPath != b.FolderPath {
			return a.FolderPath < b.FolderPath
		}

		if a.Index != b.Index {
			return a.Index < b.Index
		}

		if a.URL != b.URL {
			return a.URL < b.URL
		}

		return a.Title < b.Title
	})

	return out
}

// Checksum returns the sha256 hex digest of the normalized item
// collection. Struct-field JSON marshalling has a fixed key order, so
// two equivalent collections always hash identically. The snapshot
// write path compares checksums to skip no-op writes entirely.
func Checksum(items []Item) string {
	data, err := json.Marshal(Normalize(items))
	if err != nil {
		// Marshalling a slice of plain string/int structs cannot fail.
		panic("bookmarks: marshalling normalized items: " + err.Error())
	}

	h := sha256.Sum256(data)

	return hex.EncodeToString(h[:])
}
