package bookmarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortable_RoundTrip(t *testing.T) {
	items := []Item{
		folder("Dev", "toolbar", 0),
		bm("https://go.dev", "Go", "toolbar/Dev", 0, 100),
		bm("https://pkg.go.dev", "Packages", "toolbar/Dev", 1, 200),
		bm("https://news.example.com", "News", "toolbar", 1, 300),
	}

	data, err := FormatJSON(items)
	require.NoError(t, err)

	parsed, err := ParseImportFile(data)
	require.NoError(t, err)

	var urls, titles []string

	byPath := make(map[string][]string)

	for _, it := range parsed {
		if it.Kind == KindBookmark {
			urls = append(urls, it.URL)
			byPath[it.FolderPath] = append(byPath[it.FolderPath], it.URL)
		} else {
			titles = append(titles, it.Title)
		}
	}

	assert.ElementsMatch(t, []string{"https://go.dev", "https://pkg.go.dev", "https://news.example.com"}, urls)
	assert.Contains(t, titles, "Dev")
	assert.Equal(t, []string{"https://go.dev", "https://pkg.go.dev"}, byPath["toolbar/Dev"], "children order preserved")
	assert.Equal(t, []string{"https://news.example.com"}, byPath["toolbar"])
}

func TestFormatJSON_MaterializesImplicitFolders(t *testing.T) {
	// A bookmark in a folder that has no explicit folder item still
	// exports under that folder.
	items := []Item{bm("https://a.com", "A", "toolbar/Implicit", 0, 100)}

	data, err := FormatJSON(items)
	require.NoError(t, err)

	parsed, err := ParseImportFile(data)
	require.NoError(t, err)

	var foundFolder, foundBookmark bool

	for _, it := range parsed {
		if it.Kind == KindFolder && it.Title == "Implicit" {
			foundFolder = true
		}

		if it.Kind == KindBookmark && it.FolderPath == "toolbar/Implicit" {
			foundBookmark = true
		}
	}

	assert.True(t, foundFolder)
	assert.True(t, foundBookmark)
}

func TestParseImportFile_RejectsForeignFormat(t *testing.T) {
	_, err := ParseImportFile([]byte(`{"format":"netscape","roots":[]}`))
	assert.Error(t, err)
}

func TestParseImportFile_RejectsMalformedJSON(t *testing.T) {
	_, err := ParseImportFile([]byte(`{not json`))
	assert.Error(t, err)
}

func TestParseImportFile_AssignsSiblingIndices(t *testing.T) {
	doc := `{
	  "format": "marksyncr",
	  "version": 1,
	  "roots": [
	    {"type": "folder", "title": "toolbar", "children": [
	      {"type": "bookmark", "title": "A", "url": "https://a.com"},
	      {"type": "bookmark", "title": "B", "url": "https://b.com"}
	    ]}
	  ]
	}`

	items, err := ParseImportFile([]byte(doc))
	require.NoError(t, err)
	require.Len(t, items, 3)

	var got []int

	for _, it := range items {
		if it.Kind == KindBookmark {
			got = append(got, it.IndexOrZero())
		}
	}

	assert.Equal(t, []int{0, 1}, got)
}
