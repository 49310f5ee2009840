package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

const (
	// chromeEpochOffsetMillis is the offset between the Chrome bookmark
	// timestamp epoch (1601-01-01) and the Unix epoch, in milliseconds.
	// Chrome stores date_added as microseconds since 1601.
	chromeEpochOffsetMillis = 11644473600000

	// bookmarksFilePerm is the permission mode for the rewritten
	// Bookmarks file. Chrome itself writes 0600.
	bookmarksFilePerm = fs.FileMode(0o600)

	// eventBufferSize bounds the change-event channel. The consumer
	// drains promptly; overflow events are dropped with a warning and
	// recovered by the next periodic sync.
	eventBufferSize = 64
)

// chromeRootKeys lists the fixed root folders of a Chrome Bookmarks
// file, in display order.
var chromeRootKeys = []string{"bookmark_bar", "other", "synced"}

func webkitToUnixMillis(webkit int64) int64 {
	if webkit == 0 {
		return 0
	}

	return webkit/1000 - chromeEpochOffsetMillis
}

func unixMillisToWebkit(ms int64) int64 {
	if ms == 0 {
		return 0
	}

	return (ms + chromeEpochOffsetMillis) * 1000
}

// chromeNode mirrors one entry of the Chrome Bookmarks file schema.
type chromeNode struct {
	Children  []*chromeNode `json:"children,omitempty"`
	DateAdded string        `json:"date_added"`
	GUID      string        `json:"guid,omitempty"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	URL       string        `json:"url,omitempty"`
}

type chromeDoc struct {
	Roots   map[string]*chromeNode `json:"roots"`
	Version int                    `json:"version"`
}

// ChromeSource reads and mutates a Chrome/Chromium "Bookmarks" file.
// Chrome replaces the file wholesale on every change, so mutations here
// follow the same write-temp-then-rename pattern, and external changes
// are detected by watching the containing directory.
type ChromeSource struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	// baseline is the flat id-indexed view of the tree as of the last
	// scan or daemon-initiated write. Watch diffs rescans against it so
	// the daemon's own writes never come back as change events.
	baseline map[string]Node

	events chan Event
}

// NewChromeSource creates a source for the Bookmarks file at path.
func NewChromeSource(path string, logger *slog.Logger) *ChromeSource {
	return &ChromeSource{
		path:   path,
		logger: logger,
		events: make(chan Event, eventBufferSize),
	}
}

// Name identifies the browser.
func (s *ChromeSource) Name() string { return "chrome" }

// Events streams changes observed in the Bookmarks file.
func (s *ChromeSource) Events() <-chan Event { return s.events }

// Tree returns the root folders of the bookmark tree.
func (s *ChromeSource) Tree(_ context.Context) ([]Node, error) {
	return s.readTree()
}

func (s *ChromeSource) readTree() ([]Node, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading bookmarks file: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("bookmarks file %s is not valid JSON", s.path)
	}

	roots := gjson.GetBytes(data, "roots")
	if !roots.Exists() {
		return nil, fmt.Errorf("bookmarks file %s has no roots object", s.path)
	}

	var tree []Node

	for _, key := range chromeRootKeys {
		r := roots.Get(key)
		if !r.Exists() {
			continue
		}

		tree = append(tree, parseChromeNode(r, "", len(tree)))
	}

	return tree, nil
}

func parseChromeNode(res gjson.Result, parentID string, index int) Node {
	n := Node{
		ID:        res.Get("id").String(),
		ParentID:  parentID,
		Title:     res.Get("name").String(),
		Index:     index,
		DateAdded: webkitToUnixMillis(res.Get("date_added").Int()),
	}

	if res.Get("type").String() == "url" {
		n.URL = res.Get("url").String()

		return n
	}

	res.Get("children").ForEach(func(_, child gjson.Result) bool {
		n.Children = append(n.Children, parseChromeNode(child, n.ID, len(n.Children)))

		return true
	})

	return n
}

// SubTree returns the node with the given id, or nil if unknown.
func (s *ChromeSource) SubTree(ctx context.Context, id string) (*Node, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}

	return findNode(tree, id), nil
}

func findNode(nodes []Node, id string) *Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}

		if found := findNode(nodes[i].Children, id); found != nil {
			return found
		}
	}

	return nil
}

// Create inserts a new bookmark or folder under parentID at n.Index,
// clamped to the parent's child count, and returns the node with its
// assigned ID.
func (s *ChromeSource) Create(_ context.Context, parentID string, n Node) (Node, error) {
	var created Node

	err := s.mutate(func(doc *chromeDoc, maxID int) error {
		parent := findChromeNode(doc, parentID)
		if parent == nil {
			return fmt.Errorf("parent folder %s not found", parentID)
		}

		if parent.Type != "folder" {
			return fmt.Errorf("parent %s is not a folder", parentID)
		}

		cn := &chromeNode{
			DateAdded: strconv.FormatInt(unixMillisToWebkit(n.DateAdded), 10),
			GUID:      uuid.NewString(),
			ID:        strconv.Itoa(maxID + 1),
			Name:      n.Title,
			Type:      "folder",
		}
		if n.URL != "" {
			cn.Type = "url"
			cn.URL = n.URL
		}

		idx := clampIndex(n.Index, len(parent.Children))
		parent.Children = append(parent.Children, nil)
		copy(parent.Children[idx+1:], parent.Children[idx:])
		parent.Children[idx] = cn

		created = n
		created.ID = cn.ID
		created.ParentID = parentID
		created.Index = idx

		return nil
	})

	return created, err
}

// Update rewrites the title and URL of the node with n.ID.
func (s *ChromeSource) Update(_ context.Context, n Node) error {
	return s.mutate(func(doc *chromeDoc, _ int) error {
		cn := findChromeNode(doc, n.ID)
		if cn == nil {
			return fmt.Errorf("node %s not found", n.ID)
		}

		cn.Name = n.Title
		if cn.Type == "url" {
			cn.URL = n.URL
		}

		return nil
	})
}

// Move reparents the node to parentID at the given sibling index.
func (s *ChromeSource) Move(_ context.Context, id, parentID string, index int) error {
	return s.mutate(func(doc *chromeDoc, _ int) error {
		moved := detachChromeNode(doc, id)
		if moved == nil {
			return fmt.Errorf("node %s not found", id)
		}

		parent := findChromeNode(doc, parentID)
		if parent == nil || parent.Type != "folder" {
			return fmt.Errorf("target folder %s not found", parentID)
		}

		idx := clampIndex(index, len(parent.Children))
		parent.Children = append(parent.Children, nil)
		copy(parent.Children[idx+1:], parent.Children[idx:])
		parent.Children[idx] = moved

		return nil
	})
}

// Remove deletes the node and, for folders, its subtree.
func (s *ChromeSource) Remove(_ context.Context, id string) error {
	return s.mutate(func(doc *chromeDoc, _ int) error {
		if detachChromeNode(doc, id) == nil {
			return fmt.Errorf("node %s not found", id)
		}

		return nil
	})
}

// EnsureFolder resolves a slash-separated folder path to a folder node
// ID, creating missing segments. The first segment selects a root
// folder; unrecognized roots fall under the bookmarks bar.
func (s *ChromeSource) EnsureFolder(_ context.Context, path string) (string, error) {
	segments := splitFolderPath(bookmarks.NormalizeFolderPath(path))

	var folderID string

	err := s.mutate(func(doc *chromeDoc, maxID int) error {
		cur := rootForSegment(doc, segments[0])
		if cur == nil {
			return fmt.Errorf("bookmarks file has no usable root folder")
		}

		for _, seg := range segments[1:] {
			next := childFolderByName(cur, seg)
			if next == nil {
				maxID++
				next = &chromeNode{
					GUID: uuid.NewString(),
					ID:   strconv.Itoa(maxID),
					Name: seg,
					Type: "folder",
				}
				cur.Children = append(cur.Children, next)
			}

			cur = next
		}

		folderID = cur.ID

		return nil
	})

	return folderID, err
}

// rootForSegment maps a normalized first path segment to a Chrome root
// folder. "toolbar" and anything unrecognized land on the bookmarks
// bar; "menu" maps to "other" since Chrome has no menu root.
func rootForSegment(doc *chromeDoc, seg string) *chromeNode {
	key := "bookmark_bar"

	switch strings.ToLower(seg) {
	case "other", "menu":
		key = "other"
	case "mobile bookmarks":
		key = "synced"
	}

	if root, ok := doc.Roots[key]; ok && root != nil {
		return root
	}

	return doc.Roots["bookmark_bar"]
}

func childFolderByName(parent *chromeNode, name string) *chromeNode {
	for _, c := range parent.Children {
		if c.Type == "folder" && strings.EqualFold(c.Name, name) {
			return c
		}
	}

	return nil
}

func splitFolderPath(path string) []string {
	if path == "" {
		return []string{""}
	}

	return strings.Split(path, "/")
}

func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}

	if idx > n {
		return n
	}

	return idx
}

// mutate runs fn against the decoded Bookmarks file and writes the
// result back atomically. The watch baseline is refreshed under the
// same lock so the daemon's own write never surfaces as a change event.
func (s *ChromeSource) mutate(fn func(doc *chromeDoc, maxID int) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading bookmarks file: %w", err)
	}

	var doc chromeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding bookmarks file: %w", err)
	}

	if err := fn(&doc, maxChromeID(&doc)); err != nil {
		return err
	}

	if err := s.write(&doc); err != nil {
		return err
	}

	tree, err := s.readTree()
	if err != nil {
		return err
	}

	s.baseline = indexTree(tree)

	return nil
}

func (s *ChromeSource) write(doc *chromeDoc) error {
	// Chrome recomputes the file checksum itself; writing without one
	// is accepted and avoids reimplementing its MD5 scheme.
	data, err := json.MarshalIndent(doc, "", "   ")
	if err != nil {
		return fmt.Errorf("encoding bookmarks file: %w", err)
	}

	tmp := s.path + ".marksyncr.tmp"
	if err := os.WriteFile(tmp, data, bookmarksFilePerm); err != nil {
		return fmt.Errorf("writing bookmarks file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing bookmarks file: %w", err)
	}

	return nil
}

func maxChromeID(doc *chromeDoc) int {
	maxID := 0

	var walk func(n *chromeNode)

	walk = func(n *chromeNode) {
		if n == nil {
			return
		}

		if id, err := strconv.Atoi(n.ID); err == nil && id > maxID {
			maxID = id
		}

		for _, c := range n.Children {
			walk(c)
		}
	}

	for _, root := range doc.Roots {
		walk(root)
	}

	return maxID
}

func findChromeNode(doc *chromeDoc, id string) *chromeNode {
	var found *chromeNode

	var walk func(n *chromeNode)

	walk = func(n *chromeNode) {
		if n == nil || found != nil {
			return
		}

		if n.ID == id {
			found = n
			return
		}

		for _, c := range n.Children {
			walk(c)
		}
	}

	for _, root := range doc.Roots {
		walk(root)
	}

	return found
}

func detachChromeNode(doc *chromeDoc, id string) *chromeNode {
	var detached *chromeNode

	var walk func(n *chromeNode)

	walk = func(n *chromeNode) {
		if n == nil || detached != nil {
			return
		}

		for i, c := range n.Children {
			if c.ID == id {
				detached = c
				n.Children = append(n.Children[:i], n.Children[i+1:]...)

				return
			}
		}

		for _, c := range n.Children {
			walk(c)
		}
	}

	for _, root := range doc.Roots {
		walk(root)
	}

	return detached
}
