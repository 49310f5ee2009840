package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/profullstack/marksyncr/internal/bookmarks"
	"github.com/profullstack/marksyncr/internal/history"
)

const (
	// stateDirPerm is the permission mode for the state directory (~/.marksyncr/).
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var (
	appBucket = []byte("app")

	sessionKey           = []byte("session")
	selectedSourceKey    = []byte("selected-source")
	settingsKey          = []byte("settings")
	modifiedIDsKey       = []byte("locally-modified-ids")
	pendingTombstonesKey = []byte("pending-tombstones")
)

func accountSnapshotBucket(accountID string) []byte {
	return []byte("account:" + accountID + ":snapshot")
}

func accountHistoryBucket(accountID string) []byte {
	return []byte("account:" + accountID + ":history")
}

// snapshotKey is the single key under an account's snapshot bucket: one
// row per account, upserted in place.
var snapshotKey = []byte("snapshot")

// StoredSnapshot is the persisted form of an account's bookmark
// snapshot row. It doubles as the local cache of the last cloud state
// and as the authoritative row when running in local mode.
type StoredSnapshot struct {
	Items        []bookmarks.Item      `json:"bookmark_data"`
	Tombstones   []bookmarks.Tombstone `json:"tombstones"`
	Checksum     string                `json:"checksum"`
	Version      int64                 `json:"version"`
	LastModified time.Time             `json:"last_modified"`
}

// State wraps a bbolt database for all persistent application state.
type State struct {
	db *bolt.DB
}

// Load opens the state database at ~/.marksyncr/state.db, creating it
// if it does not exist. The app bucket is created on open.
func Load() (*State, error) {
	return LoadAt(dbPath())
}

// LoadAt opens a state database at the given path, creating it if it
// does not exist. Useful for tests that need an isolated database.
func LoadAt(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(appBucket)

		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}

// Session returns the cached session token, or empty string.
func (s *State) Session() string {
	var token string

	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(sessionKey)
		if v != nil {
			token = string(v)
		}

		return nil
	})

	return token
}

// SetSession persists the session token.
func (s *State) SetSession(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(sessionKey, []byte(token))
	})
}

// ClearSession removes the persisted session token. Only called on an
// authoritative rejection from the API, never on transient failures.
func (s *State) ClearSession() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Delete(sessionKey)
	})
}

// SelectedSource returns the persisted browser-source name, or empty.
func (s *State) SelectedSource() string {
	var src string

	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(selectedSourceKey)
		if v != nil {
			src = string(v)
		}

		return nil
	})

	return src
}

// SetSelectedSource persists the browser-source name.
func (s *State) SetSelectedSource(src string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(selectedSourceKey, []byte(src))
	})
}

// Settings returns the opaque user-settings blob, or nil if absent.
// The sync engine stores it verbatim and never interprets it.
func (s *State) Settings() []byte {
	var blob []byte

	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(settingsKey)
		if v != nil {
			blob = append([]byte(nil), v...)
		}

		return nil
	})

	return blob
}

// SetSettings persists the opaque user-settings blob.
func (s *State) SetSettings(blob []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(settingsKey, blob)
	})
}

// ModifiedIDs returns the persisted locally-modified bookmark id set.
// A missing key returns an empty slice and no error.
func (s *State) ModifiedIDs() ([]string, error) {
	var ids []string

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(modifiedIDsKey)
		if v == nil {
			return nil
		}

		return json.Unmarshal(v, &ids)
	})
	if err != nil {
		return nil, fmt.Errorf("reading modified ids: %w", err)
	}

	return ids, nil
}

// SetModifiedIDs overwrites the persisted locally-modified id set.
// Always a full overwrite, never an append, so the persisted form can
// never drift from the in-memory set.
func (s *State) SetModifiedIDs(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshalling modified ids: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(modifiedIDsKey, data)
	})
}

// PendingTombstones returns deletions recorded locally but not yet
// pushed to the cloud.
func (s *State) PendingTombstones() ([]bookmarks.Tombstone, error) {
	var ts []bookmarks.Tombstone

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(pendingTombstonesKey)
		if v == nil {
			return nil
		}

		return json.Unmarshal(v, &ts)
	})
	if err != nil {
		return nil, fmt.Errorf("reading pending tombstones: %w", err)
	}

	return ts, nil
}

// SetPendingTombstones overwrites the pending tombstone list.
func (s *State) SetPendingTombstones(ts []bookmarks.Tombstone) error {
	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("marshalling pending tombstones: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(pendingTombstonesKey, data)
	})
}

// InitAccountBuckets ensures the snapshot and history buckets exist for
// the given account. Call this once after account selection.
func (s *State) InitAccountBuckets(accountID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(accountSnapshotBucket(accountID)); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists(accountHistoryBucket(accountID))

		return err
	})
}

// GetSnapshot returns the stored snapshot row for an account, or nil if
// none has been written yet.
func (s *State) GetSnapshot(accountID string) (*StoredSnapshot, error) {
	var snap *StoredSnapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(accountSnapshotBucket(accountID))
		if b == nil {
			return nil
		}

		v := b.Get(snapshotKey)
		if v == nil {
			return nil
		}

		snap = &StoredSnapshot{}

		return json.Unmarshal(v, snap)
	})

	return snap, err
}

// PutSnapshot overwrites the stored snapshot row for an account.
func (s *State) PutSnapshot(accountID string, snap StoredSnapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putSnapshotTx(tx, accountID, snap)
	})
}

// UpdateSnapshot runs fn against the current stored snapshot inside a
// single bolt transaction. fn receives nil when no row exists yet and
// returns the row to store, or nil to leave the store untouched. The
// read-modify-write happening in one transaction is what keeps the
// version check-and-increment atomic against concurrent writers.
func (s *State) UpdateSnapshot(accountID string, fn func(cur *StoredSnapshot) (*StoredSnapshot, error)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var cur *StoredSnapshot

		b := tx.Bucket(accountSnapshotBucket(accountID))
		if b != nil {
			if v := b.Get(snapshotKey); v != nil {
				cur = &StoredSnapshot{}
				if err := json.Unmarshal(v, cur); err != nil {
					return fmt.Errorf("unmarshalling stored snapshot: %w", err)
				}
			}
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		if next == nil {
			return nil
		}

		return putSnapshotTx(tx, accountID, *next)
	})
}

func putSnapshotTx(tx *bolt.Tx, accountID string, snap StoredSnapshot) error {
	b, err := tx.CreateBucketIfNotExists(accountSnapshotBucket(accountID))
	if err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	return b.Put(snapshotKey, data)
}

// AppendHistory stores a version-history entry for an account, ordered
// by insertion.
func (s *State) AppendHistory(accountID string, e history.Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(accountHistoryBucket(accountID))
		if err != nil {
			return err
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}

		return b.Put(key, data)
	})
}

// History returns up to limit history entries for an account, newest
// first. limit <= 0 returns everything.
func (s *State) History(accountID string, limit int) ([]history.Entry, error) {
	var entries []history.Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(accountHistoryBucket(accountID))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}

			var e history.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}

			entries = append(entries, e)
		}

		return nil
	})

	return entries, err
}

func dbPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		// Fail loudly rather than silently writing to the current directory
		// where the database (containing session tokens) might end up with
		// wrong permissions or inside a source-controlled tree.
		fmt.Fprintf(os.Stderr, "fatal: cannot determine home directory: %v\n", err)
		os.Exit(1)
	}

	return filepath.Join(dir, ".marksyncr", "state.db")
}
