// Package state keeps petbookctl's signed-in sessions in a local bbolt
// file, one per server URL.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/aussiebroadwan/petbook/pkg/authsdk"
)

var bucketSessions = []byte("sessions")

var ErrNoSession = errors.New("state: no saved session")

// Saved is the session stored for one server.
type Saved struct {
	Server  string          `json:"server"`
	Email   string          `json:"email,omitempty"`
	Session authsdk.Session `json:"session"`
	SavedAt time.Time       `json:"saved_at"`
}

type Store struct {
	db *bbolt.DB
}

// DefaultPath is petbookctl.db under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "petbook", "petbookctl.db")
}

// Open opens or creates the state file. The file holds refresh tokens and
// is created readable by the owner only.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("state: create dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSession(v Saved) error {
	if v.Server == "" {
		return errors.New("state: server is required")
	}
	if v.SavedAt.IsZero() {
		v.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: marshal session: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(v.Server), data)
	})
}

// LoadSession returns the session saved for server, or ErrNoSession.
func (s *Store) LoadSession(server string) (Saved, error) {
	var v Saved
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(server))
		if data == nil {
			return ErrNoSession
		}
		return json.Unmarshal(data, &v)
	})
	if err != nil {
		return Saved{}, err
	}
	return v, nil
}

// ClearSession forgets server's session. Clearing an absent one is not an
// error.
func (s *Store) ClearSession(server string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(server))
	})
}

// Servers lists every server with a saved session.
func (s *Store) Servers() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}
