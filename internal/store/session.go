package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/vidtube/internal/domain"
)

var sessionBucket = []byte("session")

var sessionKey = []byte("current")

// sessionFile keeps the signed-in session in bolt and mirrors the last
// value in memory. A zero sessionFile works memory-only.
type sessionFile struct {
	db *bolt.DB

	mu     sync.Mutex
	loaded bool
	raw    []byte
}

func openSessionFile(baseDir, serverURL string) (*sessionFile, error) {
	dir := baseDir
	if serverURL != "" {
		dir = filepath.Join(baseDir, serverKey(serverURL))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "vidtube.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session db: %w", err)
	}
	return &sessionFile{db: db}, nil
}

// serverKey names the per-server directory. Case and trailing slashes do
// not make a different server.
func serverKey(serverURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(strings.ToLower(serverURL), "/")))
	return hex.EncodeToString(sum[:6])
}

func (f *sessionFile) load() (domain.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded && f.db != nil {
		_ = f.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(sessionBucket).Get(sessionKey); v != nil {
				f.raw = append([]byte(nil), v...)
			}
			return nil
		})
		f.loaded = true
	}

	var sess domain.Session
	if f.raw == nil || json.Unmarshal(f.raw, &sess) != nil {
		return domain.Session{}, false
	}
	return sess, true
}

func (f *sessionFile) save(sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw, f.loaded = raw, true
	if f.db == nil {
		return nil
	}
	return f.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(sessionKey, raw)
	})
}

func (f *sessionFile) clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw, f.loaded = nil, true
	if f.db == nil {
		return nil
	}
	return f.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(sessionKey)
	})
}

func (f *sessionFile) close() error {
	if f.db == nil {
		return nil
	}
	return f.db.Close()
}
