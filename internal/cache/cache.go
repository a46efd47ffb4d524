// Package cache is the persistent store for slow extractor output. Each
// extractor owns one shard file keyed by file content hash. The on-disk
// format is a header (magic, schema version, extractor identity) followed by
// a length-prefixed record stream; a shard whose header does not match is
// discarded wholesale. Concurrent runs coordinate through an advisory file
// lock per shard.
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"autoname/internal/logging"
	"autoname/internal/textutil"
)

const (
	magic         = "ANCACHE1"
	schemaVersion = uint32(1)

	// maxEntryBytes rejects absurd length prefixes from corrupt shards.
	maxEntryBytes = 64 << 20
)

// ErrCache is the only error kind the store surfaces. Missing, corrupt, or
// version-mismatched entries never raise it; they are misses.
var ErrCache = errors.New("cache error")

// Store is one extractor's shard.
type Store struct {
	path        string
	extractorID string
	logger      *slog.Logger

	mu      sync.Mutex
	entries map[string][]byte
	dirty   bool
}

// Open loads (or lazily creates) the shard for an extractor identity. The
// identity includes the extractor version, so a version bump naturally
// abandons stale entries.
func Open(dir, extractorID string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: cache directory not configured", ErrCache)
	}
	if strings.TrimSpace(extractorID) == "" {
		return nil, fmt.Errorf("%w: extractor identity required", ErrCache)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create cache dir: %v", ErrCache, err)
	}

	s := &Store{
		path:        filepath.Join(dir, textutil.SanitizeToken(extractorID)+".cache"),
		extractorID: extractorID,
		logger:      logging.NewComponentLogger(logger, "cache"),
		entries:     make(map[string][]byte),
	}
	s.load()
	return s, nil
}

// Get returns the stored value for key, or false on a miss.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true
}

// Set stores a value under key. The shard is persisted on Flush.
func (s *Store) Set(key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", ErrCache)
	}
	cp := make([]byte, len(value))
	copy(cp, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = cp
	s.dirty = true
	return nil
}

// Keys returns every stored key in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush writes the shard to disk under an exclusive advisory lock. Writes
// go through a temp file and rename so readers never observe a torn shard.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: lock shard: %v", ErrCache, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cache-*")
	if err != nil {
		return fmt.Errorf("%w: create temp shard: %v", ErrCache, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := s.write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp shard: %v", ErrCache, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: replace shard: %v", ErrCache, err)
	}
	s.dirty = false
	return nil
}

func (s *Store) write(w io.Writer) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrCache, err)
	}
	var version [4]byte
	binary.BigEndian.PutUint32(version[:], schemaVersion)
	if _, err := w.Write(version[:]); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrCache, err)
	}
	if err := writeChunk(w, []byte(s.extractorID)); err != nil {
		return err
	}

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := writeChunk(w, []byte(key)); err != nil {
			return err
		}
		if err := writeChunk(w, s.entries[key]); err != nil {
			return err
		}
	}
	return nil
}

// load reads the shard under a shared lock. Any malformed content discards
// the shard; the cache then simply starts cold.
func (s *Store) load() {
	fh, err := os.Open(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache shard unreadable, starting cold",
				logging.String("path", s.path), logging.Error(err))
		}
		return
	}
	defer fh.Close()

	lock := flock.New(s.path + ".lock")
	if err := lock.RLock(); err == nil {
		defer func() { _ = lock.Unlock() }()
	}

	head := make([]byte, len(magic)+4)
	if _, err := io.ReadFull(fh, head); err != nil {
		s.discard("truncated header")
		return
	}
	if string(head[:len(magic)]) != magic {
		s.discard("bad magic")
		return
	}
	if binary.BigEndian.Uint32(head[len(magic):]) != schemaVersion {
		s.discard("schema version mismatch")
		return
	}
	identity, err := readChunk(fh)
	if err != nil || string(identity) != s.extractorID {
		s.discard("extractor identity mismatch")
		return
	}

	for {
		key, err := readChunk(fh)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			s.discard("corrupt record stream")
			return
		}
		value, err := readChunk(fh)
		if err != nil {
			s.discard("corrupt record stream")
			return
		}
		s.entries[string(key)] = value
	}
}

func (s *Store) discard(reason string) {
	s.entries = make(map[string][]byte)
	s.logger.Warn("discarding cache shard",
		logging.String("path", s.path),
		logging.String("reason", reason))
}

func writeChunk(w io.Writer, data []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("%w: write record: %v", ErrCache, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: write record: %v", ErrCache, err)
	}
	return nil
}

func readChunk(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxEntryBytes {
		return nil, fmt.Errorf("entry of %d bytes exceeds limit", size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
