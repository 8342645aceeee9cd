// Package cache stores lowered LIR programs on disk, keyed by a digest of
// the MIR input and the lowering target.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"ebbc/internal/lir"
)

// Current schema version - increment when Payload or the LIR encoding changes
const schemaVersion uint16 = 1

// Key identifies one cached lowering.
type Key [sha256.Size]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyFor digests the raw MIR input together with the target name.
func KeyFor(input []byte, target string) Key {
	h := sha256.New()
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write(input)
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Payload is the on-disk record.
type Payload struct {
	Schema  uint16       `msgpack:"schema"`
	Target  string       `msgpack:"target"`
	Program *lir.Program `msgpack:"program"`
}

// DiskCache is safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open creates dir if needed and returns a cache rooted there.
func Open(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, "lir", key.String()+".mp")
}

// Put writes prog under key. The file is replaced atomically.
func (c *DiskCache) Put(key Key, target string, prog *lir.Program) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err = enc.Encode(&Payload{Schema: schemaVersion, Target: target, Program: prog}); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the program stored under key. A missing entry, an entry from
// another schema version or for another target is a miss, not an error.
func (c *DiskCache) Get(key Key, target string) (*lir.Program, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != schemaVersion || payload.Target != target || payload.Program == nil {
		return nil, false, nil
	}
	return payload.Program, true, nil
}

// DropAll removes every cached program.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "lir"))
}
