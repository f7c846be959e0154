// Package encodecache stores outgoing encoded attachments keyed by
// synthetic Message-IDs, used by the upload/compose pipeline. It has
// the same API and invariants as internal/bodycache.Cache -- this
// package is a thin, synthetic-ID-generating wrapper around that type
// rather than a reimplementation, since an encode cache is analogous
// to an article cache, not a distinct algorithm.
package encodecache

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/anthropic-test/panengine/internal/bodycache"
)

// Cache wraps a bodycache.Cache rooted at the outgoing-encode directory.
type Cache struct {
	*bodycache.Cache
}

// New opens (or creates) the encode cache at dir.
func New(dir string, maxMegabytes int64) (*Cache, error) {
	c, err := bodycache.New(dir, maxMegabytes)
	if err != nil {
		return nil, err
	}
	return &Cache{Cache: c}, nil
}

// NewSyntheticID mints a synthetic Message-ID for a not-yet-posted
// encoded attachment, in the same $-delimited hex-field shape as
// generated outgoing Message-IDs, so that the key namespace for
// pending-upload parts cannot collide with a real, server-assigned
// one.
func NewSyntheticID() string {
	var r [12]byte
	_, _ = rand.Read(r[:])
	return fmt.Sprintf("<panenc$%x$%s@local.encode>",
		time.Now().UnixMicro(),
		hex.EncodeToString(r[:]))
}

// Put stores encoded bytes under a freshly minted synthetic Message-ID
// and returns it.
func (c *Cache) Put(body []byte) (string, bool) {
	id := NewSyntheticID()
	return id, c.Add(id, body)
}
