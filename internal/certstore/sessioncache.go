package certstore

import (
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// sessionCacheStore holds one TLS session cache per server, shared by
// every socket dialing that server (cacheFor), plus an on-disk ticket
// map. load reads that file when the store is opened; persist writes it,
// but no code path calls persist, and the loaded entries are not fed into
// the TLS caches, which are in memory only -- a restart starts with empty
// session caches.
//
// The on-disk form uses gopkg.in/yaml.v3 rather than a protobuf encoding: a
// protobuf message's generated .pb.go ordinarily comes from running
// protoc, and hand-authoring the generated form (including its raw
// descriptor bytes) without that tool risks shipping code that merely
// looks generated without actually being valid.
type sessionCacheStore struct {
	mu    sync.Mutex
	path  string
	stack map[string][]byte // server -> last-seen opaque session ticket bytes

	caches map[string]tls.ClientSessionCache
}

type onDiskSessionCache struct {
	Tickets map[string]string `yaml:"tickets"` // server -> hex-free raw string; yaml-safe via %q-style quoting
}

func openSessionCacheStore(path string) (*sessionCacheStore, error) {
	s := &sessionCacheStore{
		path:   path,
		stack:  make(map[string][]byte),
		caches: make(map[string]tls.ClientSessionCache),
	}
	if err := s.load(); err != nil {
		log.Printf("[CERTSTORE] session cache %s not loaded: %v", path, err)
	}
	return s, nil
}

func (s *sessionCacheStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var onDisk onDiskSessionCache
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return fmt.Errorf("certstore: decode session cache: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for server, ticket := range onDisk.Tickets {
		s.stack[server] = []byte(ticket)
	}
	return nil
}

func (s *sessionCacheStore) persist() {
	s.mu.Lock()
	onDisk := onDiskSessionCache{Tickets: make(map[string]string, len(s.stack))}
	for server, ticket := range s.stack {
		onDisk.Tickets[server] = string(ticket)
	}
	s.mu.Unlock()

	data, err := yaml.Marshal(onDisk)
	if err != nil {
		log.Printf("[CERTSTORE] failed to marshal session cache: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		log.Printf("[CERTSTORE] failed to persist session cache: %v", err)
	}
}

// cacheFor returns the tls.ClientSessionCache shared by every socket
// dialing server, creating it (backed by Go's standard LRU
// implementation) on first use.
func (s *sessionCacheStore) cacheFor(server string) tls.ClientSessionCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[server]
	if !ok {
		c = tls.NewLRUClientSessionCache(8)
		s.caches[server] = c
	}
	return c
}
