// Package config holds the engine's static settings: NNTP listener
// limits, article size ceilings, cache directories and quotas, and the
// certificate store's pinning behavior. It is loaded once at startup
// and handed to the constructors of internal/wire, internal/workerpool,
// internal/bodycache, internal/encodecache and internal/certstore.
//
// The web/provider/multi-backend fields of a full multi-server
// aggregator are deliberately absent here; only the NNTP/cache/certstore
// fields this engine's own constructors actually take are kept.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Wire-protocol constants, unchanged from Usenet/NNTP practice.
const (
	DOT  = "."
	CR   = "\r"
	LF   = "\n"
	CRLF = CR + LF
)

const (
	// DefaultConnectTimeout bounds internal/wire.SocketCreator dials.
	DefaultConnectTimeout = 30 * time.Second
	// DefaultMaxArticleSize is the default ceiling on article body size, in bytes.
	DefaultMaxArticleSize = 32 * 1024
	// DefaultNNTPServerMaxConns is the default simultaneous-connection limit.
	DefaultNNTPServerMaxConns = 500
)

// EngineConfig is the engine's complete startup configuration.
type EngineConfig struct {
	Hostname string `json:"hostname"` // used in Path headers and generated Message-IDs

	NNTP    NNTPConfig    `json:"nntp"`
	Cache   CacheConfig   `json:"cache"`
	Certs   CertConfig    `json:"certs"`
	Admin   AdminConfig   `json:"admin"`
	UsersDB string        `json:"users_db"` // sqlite3 path for internal/nntpuser
}

// NNTPConfig sizes the listener and its worker pool.
type NNTPConfig struct {
	Port           int           `json:"port"`
	TLSPort        int           `json:"tls_port"`
	MaxConns       int           `json:"max_connections"`
	MaxArtSize     int           `json:"max_article_size"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	Workers        int           `json:"workers"`
	QueueDepth     int           `json:"queue_depth"`
}

// CacheConfig sizes the body and encode caches on disk.
type CacheConfig struct {
	BodyDir          string `json:"body_dir"`
	BodyMaxMegabytes int64  `json:"body_max_megabytes"`
	EncodeDir        string `json:"encode_dir"`
	EncodeMaxMegabytes int64 `json:"encode_max_megabytes"`
}

// CertConfig controls internal/certstore's pinning behavior.
type CertConfig struct {
	PinDBPath string `json:"pin_db_path"`
}

// AdminConfig addresses the internal/adminhttp status surface.
type AdminConfig struct {
	ListenAddr string `json:"listen_addr"`
}

// Default returns an EngineConfig with conservative, locally-runnable
// defaults -- no network providers, no TLS material assumed present.
func Default() *EngineConfig {
	return &EngineConfig{
		Hostname: "localhost",
		NNTP: NNTPConfig{
			Port:           1119,
			TLSPort:        1563,
			MaxConns:       DefaultNNTPServerMaxConns,
			MaxArtSize:     DefaultMaxArticleSize,
			ConnectTimeout: DefaultConnectTimeout,
			Workers:        8,
			QueueDepth:     256,
		},
		Cache: CacheConfig{
			BodyDir:            "data/bodycache",
			BodyMaxMegabytes:   512,
			EncodeDir:          "data/encodecache",
			EncodeMaxMegabytes: 256,
		},
		Certs: CertConfig{
			PinDBPath: "data/certpins.db",
		},
		Admin: AdminConfig{
			ListenAddr: ":8980",
		},
		UsersDB: "data/users.db",
	}
}

// Load reads an EngineConfig from a JSON file, starting from Default
// so an incomplete file still yields workable settings.
func Load(path string) (*EngineConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
