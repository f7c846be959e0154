// Package certstore implements a directory of pinned X.509
// certificates, one per server identity, plus the TLS verify-callback
// plumbing, a dismiss-forever blacklist, and a shared
// session-resumption cache.
//
// On disk this is <pan_home>/ssl_certs/<host>.pem, mode 0600. Open
// starts with an empty in-memory index and does not scan the directory;
// LoadAll fills the index from the certificate files named in server
// configuration, and Add writes new pins. The verify callback
// extends ordinary tls.Config construction with VerifyPeerCertificate,
// since pinning requires bypassing Go's default chain verification for
// servers with no CA-issued certificate.
package certstore

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Listener receives pinning-relevant events, following the narrow
// capability-trait style used for observer interfaces throughout the
// engine.
type Listener interface {
	OnValidCertAdded(server string, cert *x509.Certificate)
}

// VerifyFailedListener decides what to do when the TLS verify callback
// hits a whitelisted chain error: pin the certificate, or reject the
// connection.
type VerifyFailedListener interface {
	VerifyFailed(cert *x509.Certificate, server, certName string, err error) (pin bool)
}

// ServerCertConfig names a server's previously-pinned certificate file,
// as read back from persisted configuration at startup.
type ServerCertConfig struct {
	Server   string
	CertFile string
}

// CertStore owns <pan_home>/ssl_certs and the in-memory pinning/
// blacklist/session-cache state layered over it.
type CertStore struct {
	mu sync.RWMutex

	dir       string
	certs     map[string]*x509.Certificate // server -> pinned cert
	certPaths map[string]string            // server -> on-disk path
	blacklist map[string]struct{}

	sessions *sessionCacheStore

	listeners []Listener
}

// Open ensures <pan_home>/ssl_certs exists and returns an empty store
// ready for LoadAll.
func Open(panHome string) (*CertStore, error) {
	dir := filepath.Join(panHome, "ssl_certs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("certstore: create %s: %w", dir, err)
	}
	sc, err := openSessionCacheStore(filepath.Join(dir, "sessions.yaml"))
	if err != nil {
		return nil, err
	}
	return &CertStore{
		dir:       dir,
		certs:     make(map[string]*x509.Certificate),
		certPaths: make(map[string]string),
		blacklist: make(map[string]struct{}),
		sessions:  sc,
	}, nil
}

// AddListener registers l for OnValidCertAdded notifications.
func (cs *CertStore) AddListener(l Listener) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, l)
}

// LoadAll reads, for each configured server that declares a cert
// filename, the PEM and registers it, returning the count of
// successes.
func (cs *CertStore) LoadAll(servers []ServerCertConfig) (int, error) {
	loaded := 0
	for _, sc := range servers {
		if sc.CertFile == "" {
			continue
		}
		data, err := os.ReadFile(sc.CertFile)
		if err != nil {
			log.Printf("[CERTSTORE] failed to read %s for server %q: %v", sc.CertFile, sc.Server, err)
			continue
		}
		cert, err := parsePEMCertificate(data)
		if err != nil {
			log.Printf("[CERTSTORE] failed to parse %s for server %q: %v", sc.CertFile, sc.Server, err)
			continue
		}
		cs.mu.Lock()
		cs.certs[sc.Server] = cert
		cs.certPaths[sc.Server] = sc.CertFile
		cs.mu.Unlock()
		loaded++
	}
	return loaded, nil
}

func parsePEMCertificate(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("certstore: no PEM block found")
	}
	return x509.ParseCertificate(block.Bytes)
}

// pathFor returns the derived pinned-cert path for server.
func (cs *CertStore) pathFor(server string) string {
	return filepath.Join(cs.dir, server+".pem")
}

// Add writes cert's PEM encoding to <pan_home>/ssl_certs/<server>.pem
// with mode 0600, registers it, and fires OnValidCertAdded.
func (cs *CertStore) Add(cert *x509.Certificate, server string) error {
	path := cs.pathFor(server)
	block := &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}
	pemBytes := pem.EncodeToMemory(block)

	if err := os.WriteFile(path, pemBytes, 0600); err != nil {
		return fmt.Errorf("certstore: write %s: %w", path, err)
	}
	// WriteFile's mode is subject to umask; enforce it explicitly.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("certstore: chmod %s: %w", path, err)
	}

	cs.mu.Lock()
	cs.certs[server] = cert
	cs.certPaths[server] = path
	listeners := append([]Listener(nil), cs.listeners...)
	cs.mu.Unlock()

	for _, l := range listeners {
		l.OnValidCertAdded(server, cert)
	}
	return nil
}

// Remove deletes the on-disk PEM and clears server's index entries.
func (cs *CertStore) Remove(server string) error {
	cs.mu.Lock()
	path, ok := cs.certPaths[server]
	delete(cs.certs, server)
	delete(cs.certPaths, server)
	cs.mu.Unlock()

	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("certstore: remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether server has a pinned certificate.
func (cs *CertStore) Exists(server string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.certs[server]
	return ok
}

// PinnedCertPath returns the on-disk path of server's pinned
// certificate, for persisting back into server configuration.
func (cs *CertStore) PinnedCertPath(server string) (string, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	p, ok := cs.certPaths[server]
	return p, ok
}

// Blacklist marks server so future connections skip verification
// entirely -- "user dismissed forever."
func (cs *CertStore) Blacklist(server string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.blacklist[server] = struct{}{}
}

// IsBlacklisted reports whether server is on the dismiss-forever list.
func (cs *CertStore) IsBlacklisted(server string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.blacklist[server]
	return ok
}

// isWhitelistedChainError reports whether err is one of the chain
// errors pinning is meant to tolerate: self-signed in chain,
// depth-zero self-signed, unable-to-get-issuer-locally. Go's x509
// package does not expose OpenSSL's exact numeric codes, so these are
// classified from the verification error's concrete type and message.
func isWhitelistedChainError(err error) bool {
	if err == nil {
		return false
	}
	var unknownAuthority x509.UnknownAuthorityError
	if asUnknownAuthority(err, &unknownAuthority) {
		return true // covers both self-signed-in-chain and unable-to-get-issuer-locally
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "self-signed") || strings.Contains(msg, "unknown authority")
}

func asUnknownAuthority(err error, target *x509.UnknownAuthorityError) bool {
	if e, ok := err.(x509.UnknownAuthorityError); ok {
		*target = e
		return true
	}
	return false
}

// TLSConfig builds a tls.Config for connecting to server: if
// blacklisted, verification is skipped entirely; if a certificate is
// pinned, only an exact byte match is accepted; otherwise normal chain
// verification runs, with whitelisted chain errors routed to
// failedListener for a pin-or-reject decision.
func (cs *CertStore) TLSConfig(server, certName string, failedListener VerifyFailedListener) *tls.Config {
	return &tls.Config{
		ServerName:         server,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true, // verification is fully reimplemented below
		ClientSessionCache: cs.sessions.cacheFor(server),
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			return cs.verifyPeerCertificate(server, certName, rawCerts, failedListener)
		},
	}
}

func (cs *CertStore) verifyPeerCertificate(server, certName string, rawCerts [][]byte, failedListener VerifyFailedListener) error {
	if cs.IsBlacklisted(server) {
		return nil
	}
	if len(rawCerts) == 0 {
		return fmt.Errorf("certstore: no certificate presented by %s", server)
	}
	leaf, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("certstore: parse leaf certificate: %w", err)
	}

	cs.mu.RLock()
	pinned, hasPinned := cs.certs[server]
	cs.mu.RUnlock()
	if hasPinned {
		if bytes.Equal(pinned.Raw, leaf.Raw) {
			return nil
		}
		return fmt.Errorf("certstore: presented certificate does not match pin for %s", server)
	}

	opts := x509.VerifyOptions{DNSName: server}
	_, verr := leaf.Verify(opts)
	if verr == nil {
		return nil
	}
	if !isWhitelistedChainError(verr) {
		log.Printf("[CERTSTORE] rejecting %s: non-whitelisted chain error: %v", server, verr)
		return verr
	}
	if failedListener == nil {
		return verr
	}
	if failedListener.VerifyFailed(leaf, server, certName, verr) {
		if addErr := cs.Add(leaf, server); addErr != nil {
			return addErr
		}
		return nil
	}
	return verr
}
