package certstore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func selfSignedCert(t *testing.T, cn string) *x509.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{cn},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

// TestAddThenRemoveCert verifies that Add registers a pinned certificate
// with a mode-0600 file at the derived path, and that Remove clears both.
func TestAddThenRemoveCert(t *testing.T) {
	home := t.TempDir()
	cs, err := Open(home)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cert := selfSignedCert(t, "news.example.org")

	if err := cs.Add(cert, "news.example.org"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !cs.Exists("news.example.org") {
		t.Fatalf("expected Exists true after Add")
	}
	path := filepath.Join(home, "ssl_certs", "news.example.org.pem")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected pem file at %s: %v", path, err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}

	if err := cs.Remove("news.example.org"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if cs.Exists("news.example.org") {
		t.Fatalf("expected Exists false after Remove")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected pem file removed, stat err = %v", err)
	}
}

func TestAddFiresListener(t *testing.T) {
	home := t.TempDir()
	cs, _ := Open(home)

	var got string
	cs.AddListener(listenerFunc(func(server string, cert *x509.Certificate) {
		got = server
	}))

	cert := selfSignedCert(t, "news.example.org")
	cs.Add(cert, "news.example.org")

	if got != "news.example.org" {
		t.Fatalf("expected listener notified with server name, got %q", got)
	}
}

func TestBlacklistSkipsVerification(t *testing.T) {
	home := t.TempDir()
	cs, _ := Open(home)
	cs.Blacklist("evil.example.org")

	if !cs.IsBlacklisted("evil.example.org") {
		t.Fatalf("expected blacklisted")
	}
	err := cs.verifyPeerCertificate("evil.example.org", "", [][]byte{{0xDE, 0xAD}}, nil)
	if err != nil {
		t.Fatalf("expected nil error for blacklisted server, got %v", err)
	}
}

func TestPinnedCertMustMatchExactly(t *testing.T) {
	home := t.TempDir()
	cs, _ := Open(home)
	pinned := selfSignedCert(t, "news.example.org")
	cs.Add(pinned, "news.example.org")

	different := selfSignedCert(t, "news.example.org")
	err := cs.verifyPeerCertificate("news.example.org", "", [][]byte{different.Raw}, nil)
	if err == nil {
		t.Fatalf("expected mismatch error for a different certificate")
	}

	err = cs.verifyPeerCertificate("news.example.org", "", [][]byte{pinned.Raw}, nil)
	if err != nil {
		t.Fatalf("expected nil error for exactly the pinned certificate, got %v", err)
	}
}

type listenerFunc func(server string, cert *x509.Certificate)

func (f listenerFunc) OnValidCertAdded(server string, cert *x509.Certificate) { f(server, cert) }
