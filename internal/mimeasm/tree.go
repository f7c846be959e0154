// Package mimeasm assembles one or more NNTP article bodies into a
// single logical MIME message tree.
//
// No suitable MIME tree library is available, so the tree is
// represented here as a small in-repo algebraic data type (Part)
// rather than reached for a GMime-equivalent dependency. This is the
// one deliberately-stdlib component of the module; see DESIGN.md for
// the justification. Crypto is not stdlib: signature verification and
// encryption route through golang.org/x/crypto/openpgp (crypto.go).
package mimeasm

import "time"

// TrustLevel mirrors GnuPG's trust-in-owner scale.
type TrustLevel int

const (
	TrustUnknown TrustLevel = iota
	TrustNever
	TrustUndefined
	TrustMarginal
	TrustFull
	TrustUltimate
)

// SignatureStatus is the outcome of verifying one signer.
type SignatureStatus int

const (
	StatusGood SignatureStatus = iota
	StatusBad
	StatusError
)

// SignerInfo describes one signature found on a signed part.
type SignerInfo struct {
	Name        string
	KeyID       string
	Fingerprint string
	Trust       TrustLevel
	Status      SignatureStatus
	Created     time.Time
	Expires     time.Time
	NeverExpires bool
	Error       string
}

// Part is a node in the assembled MIME tree. A leaf part carries Body;
// a container part (multipart/*) carries Children and an empty Body.
type Part struct {
	ContentType string
	Headers     map[string]string
	Children    []*Part
	Body        []byte

	// Filename is the part's declared or recovered attachment name, set
	// for leaf parts that are attachments rather than message text.
	Filename string

	// Signers is populated on the content part of a verified
	// multipart/signed container (step 2 of the assembly algorithm);
	// empty otherwise, including for decrypted multipart/encrypted content.
	Signers []SignerInfo

	// ContextOnly marks a part synthesized purely to preserve structure
	// (e.g. the plain-text remainder segments produced by embedded-
	// encoding recovery), as opposed to a semantically meaningful leaf.
	ContextOnly bool
}

// IsMultipart reports whether p is a container part.
func (p *Part) IsMultipart() bool {
	return len(p.Children) > 0
}

// Header returns p's header value for key, case-sensitively, or "".
func (p *Part) Header(key string) string {
	if p.Headers == nil {
		return ""
	}
	return p.Headers[key]
}

// Message is the top-level result of assembly: the envelope headers
// (parsed once from the first input stream, per step 1 of the
// algorithm) plus the assembled body tree.
type Message struct {
	Headers map[string]string
	Root    *Part
}

// Header returns m's envelope header value for key, or "".
func (m *Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}
