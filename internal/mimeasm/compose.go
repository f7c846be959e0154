package mimeasm

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"golang.org/x/crypto/openpgp"

	"github.com/anthropic-test/panengine/internal/gnksa"
)

// ComposeOptions configures the outgoing message built by Compose.
type ComposeOptions struct {
	From       string // poster's "Name <email>" identity, used for the Message-ID domain
	Subject    string
	Newsgroups string
	Body       string

	Sign      bool
	SignKey   *openpgp.Entity
	Encrypt   bool
	Recipients openpgp.EntityList

	Keyring *PGPKeyring
}

// Compose builds an outgoing article: a plain body, optionally wrapped
// in multipart/signed and/or multipart/encrypted, with a freshly
// generated Message-ID. The returned bytes are a complete RFC 5322
// message ready to POST.
func Compose(opts ComposeOptions) ([]byte, error) {
	mid := gnksa.GenerateMessageID(gnksa.DomainFromAddress(opts.From))

	header := textproto.MIMEHeader{}
	header.Set("From", opts.From)
	header.Set("Subject", opts.Subject)
	header.Set("Newsgroups", opts.Newsgroups)
	// Message-ID, not Message-Id, regardless of what a library might
	// default to.
	header.Set("Message-ID", mid)

	bodyBytes := []byte(opts.Body)
	contentType := "text/plain; charset=utf-8"

	if opts.Sign {
		if opts.Keyring == nil || opts.SignKey == nil {
			return nil, fmt.Errorf("mimeasm: sign requested without a keyring and signing key")
		}
		signed, boundary, err := signMultipart(opts.Keyring, opts.SignKey, bodyBytes, contentType)
		if err != nil {
			return nil, err
		}
		bodyBytes = signed
		contentType = fmt.Sprintf("multipart/signed; micalg=pgp-sha256; protocol=\"application/pgp-signature\"; boundary=%q", boundary)
	}

	if opts.Encrypt {
		if len(opts.Recipients) == 0 {
			return nil, fmt.Errorf("mimeasm: encrypt requested without recipients")
		}
		envelope := bodyBytes
		encrypted, boundary, err := encryptMultipart(envelope, opts.Recipients)
		if err != nil {
			return nil, err
		}
		bodyBytes = encrypted
		contentType = fmt.Sprintf("multipart/encrypted; protocol=\"application/pgp-encrypted\"; boundary=%q", boundary)
	}

	header.Set("Content-Type", contentType)
	header.Set("MIME-Version", "1.0")

	var out bytes.Buffer
	for _, key := range []string{"From", "Subject", "Newsgroups", "Message-ID", "MIME-Version", "Content-Type"} {
		if v := header.Get(key); v != "" {
			fmt.Fprintf(&out, "%s: %s\r\n", key, v)
		}
	}
	out.WriteString("\r\n")
	out.Write(bodyBytes)
	return out.Bytes(), nil
}

// signMultipart produces the RFC 1847 multipart/signed body: the
// original content followed by an application/pgp-signature part whose
// filename is "signature.asc".
func signMultipart(k *PGPKeyring, signer *openpgp.Entity, content []byte, contentType string) (body []byte, boundary string, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentHeader := textproto.MIMEHeader{}
	contentHeader.Set("Content-Type", contentType)
	contentPart, err := w.CreatePart(contentHeader)
	if err != nil {
		return nil, "", fmt.Errorf("mimeasm: create signed content part: %w", err)
	}
	if _, err := contentPart.Write(content); err != nil {
		return nil, "", fmt.Errorf("mimeasm: write signed content: %w", err)
	}

	sig, err := k.SignDetached(content, signer)
	if err != nil {
		return nil, "", err
	}
	sigHeader := textproto.MIMEHeader{}
	sigHeader.Set("Content-Type", "application/pgp-signature; name=signature.asc")
	sigHeader.Set("Content-Disposition", `attachment; filename="signature.asc"`)
	sigPart, err := w.CreatePart(sigHeader)
	if err != nil {
		return nil, "", fmt.Errorf("mimeasm: create signature part: %w", err)
	}
	if _, err := sigPart.Write(sig); err != nil {
		return nil, "", fmt.Errorf("mimeasm: write signature: %w", err)
	}

	boundary = w.Boundary()
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("mimeasm: close signed multipart: %w", err)
	}
	return buf.Bytes(), boundary, nil
}

// encryptMultipart produces the RFC 1847 multipart/encrypted body: a
// control part (application/pgp-encrypted, "Version: 1") followed by
// the encrypted payload.
func encryptMultipart(content []byte, recipients openpgp.EntityList) (body []byte, boundary string, err error) {
	encrypted, err := EncryptTo(content, recipients)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	controlHeader := textproto.MIMEHeader{}
	controlHeader.Set("Content-Type", "application/pgp-encrypted")
	controlPart, err := w.CreatePart(controlHeader)
	if err != nil {
		return nil, "", fmt.Errorf("mimeasm: create control part: %w", err)
	}
	if _, err := controlPart.Write([]byte("Version: 1\r\n")); err != nil {
		return nil, "", fmt.Errorf("mimeasm: write control part: %w", err)
	}

	dataHeader := textproto.MIMEHeader{}
	dataHeader.Set("Content-Type", "application/octet-stream")
	dataPart, err := w.CreatePart(dataHeader)
	if err != nil {
		return nil, "", fmt.Errorf("mimeasm: create encrypted data part: %w", err)
	}
	if _, err := dataPart.Write(encrypted); err != nil {
		return nil, "", fmt.Errorf("mimeasm: write encrypted data: %w", err)
	}

	boundary = w.Boundary()
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("mimeasm: close encrypted multipart: %w", err)
	}
	return buf.Bytes(), boundary, nil
}
