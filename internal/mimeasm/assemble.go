package mimeasm

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/anthropic-test/panengine/internal/textutil"
)

// Assemble builds a single logical Message from one or more raw NNTP
// article bodies in five steps: parse each stream's headers and MIME
// object tree, route signed/encrypted top-level objects through the
// crypto subsystem, detect a signature or encryption sibling hiding
// inside a plain multipart/mixed, wrap multiple streams under a
// synthetic top-level multipart/mixed, and finally recover embedded
// yEnc/UU attachments from every text/plain part.
func Assemble(streams [][]byte, verifier Verifier, decrypter Decrypter) (*Message, error) {
	if len(streams) == 0 {
		return nil, fmt.Errorf("mimeasm: no input streams")
	}

	parsed := make([]*Message, 0, len(streams))
	for _, raw := range streams {
		m, err := parseStream(raw)
		if err != nil {
			return nil, err
		}
		m.Root = resolveCryptoContainers(m.Root, verifier, decrypter)
		parsed = append(parsed, m)
	}

	var top *Message
	if len(parsed) == 1 {
		top = parsed[0]
	} else {
		children := make([]*Part, len(parsed))
		for i, m := range parsed {
			children[i] = m.Root
		}
		top = &Message{
			Headers: parsed[0].Headers,
			Root: &Part{
				ContentType: "multipart/mixed",
				Children:    children,
			},
		}
	}

	RecoverEmbedded(top.Root)
	return top, nil
}

// parseStream parses one article body twice per step 1 of the
// algorithm: once for its envelope headers (net/mail), once for its
// MIME object tree (mime/multipart, recursively).
func parseStream(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("mimeasm: parse headers: %w", err)
	}
	headers := flattenHeader(textproto.MIMEHeader(msg.Header))

	msg2, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("mimeasm: re-parse body: %w", err)
	}
	contentType := msg2.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	body, err := io.ReadAll(msg2.Body)
	if err != nil {
		return nil, fmt.Errorf("mimeasm: read body: %w", err)
	}

	hdr := textproto.MIMEHeader{}
	for k, v := range msg.Header {
		hdr[k] = v
	}
	root, err := parseBodyPart(contentType, hdr, body)
	if err != nil {
		return nil, err
	}
	return &Message{Headers: headers, Root: root}, nil
}

// parseBodyPart builds a Part tree from a single MIME object: a leaf
// for any non-multipart content type, or a container recursively parsed
// via mime/multipart for any multipart/*.
func parseBodyPart(contentType string, header textproto.MIMEHeader, body []byte) (*Part, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
		params = nil
	}

	p := &Part{
		ContentType: mediaType,
		Headers:     flattenHeader(header),
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		if strings.HasPrefix(mediaType, "text/") {
			if decoded, err := textutil.DecodeCharset(body, params["charset"]); err == nil {
				body = decoded
			}
			// an unrecognized charset name leaves body as the raw bytes
			// the server sent, rather than failing assembly outright.
		}
		p.Body = body
		p.Filename = attachmentName(header, params)
		return p, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		// not actually well-formed multipart content; treat as opaque
		p.ContentType = "application/octet-stream"
		p.Body = body
		return p, nil
	}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mimeasm: read multipart: %w", err)
		}
		childBody, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("mimeasm: read part body: %w", err)
		}
		childType := part.Header.Get("Content-Type")
		if childType == "" {
			childType = "text/plain"
		}
		child, err := parseBodyPart(childType, part.Header, childBody)
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, child)
	}
	return p, nil
}

// parseEmbeddedMessage parses data as a standalone MIME message (header
// block plus body), for use when a part's body is itself the
// serialization of another whole message -- e.g. a decrypted
// multipart/encrypted payload (crypto.go).
func parseEmbeddedMessage(data []byte) (*Part, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		// not a well-formed header+body message; treat the bytes as an
		// opaque leaf instead of failing the whole assembly.
		return &Part{ContentType: "text/plain", Body: data}, nil
	}
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("mimeasm: read embedded message body: %w", err)
	}
	hdr := textproto.MIMEHeader{}
	for k, v := range msg.Header {
		hdr[k] = v
	}
	return parseBodyPart(contentType, hdr, body)
}

// flattenHeader collapses a MIMEHeader to one decoded string per key,
// decoding any RFC 2047 encoded words (e.g. a non-ASCII Subject or
// Content-Disposition filename) to UTF-8 along the way.
func flattenHeader(h textproto.MIMEHeader) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = textutil.DecodeHeader(h.Get(k))
	}
	return out
}

// attachmentName recovers a part's declared filename from
// Content-Disposition or Content-Type parameters.
func attachmentName(header textproto.MIMEHeader, contentTypeParams map[string]string) string {
	if name, ok := contentTypeParams["name"]; ok && name != "" {
		return name
	}
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name, ok := params["filename"]; ok {
				return name
			}
		}
	}
	return ""
}
