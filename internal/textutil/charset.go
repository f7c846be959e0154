package textutil

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// wordDecoder is shared by DecodeHeader; golang.org/x/text/encoding/htmlindex
// supplies the non-UTF-8 charsets a mime.WordDecoder's CharsetReader hook
// needs, so an encoded-word naming "iso-8859-1" or "windows-1251" decodes
// instead of falling back to mojibake or an error.
var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("textutil: unknown charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// DecodeHeader decodes RFC 2047 encoded words ("=?charset?Q/B?...?=") in a
// raw header value into UTF-8 text. A header with no encoded words, or one
// that fails to decode (an unknown charset, a truncated encoded word), is
// returned unchanged rather than causing an error -- subject normalization
// has no way to surface a decode failure to a caller, and garbled-but-present
// text beats dropping the subject entirely.
func DecodeHeader(raw string) string {
	if !strings.Contains(raw, "=?") {
		return raw
	}
	decoded, err := wordDecoder.DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// DecodeCharset converts body from the named MIME charset to UTF-8. An
// empty or "utf-8"/"us-ascii" charset is returned unchanged; an
// unrecognized charset name is reported as an error rather than guessed at.
func DecodeCharset(body []byte, charset string) ([]byte, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" || charset == "ascii" {
		return body, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("textutil: unknown charset %q: %w", charset, err)
	}
	var out bytes.Buffer
	w := enc.NewDecoder().Reader(bytes.NewReader(body))
	if _, err := io.Copy(&out, w); err != nil {
		return nil, fmt.Errorf("textutil: decode charset %q: %w", charset, err)
	}
	return out.Bytes(), nil
}
