package mimeasm

import (
	"bufio"
	"strconv"
	"strings"
)

// Recognition of embedded yEnc/UU attachments within text/plain parts,
// using the same line-oriented bufio.Scanner walk used elsewhere for
// multi-line NNTP responses, here recognizing "=ybegin"/"=ypart"/
// "=yend" and "begin <mode> <name>"/"end" markers instead of status
// lines.

type scanKind int

const (
	kindYEnc scanKind = iota
	kindUU
)

// minValidLines is the accumulated-line threshold below which a
// recognized block is downgraded back to plain text, defeating
// adversarial prose that opens with "yenc" or "begin 644 …".
const minValidLines = 10

// embeddedBlock is one recovered yEnc or UU attachment, possibly
// spanning several text/plain parts when the same filename recurs
// (continuation of a multipart binary posted across several articles).
type embeddedBlock struct {
	kind         scanKind
	filename     string
	declaredSize int64
	uuMode       string
	dataLines    []string
	validLines   int
	closed       bool

	// rawLines captures every line seen for this block, including its
	// begin/end markers, in encounter order, so a downgraded block (too
	// short, or never closed) can be folded back into plain text
	// verbatim instead of losing its original bytes.
	rawLines []string
}

// segment is one piece of a scanned text/plain part: either a literal
// text run or a reference to an embeddedBlock recovered at that
// position.
type segment struct {
	text  string
	block *embeddedBlock
}

type scanState int

const (
	statePlain scanState = iota
	stateYEnc
	stateUU
)

// scanTextPlain walks body line by line through a three-state machine
// (plain/yEnc/UU), and returns the ordered segments. Blocks already
// present in registry (keyed by filename) are appended to rather than
// replacing them, so a binary posted across multiple articles that
// were assembled together continues as one block.
func scanTextPlain(body []byte, registry map[string]*embeddedBlock) []segment {
	var segs []segment
	var textBuf strings.Builder
	state := statePlain
	var current *embeddedBlock

	flushText := func() {
		if textBuf.Len() > 0 {
			segs = append(segs, segment{text: textBuf.String()})
			textBuf.Reset()
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch state {
		case statePlain:
			if ok, size, name := parseYBegin(line); ok {
				current = registry[name]
				if current == nil {
					current = &embeddedBlock{kind: kindYEnc, filename: name, declaredSize: size}
					registry[name] = current
				}
				current.rawLines = append(current.rawLines, line)
				flushText()
				segs = append(segs, segment{block: current})
				state = stateYEnc
				continue
			}
			if ok, mode, name := parseUUBegin(line); ok {
				current = registry[name]
				if current == nil {
					current = &embeddedBlock{kind: kindUU, filename: name, uuMode: mode}
					registry[name] = current
				}
				current.rawLines = append(current.rawLines, line)
				flushText()
				segs = append(segs, segment{block: current})
				state = stateUU
				continue
			}
			textBuf.WriteString(line)
			textBuf.WriteByte('\n')

		case stateYEnc:
			current.rawLines = append(current.rawLines, line)
			if strings.HasPrefix(line, "=ypart") {
				current.validLines++
				continue
			}
			if strings.HasPrefix(line, "=yend") {
				current.closed = true
				current.validLines++
				state = statePlain
				current = nil
				continue
			}
			current.dataLines = append(current.dataLines, line)
			current.validLines++

		case stateUU:
			trimmed := strings.TrimSpace(line)
			if (trimmed == "end" || trimmed == "END") && !strings.Contains(strings.ToLower(trimmed), "cut") {
				current.rawLines = append(current.rawLines, line)
				current.closed = true
				state = statePlain
				current = nil
				continue
			}
			if len(line) == 0 || line[0] < 0x20 || line[0] > 0x20+45 {
				current.rawLines = append(current.rawLines, line)
				continue // blank/malformed lines are ignored but bracketed
			}
			current.rawLines = append(current.rawLines, line)
			current.dataLines = append(current.dataLines, line)
			current.validLines++
		}
	}
	flushText()
	return segs
}

// parseYBegin recognizes "=ybegin line=NN size=NN name=NAME …" and
// extracts size and name; line= is required to be present but its
// value is not otherwise validated here.
func parseYBegin(line string) (ok bool, size int64, name string) {
	if !strings.HasPrefix(line, "=ybegin ") {
		return false, 0, ""
	}
	params := parseParams(line[len("=ybegin "):])
	lineVal, hasLine := params["line"]
	sizeVal, hasSize := params["size"]
	nameVal, hasName := params["name"]
	if !hasLine || !hasSize || !hasName || lineVal == "" {
		return false, 0, ""
	}
	n, err := strconv.ParseInt(sizeVal, 10, 64)
	if err != nil {
		return false, 0, ""
	}
	return true, n, nameVal
}

// parseUUBegin recognizes "begin <octal-mode> <filename>".
func parseUUBegin(line string) (ok bool, mode string, name string) {
	if !strings.HasPrefix(line, "begin ") {
		return false, "", ""
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return false, "", ""
	}
	if _, err := strconv.ParseUint(fields[1], 8, 32); err != nil {
		return false, "", ""
	}
	return true, fields[1], strings.Join(fields[2:], " ")
}

// parseParams splits a "key=value key2=value2" parameter string; the
// last key's value runs to end of string, since yEnc filenames may
// contain spaces.
func parseParams(s string) map[string]string {
	out := make(map[string]string)
	fields := strings.Fields(s)
	for i, f := range fields {
		eq := strings.IndexByte(f, '=')
		if eq < 0 {
			continue
		}
		key := f[:eq]
		val := f[eq+1:]
		if key == "name" {
			// rejoin the remainder verbatim in case the name contains spaces
			rest := strings.Join(fields[i:], " ")
			rest = rest[len("name="):]
			out["name"] = rest
			break
		}
		out[key] = val
	}
	return out
}

// decodeBlock returns the finished attachment bytes for a closed,
// sufficiently-long block, or ok=false if it should be downgraded back
// to plain text.
func decodeBlock(b *embeddedBlock) (data []byte, ok bool) {
	if !b.closed || b.validLines < minValidLines {
		return nil, false
	}
	switch b.kind {
	case kindYEnc:
		return yencDecode(b.dataLines), true
	case kindUU:
		data, err := uuDecode(b.dataLines)
		if err != nil {
			return nil, false
		}
		return data, true
	}
	return nil, false
}
