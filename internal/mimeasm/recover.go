package mimeasm

import "strings"

// RecoverEmbedded walks root looking for text/plain parts and replaces
// each one that contains a recognized yEnc or UU block with a synthetic
// multipart/mixed of the surrounding plain-text segments and decoded
// attachments. A block whose filename recurs across several text/plain
// parts in the same tree (a binary split across articles that were
// assembled together) is continued rather than restarted, via a
// tree-wide registry keyed by filename.
func RecoverEmbedded(root *Part) {
	registry := make(map[string]*embeddedBlock)
	perPart := make(map[*Part][]segment)

	var collect func(p *Part)
	collect = func(p *Part) {
		if p.IsMultipart() {
			for _, c := range p.Children {
				collect(c)
			}
			return
		}
		if p.ContentType != "text/plain" {
			return
		}
		segs := scanTextPlain(p.Body, registry)
		perPart[p] = segs
	}
	collect(root)

	decoded := make(map[*embeddedBlock][]byte)
	for _, b := range registry {
		if data, ok := decodeBlock(b); ok {
			decoded[b] = data
		}
	}

	attached := make(map[*embeddedBlock]bool)

	var rebuild func(p *Part)
	rebuild = func(p *Part) {
		if p.IsMultipart() {
			for _, c := range p.Children {
				rebuild(c)
			}
			return
		}
		segs, ok := perPart[p]
		if !ok {
			return
		}
		hasAttachment := false
		for _, s := range segs {
			if s.block != nil {
				if _, ok := decoded[s.block]; ok {
					hasAttachment = true
				}
			}
		}
		if !hasAttachment {
			return
		}

		var children []*Part
		var plainBuf strings.Builder
		flushPlain := func() {
			if plainBuf.Len() == 0 {
				return
			}
			children = append(children, &Part{
				ContentType: "text/plain",
				Body:        []byte(plainBuf.String()),
				ContextOnly: true,
			})
			plainBuf.Reset()
		}
		for _, s := range segs {
			if s.block == nil {
				plainBuf.WriteString(s.text)
				continue
			}
			data, ok := decoded[s.block]
			if !ok {
				// downgraded: fold the block's raw lines back in verbatim
				plainBuf.WriteString(strings.Join(s.block.rawLines, "\n"))
				plainBuf.WriteByte('\n')
				continue
			}
			if attached[s.block] {
				// already emitted from an earlier continuation segment
				continue
			}
			attached[s.block] = true
			flushPlain()
			children = append(children, &Part{
				ContentType: guessContentType(s.block.filename),
				Filename:    s.block.filename,
				Body:        data,
			})
		}
		flushPlain()

		p.ContentType = "multipart/mixed"
		p.Children = children
		p.Body = nil
	}
	rebuild(root)
}
