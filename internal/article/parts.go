// Package article holds the compact in-memory article metadata model:
// Parts (memory-folded multipart Message-IDs), Xref cross-reference sets,
// and the Article type that ties them together with derived part-state.
//
// The layout splits a thin cached row from a richer on-demand object:
// Parts is the thin, memory-folded projection; PartBatch (below) is the
// builder that accumulates rows and materializes it once per article in
// a single pass.
package article

// maxFoldLen is the cap applied to both the shared-prefix and
// shared-suffix lengths when folding a part's Message-ID against its
// article's Message-ID. This mirrors UCHAR_MAX from the source and is
// preserved intentionally: lengths above 255 are silently truncated.
const maxFoldLen = 255

// Part is a single multipart-article part slot.
type Part struct {
	Number    uint16
	ByteCount uint64
	// Packed is the folded representation of this part's own Message-ID,
	// relative to the owning Article's Message-ID. Empty means the slot
	// is unfilled (not yet downloaded).
	Packed []byte
}

// Parts is the compact multipart representation of an Article: a sorted,
// unique-by-number array of part slots sharing one packed-Message-ID
// encoding scheme.
type Parts struct {
	Total uint16
	slots []Part // sorted by Number, unique Number
}

// Found reports how many of Total part slots currently hold a Message-ID.
func (p *Parts) Found() int {
	n := 0
	for i := range p.slots {
		if len(p.slots[i].Packed) > 0 {
			n++
		}
	}
	return n
}

// Len returns the number of slots currently tracked (<= Total, generally
// == Total once a PartBatch has installed the full known range).
func (p *Parts) Len() int { return len(p.slots) }

// At returns the i-th slot in sorted order.
func (p *Parts) At(i int) Part { return p.slots[i] }

// Get returns the slot for the given part number, if tracked.
func (p *Parts) Get(number uint16) (Part, bool) {
	lo, hi := 0, len(p.slots)
	for lo < hi {
		mid := (lo + hi) / 2
		if p.slots[mid].Number < number {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(p.slots) && p.slots[lo].Number == number {
		return p.slots[lo], true
	}
	return Part{}, false
}

// MessageID unpacks and returns the original Message-ID for a slot, given
// the owning Article's Message-ID as the fold reference.
func (p *Parts) MessageID(number uint16, ref string) (string, bool) {
	slot, ok := p.Get(number)
	if !ok || len(slot.Packed) == 0 {
		return "", false
	}
	return Unpack(slot.Packed, ref), true
}

// Pack implements the pack(mid, ref_mid) algorithm of the fold scheme:
//
//	b := min(255, longest common prefix length of mid and ref)
//	e := min(255, longest common suffix length of mid[b..] and ref[b..])
//	emit [b, e, mid[b..len(mid)-e], 0]
func Pack(mid, ref string) []byte {
	b := commonPrefixLen(mid, ref)
	if b > maxFoldLen {
		b = maxFoldLen
	}
	e := commonSuffixLen(mid[b:], ref[b:])
	if e > maxFoldLen {
		e = maxFoldLen
	}
	// A pathological case: b+e could exceed len(mid) if mid itself is
	// shorter than ref after the prefix is removed. Clamp e so the
	// middle slice never goes negative.
	if b+e > len(mid) {
		e = len(mid) - b
	}
	middle := mid[b : len(mid)-e]
	out := make([]byte, 0, 2+len(middle)+1)
	out = append(out, byte(b), byte(e))
	out = append(out, middle...)
	out = append(out, 0)
	return out
}

// Unpack implements unpack(packed, ref_mid) => mid: concatenate
// ref[0:b] || packed[2:2+m] || ref[len(ref)-e:] where m = len(packed)-3
// (the trailing NUL terminator is not part of the middle).
func Unpack(packed []byte, ref string) string {
	if len(packed) < 3 {
		return ""
	}
	b := int(packed[0])
	e := int(packed[1])
	m := len(packed) - 3
	middle := packed[2 : 2+m]
	if b > len(ref) {
		b = len(ref)
	}
	if e > len(ref)-b {
		e = len(ref) - b
	}
	out := make([]byte, 0, b+m+e)
	out = append(out, ref[:b]...)
	out = append(out, middle...)
	out = append(out, ref[len(ref)-e:]...)
	return string(out)
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}
