package article

import "sort"

// PartBatch accumulates (number, Message-ID, byte-count) tuples referenced
// against an article's own Message-ID, then installs them into a Parts in
// a single allocation, following an accumulate-then-insert pattern.
type PartBatch struct {
	ref     string // owning article's Message-ID
	seen    map[uint16]bool
	numbers []uint16
	mids    map[uint16]string
	bytes   map[uint16]uint64
}

// NewPartBatch creates a batch that will fold part Message-IDs against ref.
func NewPartBatch(ref string) *PartBatch {
	return &PartBatch{
		ref:   ref,
		seen:  make(map[uint16]bool),
		mids:  make(map[uint16]string),
		bytes: make(map[uint16]uint64),
	}
}

// Add records a part. Adding the same part number twice is a no-op; the
// first value installed for that number wins.
func (pb *PartBatch) Add(number uint16, mid string, byteCount uint64) {
	if pb.seen[number] {
		return
	}
	pb.seen[number] = true
	pb.numbers = append(pb.numbers, number)
	pb.mids[number] = mid
	pb.bytes[number] = byteCount
}

// Build installs the accumulated tuples into a new Parts with the given
// Total, sorted by part number.
func (pb *PartBatch) Build(total uint16) *Parts {
	sort.Slice(pb.numbers, func(i, j int) bool { return pb.numbers[i] < pb.numbers[j] })
	slots := make([]Part, len(pb.numbers))
	for i, n := range pb.numbers {
		slots[i] = Part{
			Number:    n,
			ByteCount: pb.bytes[n],
			Packed:    Pack(pb.mids[n], pb.ref),
		}
	}
	return &Parts{Total: total, slots: slots}
}
