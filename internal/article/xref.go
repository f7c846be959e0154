package article

import (
	"sort"
	"strconv"
	"strings"

	"github.com/anthropic-test/panengine/internal/quark"
)

// XrefEntry is a single server/group/article-number cross-reference.
type XrefEntry struct {
	Server quark.Quark
	Group  quark.Quark
	Number uint64
}

// Xref is a sorted vector of XrefEntry, primary-sorted by Server name then
// Group name, with no two entries sharing the same (Server, Group):
// a per-newsgroup article-number map generalized into a sorted,
// multi-server vector.
type Xref struct {
	entries []XrefEntry
}

func (x *Xref) less(i, j int) bool {
	if x.entries[i].Server != x.entries[j].Server {
		return x.entries[i].Server.String() < x.entries[j].Server.String()
	}
	return x.entries[i].Group.String() < x.entries[j].Group.String()
}

// Len returns the number of entries.
func (x *Xref) Len() int { return len(x.entries) }

// At returns the i-th entry in sorted order.
func (x *Xref) At(i int) XrefEntry { return x.entries[i] }

// Insert tokenizes rawXrefLine on whitespace, strips a leading "Xref:"
// token (and a leading server hostname token emitted by some servers)
// if present, splits each remaining token on ':', and inserts
// (server, group, number) triples. Unparseable tokens are skipped.
// After the batch, the vector is stably re-sorted and entries sharing a
// (server, group) pair with an existing entry are replaced (last write
// wins within the batch, consistent with a re-XOVER overwriting stale
// numbers).
func (x *Xref) Insert(server quark.Quark, rawXrefLine string) {
	fields := strings.Fields(rawXrefLine)
	for _, f := range fields {
		if strings.EqualFold(f, "Xref:") {
			continue
		}
		idx := strings.LastIndexByte(f, ':')
		if idx <= 0 || idx == len(f)-1 {
			continue
		}
		groupName := f[:idx]
		numStr := f[idx+1:]
		n, err := strconv.ParseUint(numStr, 10, 64)
		if err != nil {
			continue
		}
		grp := quark.Intern(groupName)
		x.upsert(server, grp, n)
	}
	sort.SliceStable(x.entries, x.less)
}

func (x *Xref) upsert(server, group quark.Quark, number uint64) {
	for i := range x.entries {
		if x.entries[i].Server == server && x.entries[i].Group == group {
			x.entries[i].Number = number
			return
		}
	}
	x.entries = append(x.entries, XrefEntry{Server: server, Group: group, Number: number})
}

// HasServer performs a binary search using a server-only comparator.
func (x *Xref) HasServer(server quark.Quark) bool {
	lo, hi := 0, len(x.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if x.entries[mid].Server.String() < server.String() {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(x.entries) && x.entries[lo].Server == server
}

// FindNumber performs an exact (server, group) lookup.
func (x *Xref) FindNumber(server, group quark.Quark) (uint64, bool) {
	for i := range x.entries {
		if x.entries[i].Server == server && x.entries[i].Group == group {
			return x.entries[i].Number, true
		}
	}
	return 0, false
}

// RemoveServer removes all entries for the given server via a linear
// filter-rebuild.
func (x *Xref) RemoveServer(server quark.Quark) {
	out := x.entries[:0]
	for _, e := range x.entries {
		if e.Server != server {
			out = append(out, e)
		}
	}
	x.entries = out
}

// RemoveTargetsLessThan removes the (server, group) entry if its Number is
// less than n (linear filter-rebuild).
func (x *Xref) RemoveTargetsLessThan(server, group quark.Quark, n uint64) {
	out := x.entries[:0]
	for _, e := range x.entries {
		if e.Server == server && e.Group == group && e.Number < n {
			continue
		}
		out = append(out, e)
	}
	x.entries = out
}
