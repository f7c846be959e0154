package article

import (
	"testing"

	"github.com/anthropic-test/panengine/internal/quark"
)

func TestXrefInsertAndSort(t *testing.T) {
	var x Xref
	server := quark.Intern("news.example.org")
	x.Insert(server, "Xref: news.example.org comp.lang.go:123 alt.test:45")

	if x.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", x.Len())
	}
	// sorted by server then group: alt.test < comp.lang.go
	if x.At(0).Group.String() != "alt.test" {
		t.Fatalf("expected alt.test first, got %s", x.At(0).Group.String())
	}
}

func TestXrefSkipsMalformedTokens(t *testing.T) {
	var x Xref
	server := quark.Intern("s")
	x.Insert(server, "Xref: s good.group:1 malformed-no-colon another:notanumber")
	if x.Len() != 1 {
		t.Fatalf("expected only well-formed token to be inserted, got %d entries", x.Len())
	}
}

func TestXrefNoDuplicateServerGroupPairs(t *testing.T) {
	var x Xref
	server := quark.Intern("s")
	x.Insert(server, "g:1")
	x.Insert(server, "g:2")
	if x.Len() != 1 {
		t.Fatalf("expected (server,group) pair to be unique, got %d entries", x.Len())
	}
	n, ok := x.FindNumber(server, quark.Intern("g"))
	if !ok || n != 2 {
		t.Fatalf("expected updated number 2, got %d ok=%v", n, ok)
	}
}

func TestXrefHasServerAndRemove(t *testing.T) {
	var x Xref
	s1 := quark.Intern("s1")
	s2 := quark.Intern("s2")
	x.Insert(s1, "g1:1 g2:2")
	x.Insert(s2, "g1:1")

	if !x.HasServer(s1) || !x.HasServer(s2) {
		t.Fatalf("expected both servers present")
	}
	x.RemoveServer(s1)
	if x.HasServer(s1) {
		t.Fatalf("expected s1 removed")
	}
	if !x.HasServer(s2) {
		t.Fatalf("expected s2 still present")
	}
}

func TestXrefRemoveTargetsLessThan(t *testing.T) {
	var x Xref
	s := quark.Intern("s")
	g := quark.Intern("g")
	x.Insert(s, "g:5")
	x.RemoveTargetsLessThan(s, g, 10)
	if x.Len() != 0 {
		t.Fatalf("expected entry below cutoff to be removed")
	}
}
