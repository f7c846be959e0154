package article

import (
	"testing"

	"github.com/anthropic-test/panengine/internal/quark"
)

func buildBinaryArticle(subject string, total uint16, fillAll bool) *Article {
	ref := "<root@example.com>"
	pb := NewPartBatch(ref)
	for i := uint16(1); i <= total; i++ {
		if !fillAll && i == total {
			continue // leave last slot unfilled conceptually; simulate via empty Packed below
		}
		pb.Add(i, "<partX@example.com>", 100)
	}
	parts := pb.Build(total)
	if !fillAll && total > 0 {
		// simulate an explicitly tracked-but-empty slot
		parts.slots = append(parts.slots, Part{Number: total})
	}
	return &Article{
		MessageID: quark.Intern(ref),
		Subject:   quark.Intern(subject),
		IsBinary:  true,
		Parts:     *parts,
	}
}

func TestPartStateSingleNonBinary(t *testing.T) {
	a := &Article{MessageID: quark.Intern("<m@e.com>"), IsBinary: false}
	if a.PartState() != Single {
		t.Fatalf("expected Single for non-binary article")
	}
}

func TestPartStateCompleteWhenAllFilled(t *testing.T) {
	a := buildBinaryArticle("great.jpg (1/2)", 2, true)
	if got := a.PartState(); got != Complete {
		t.Fatalf("expected Complete, got %v", got)
	}
}

func TestPartStateIncompleteWhenSlotEmpty(t *testing.T) {
	a := buildBinaryArticle("great.jpg (1/3)", 3, false)
	if got := a.PartState(); got != Incomplete {
		t.Fatalf("expected Incomplete, got %v", got)
	}
}

func TestPartStateReplyDowngradesToSingle(t *testing.T) {
	a := buildBinaryArticle("Re: great.jpg", 3, false)
	if got := a.PartState(); got != Single {
		t.Fatalf("expected reply-leader heuristic to downgrade to Single, got %v", got)
	}
}

func TestPartStateReplyWithPartMarkerStaysBinary(t *testing.T) {
	a := buildBinaryArticle("Re: great.jpg (2/3)", 3, false)
	if got := a.PartState(); got != Incomplete {
		t.Fatalf("expected explicit part marker to keep multipart semantics, got %v", got)
	}
}

func TestIsValidRejectsEmptyMessageID(t *testing.T) {
	a := &Article{}
	if a.IsValid() {
		t.Fatalf("expected empty Message-ID to be invalid")
	}
}

func TestIsValidRejectsBinaryWithZeroParts(t *testing.T) {
	a := &Article{MessageID: quark.Intern("<m@e.com>"), IsBinary: true}
	if a.IsValid() {
		t.Fatalf("expected binary article with zero parts to be invalid")
	}
}
