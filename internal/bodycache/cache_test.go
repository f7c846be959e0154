package bodycache

import (
	"path/filepath"
	"testing"
)

func TestAddContainsGet(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mid := "<hello@example.com>"
	body := []byte("Subject: hi\n\nbody text\n")
	if !c.Add(mid, body) {
		t.Fatalf("Add returned false")
	}
	if !c.Contains(mid) {
		t.Fatalf("Contains returned false after Add")
	}
	got, err := c.ReadBody(mid)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("got %q want %q", got, body)
	}
}

func TestAddEmptyBodyFails(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 10)
	if c.Add("<empty@example.com>", nil) {
		t.Fatalf("expected Add of empty body to fail")
	}
}

func TestResizeRespectsLocks(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0) // maxBytes=0 forces eviction of everything unlocked
	c.maxBytes = 1       // tiny cap so Resize always wants to evict
	c.Add("<locked@example.com>", []byte("xxxxxxxxxx"))
	c.Add("<unlocked@example.com>", []byte("yyyyyyyyyy"))
	c.Reserve([]string{"<locked@example.com>"})

	c.Resize()

	if !c.Contains("<locked@example.com>") {
		t.Fatalf("expected locked entry to survive Resize")
	}
	if c.Contains("<unlocked@example.com>") {
		t.Fatalf("expected unlocked entry to be evicted by Resize")
	}
}

func TestResizeStaysUnderEightyPercent(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)
	c.maxBytes = 100
	for i := 0; i < 20; i++ {
		c.Add(string(rune('a'+i))+"@example.com", []byte("0123456789"))
	}
	c.Resize()
	if c.TotalBytes() > (c.maxBytes*80)/100 {
		t.Fatalf("total %d exceeds 80%% of max %d", c.TotalBytes(), c.maxBytes)
	}
}

func TestScanOnOpenRecoversEntries(t *testing.T) {
	dir := t.TempDir()
	c1, _ := New(dir, 10)
	c1.Add("<persisted@example.com>", []byte("body"))

	c2, err := New(dir, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !c2.Contains("<persisted@example.com>") {
		t.Fatalf("expected reopened cache to recover entry from disk scan")
	}
	if got := c2.path("<persisted@example.com>"); filepath.Base(got) != EncodeFilename("<persisted@example.com>") {
		t.Fatalf("unexpected path %q", got)
	}
}

type notifyListener struct {
	added   []string
	removed []string
}

func (n *notifyListener) OnCacheAdded(mid string)     { n.added = append(n.added, mid) }
func (n *notifyListener) OnCacheRemoved(mids []string) { n.removed = append(n.removed, mids...) }

func TestListenerNotifiedOnAddAndResize(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)
	c.maxBytes = 1
	l := &notifyListener{}
	c.AddListener(l)

	c.Add("<n1@example.com>", []byte("0123456789"))
	if len(l.added) != 1 || l.added[0] != "<n1@example.com>" {
		t.Fatalf("expected OnCacheAdded callback, got %v", l.added)
	}

	c.Add("<n2@example.com>", []byte("0123456789"))
	c.Resize()
	if len(l.removed) == 0 {
		t.Fatalf("expected OnCacheRemoved callback after Resize")
	}
}
