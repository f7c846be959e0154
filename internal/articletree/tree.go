// Package articletree implements a live, ordered, threaded projection
// over a subset of an article store, filtered by a group membership
// test and an optional predicate, expanded according to a show-type,
// and reported to observers as incremental Diffs.
//
// Arena-style nodes addressed by a stable numeric index with a
// secondary parent->children index, built as a diffing model: rather
// than recomputing and re-caching a whole tree on every read, this
// package keeps the previous membership snapshot and reports only what
// changed.
package articletree

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anthropic-test/panengine/internal/filter"
	"github.com/anthropic-test/panengine/internal/store"
)

// ShowType governs how a filter match expands to its surrounding
// thread context.
type ShowType int

const (
	ShowArticles ShowType = iota
	ShowThreads
	ShowSubThreads
)

// SortColumn selects the column roots are ordered by. Non-root
// siblings always sort by ascending date regardless of this setting.
type SortColumn int

const (
	SortByDate SortColumn = iota
	SortBySubject
	SortByScore
)

// NodeIndex addresses a Node within a Tree's arena. Indices are valid
// only until the next Rebuild, which rebuilds the arena from scratch and
// reassigns them.
type NodeIndex int

// Node is one article's position in the current tree projection.
type Node struct {
	Index     NodeIndex
	MessageID string
	Parent    *NodeIndex // nil for a root
	Children  []NodeIndex
	Subject   string
	Date      time.Time
	Read      bool
	Score     int64
	// ContextOnly marks a node included only as thread context for a
	// Threads or SubThreads match, not because it matched the predicate
	// itself.
	ContextOnly bool
}

// Diffs reports what changed between two consecutive Rebuild calls,
// keyed by Message-ID.
type Diffs struct {
	// Added maps a newly-visible article to its parent's Message-ID
	// (empty string if it is a new root).
	Added map[string]string
	// Reparented maps an article whose effective parent changed
	// (because an ancestor was removed) to its {old, new} parent
	// Message-IDs, either of which may be empty for a root.
	Reparented map[string][2]string
	// Removed is the set of articles no longer present or no longer
	// matching.
	Removed map[string]struct{}
	// Changed is the set of articles whose displayed state changed
	// (read/unread, score) without their identity or position moving.
	Changed map[string]struct{}
}

func newDiffs() *Diffs {
	return &Diffs{
		Added:      make(map[string]string),
		Reparented: make(map[string][2]string),
		Removed:    make(map[string]struct{}),
		Changed:    make(map[string]struct{}),
	}
}

type membership struct {
	parentMID string
	read      bool
	score     int64
}

// Tree is a live threaded view over a group, optionally narrowed by a
// FilterInfo predicate.
type Tree struct {
	mu sync.RWMutex

	group      string
	predicate  *filter.Info
	showType   ShowType
	sortColumn SortColumn
	threading  bool

	nodes       []*Node
	byMessageID map[string]NodeIndex
	roots       []NodeIndex

	prev map[string]membership
}

// New creates a Tree over the given group. threading enables
// parent/child structure; when false every article becomes a root
// regardless of show-type.
func New(group string, predicate *filter.Info, showType ShowType, sortColumn SortColumn, threading bool) *Tree {
	return &Tree{
		group:       group,
		predicate:   predicate,
		showType:    showType,
		sortColumn:  sortColumn,
		threading:   threading,
		byMessageID: make(map[string]NodeIndex),
		prev:        make(map[string]membership),
	}
}

// parseParentMessageID returns the last token of a References header,
// the article's immediate parent per RFC 5536.
func parseParentMessageID(references string) string {
	fields := strings.Fields(references)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func inGroup(a *store.Article, group string) bool {
	for _, g := range a.Newsgroups {
		if g == group {
			return true
		}
	}
	return false
}

// Rebuild recomputes the tree from the full candidate set (every
// article currently known to the store, of which only this tree's
// group members are considered) and returns what changed relative to
// the previous Rebuild.
func (t *Tree) Rebuild(articles []*store.Article) *Diffs {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Step 1: group filter, always applied.
	inScope := make(map[string]*store.Article)
	for _, a := range articles {
		if inGroup(a, t.group) {
			inScope[a.MessageID] = a
		}
	}

	// Step 2: evaluate the optional predicate over the group-scoped set.
	matched := make(map[string]bool, len(inScope))
	for mid, a := range inScope {
		if t.predicate == nil {
			matched[mid] = true
			continue
		}
		matched[mid] = filter.Eval(t.predicate, a)
	}

	// Step 3: expand matches to their thread context per show-type.
	selected, contextOnly := t.expand(inScope, matched)

	// Step 4: build the new arena.
	t.nodes = nil
	t.byMessageID = make(map[string]NodeIndex)
	t.roots = nil

	for mid := range selected {
		a := inScope[mid]
		idx := NodeIndex(len(t.nodes))
		t.nodes = append(t.nodes, &Node{
			Index:       idx,
			MessageID:   mid,
			Subject:     a.Subject,
			Date:        a.PostedAt,
			Read:        a.Read,
			Score:       a.ScoreValue,
			ContextOnly: contextOnly[mid],
		})
		t.byMessageID[mid] = idx
	}

	effectiveParent := make(map[string]string, len(selected))
	for mid := range selected {
		parentMID := parseParentMessageID(inScope[mid].References)
		effectiveParent[mid] = t.nearestSurvivingAncestor(parentMID, selected, inScope)
	}

	if !t.threading {
		for mid := range selected {
			effectiveParent[mid] = ""
		}
	}

	for mid, idx := range t.byMessageID {
		parentMID := effectiveParent[mid]
		if parentMID == "" {
			t.roots = append(t.roots, idx)
			continue
		}
		parentIdx, ok := t.byMessageID[parentMID]
		if !ok {
			t.roots = append(t.roots, idx)
			continue
		}
		t.nodes[idx].Parent = &parentIdx
		t.nodes[parentIdx].Children = append(t.nodes[parentIdx].Children, idx)
	}

	t.sortTree()

	// Step 5: diff against the previous snapshot.
	diffs := newDiffs()
	next := make(map[string]membership, len(selected))
	for mid := range selected {
		a := inScope[mid]
		next[mid] = membership{parentMID: effectiveParent[mid], read: a.Read, score: a.ScoreValue}
	}

	for mid, m := range next {
		old, existed := t.prev[mid]
		if !existed {
			diffs.Added[mid] = m.parentMID
			continue
		}
		if old.parentMID != m.parentMID {
			diffs.Reparented[mid] = [2]string{old.parentMID, m.parentMID}
		}
		if old.read != m.read || old.score != m.score {
			diffs.Changed[mid] = struct{}{}
		}
	}
	for mid := range t.prev {
		if _, still := next[mid]; !still {
			diffs.Removed[mid] = struct{}{}
		}
	}

	t.prev = next
	return diffs
}

// nearestSurvivingAncestor walks up the References chain until it
// finds an ancestor present in selected, or returns "" if none
// survives (the article becomes a root). An ancestor no longer in the
// group is stepped over via the parent it had at the previous Rebuild.
func (t *Tree) nearestSurvivingAncestor(parentMID string, selected map[string]bool, inScope map[string]*store.Article) string {
	visited := make(map[string]bool)
	for parentMID != "" {
		if visited[parentMID] {
			return "" // reference cycle guard
		}
		visited[parentMID] = true
		if selected[parentMID] {
			return parentMID
		}
		parent, ok := inScope[parentMID]
		if !ok {
			prev, known := t.prev[parentMID]
			if !known {
				return ""
			}
			parentMID = prev.parentMID
			continue
		}
		parentMID = parseParentMessageID(parent.References)
	}
	return ""
}

// expand applies the show-type's thread-context rule over the
// group-scoped, predicate-matched candidate set.
func (t *Tree) expand(inScope map[string]*store.Article, matched map[string]bool) (selected map[string]bool, contextOnly map[string]bool) {
	selected = make(map[string]bool)
	contextOnly = make(map[string]bool)

	switch t.showType {
	case ShowArticles:
		for mid, ok := range matched {
			if ok {
				selected[mid] = true
			}
		}
		return selected, contextOnly

	case ShowThreads:
		root := make(map[string]string, len(inScope))
		for mid, a := range inScope {
			root[mid] = t.threadRoot(mid, a, inScope)
		}
		matchedRoots := make(map[string]bool)
		for mid, ok := range matched {
			if ok {
				matchedRoots[root[mid]] = true
			}
		}
		for mid := range inScope {
			if matchedRoots[root[mid]] {
				selected[mid] = true
				if !matched[mid] {
					contextOnly[mid] = true
				}
			}
		}
		return selected, contextOnly

	case ShowSubThreads:
		children := make(map[string][]string, len(inScope))
		for mid, a := range inScope {
			p := parseParentMessageID(a.References)
			if p != "" {
				children[p] = append(children[p], mid)
			}
		}
		for mid, ok := range matched {
			if !ok {
				continue
			}
			selected[mid] = true
			t.collectDescendants(mid, children, selected, contextOnly, false)
			t.collectAncestors(mid, inScope, selected, contextOnly)
		}
		return selected, contextOnly
	}
	return selected, contextOnly
}

func (t *Tree) collectDescendants(mid string, children map[string][]string, selected, contextOnly map[string]bool, markContext bool) {
	for _, child := range children[mid] {
		if !selected[child] {
			selected[child] = true
			if markContext {
				contextOnly[child] = true
			}
		}
		t.collectDescendants(child, children, selected, contextOnly, markContext)
	}
}

func (t *Tree) collectAncestors(mid string, inScope map[string]*store.Article, selected, contextOnly map[string]bool) {
	a, ok := inScope[mid]
	if !ok {
		return
	}
	parentMID := parseParentMessageID(a.References)
	visited := make(map[string]bool)
	for parentMID != "" && !visited[parentMID] {
		visited[parentMID] = true
		if !selected[parentMID] {
			selected[parentMID] = true
			contextOnly[parentMID] = true
		}
		parent, ok := inScope[parentMID]
		if !ok {
			return
		}
		parentMID = parseParentMessageID(parent.References)
	}
}

func (t *Tree) threadRoot(mid string, a *store.Article, inScope map[string]*store.Article) string {
	visited := make(map[string]bool)
	cur := mid
	curArticle := a
	for {
		parentMID := parseParentMessageID(curArticle.References)
		if parentMID == "" || visited[parentMID] {
			return cur
		}
		parent, ok := inScope[parentMID]
		if !ok {
			return cur
		}
		visited[parentMID] = true
		cur = parentMID
		curArticle = parent
	}
}

// sortTree orders roots by the configured column and every non-root
// sibling group by ascending date.
func (t *Tree) sortTree() {
	sort.Slice(t.roots, func(i, j int) bool {
		return t.lessByColumn(t.nodes[t.roots[i]], t.nodes[t.roots[j]])
	})
	for _, n := range t.nodes {
		sort.Slice(n.Children, func(i, j int) bool {
			return t.nodes[n.Children[i]].Date.Before(t.nodes[n.Children[j]].Date)
		})
	}
}

func (t *Tree) lessByColumn(a, b *Node) bool {
	switch t.sortColumn {
	case SortBySubject:
		return a.Subject < b.Subject
	case SortByScore:
		return a.Score < b.Score
	default:
		return a.Date.Before(b.Date)
	}
}

// Roots returns the current root nodes in display order.
func (t *Tree) Roots() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Node, len(t.roots))
	for i, idx := range t.roots {
		out[i] = t.nodes[idx]
	}
	return out
}

// Children returns n's children in display order.
func (t *Tree) Children(n *Node) []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Node, len(n.Children))
	for i, idx := range n.Children {
		out[i] = t.nodes[idx]
	}
	return out
}

// NodeByMessageID looks up a node by Message-ID in the current tree.
func (t *Tree) NodeByMessageID(mid string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.byMessageID[mid]
	if !ok {
		return nil, false
	}
	return t.nodes[idx], true
}

// Size returns the number of nodes currently in the tree.
func (t *Tree) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}
