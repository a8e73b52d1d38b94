package page

import (
	"sync"

	"github.com/tbessias/modkit/internal/installables"
)

// Node is one piece of injected content on the hosted page.
type Node struct {
	ID      string            `json:"id"`
	Kind    installables.Kind `json:"kind"`
	Name    string            `json:"name"`
	Content string            `json:"content"`
}

// Document is the in-memory model of everything currently injected into
// the hosted page. The injection engine owns all writes; readers get
// copies.
type Document struct {
	mu    sync.RWMutex
	nodes []Node
}

// NewDocument creates an empty Document.
func NewDocument() *Document {
	return &Document{}
}

// NodeID derives the stable element id for an installable. The id is a
// pure function of kind and record id, so re-injecting the same record
// always produces the same node id.
func NodeID(kind installables.Kind, recordID string) string {
	return "modkit-" + string(kind) + "-" + recordID
}

// Append adds a node to the document.
func (d *Document) Append(n Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = append(d.nodes, n)
}

// RemoveKind removes every node of the given kind and returns how many
// were removed.
func (d *Document) RemoveKind(kind installables.Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.nodes[:0]
	removed := 0
	for _, n := range d.nodes {
		if n.Kind == kind {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	d.nodes = kept
	return removed
}

// NodesByKind returns a copy of the nodes of one kind, in injection
// order.
func (d *Document) NodesByKind(kind installables.Kind) []Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Node
	for _, n := range d.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Snapshot returns a copy of every node currently in the document.
func (d *Document) Snapshot() []Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}
