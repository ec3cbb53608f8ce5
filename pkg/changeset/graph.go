package changeset

import (
	"context"
	"sort"

	"github.com/oneconcern/catsync/pkg/changeset/status"
	"github.com/oneconcern/catsync/pkg/metafile"
)

// Node is a changeset of the shared history
type Node struct {
	Record   *metafile.ChangesetRecord
	parent   *Node
	children []*Node
}

// Hash of the stored artifact, which identifies the node
func (n *Node) Hash() string {
	return n.Record.Changeset.Hash
}

// IsBase tells if the node holds the full base catalog
func (n *Node) IsBase() bool {
	return n.Record.Changeset.IsBase
}

// Info returns the changeset section of the node's record
func (n *Node) Info() metafile.ChangesetInfo {
	return n.Record.Changeset
}

// Parent node, nil for the base
func (n *Node) Parent() *Node {
	return n.parent
}

// Children of the node. A consistent history has at most one.
func (n *Node) Children() []*Node {
	return n.children
}

// Graph is an in-memory snapshot of a shared catalog's history.
//
// A graph is immutable once built: it is never refreshed when
// the shared directory changes.
type Graph struct {
	nodes map[string]*Node
	root  *Node
	leaf  *Node
}

// Build loads all records from the source and links them into a linear history
func Build(ctx context.Context, source Source) (*Graph, error) {
	records, err := source.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, status.ErrEmpty
	}

	g := &Graph{nodes: make(map[string]*Node, len(records))}
	for _, rec := range records {
		hash := rec.Changeset.Hash
		if prev, found := g.nodes[hash]; found {
			return nil, status.ErrDuplicateHash.Wrapf("%s described by %s and %s", hash, prev.Record.Path(), rec.Path())
		}
		g.nodes[hash] = &Node{Record: rec}
	}

	// iterate in a stable order so errors are reproducible
	hashes := make([]string, 0, len(g.nodes))
	for hash := range g.nodes {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	for _, hash := range hashes {
		node := g.nodes[hash]
		if node.IsBase() {
			if g.root != nil {
				return nil, status.ErrMultipleBases.Wrapf("%s and %s", g.root.Hash(), hash)
			}
			g.root = node
			continue
		}

		parent, found := g.nodes[node.Record.Parent.Hash]
		if !found {
			return nil, status.ErrDanglingParent.Wrapf("changeset %s (%s) refers to parent %s",
				hash, node.Record.Path(), node.Record.Parent.Hash)
		}
		if len(parent.children) > 0 {
			return nil, status.ErrBranching.Wrapf("changesets %s and %s both apply to %s",
				parent.children[0].Hash(), hash, parent.Hash())
		}
		node.parent = parent
		parent.children = append(parent.children, node)
	}
	if g.root == nil {
		return nil, status.ErrNoBase
	}

	var leaves []*Node
	for _, hash := range hashes {
		if node := g.nodes[hash]; len(node.children) == 0 {
			leaves = append(leaves, node)
		}
	}
	if len(leaves) > 1 {
		return nil, status.ErrMultipleLeaves.Wrapf("%s and %s", leaves[0].Hash(), leaves[1].Hash())
	}

	// with a single base and no branching, any node left out of the chain
	// belongs to a parent cycle
	chain, err := g.Path(g.root.Hash(), "")
	if err != nil {
		return nil, err
	}
	if len(chain)+1 != len(g.nodes) {
		return nil, status.ErrDetached.Wrapf("%d changesets out of %d", len(g.nodes)-len(chain)-1, len(g.nodes))
	}
	if len(chain) == 0 {
		g.leaf = g.root
	} else {
		g.leaf = chain[len(chain)-1]
	}

	return g, nil
}

// Root is the base changeset
func (g *Graph) Root() *Node {
	return g.root
}

// Leaf is the current tip of the history
func (g *Graph) Leaf() *Node {
	return g.leaf
}

// Len counts the changesets in the history, base included
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node looks up a changeset by hash
func (g *Graph) Node(hash string) (*Node, bool) {
	n, found := g.nodes[hash]
	return n, found
}

// History lists all changesets from the base to the tip
func (g *Graph) History() []*Node {
	path, _ := g.Path(g.root.Hash(), g.leaf.Hash())
	return append([]*Node{g.root}, path...)
}

// Path returns the changesets to apply to go from one state to another,
// excluding from and including to.
//
// An empty to walks until the last changeset.
func (g *Graph) Path(from, to string) ([]*Node, error) {
	current, found := g.nodes[from]
	if !found {
		return nil, status.ErrUnknownHash.Wrapf("%s", from)
	}
	if to != "" {
		if _, found := g.nodes[to]; !found {
			return nil, status.ErrUnknownHash.Wrapf("%s", to)
		}
	}

	var path []*Node
	for current.Hash() != to {
		switch len(current.children) {
		case 0:
			if to == "" {
				return path, nil
			}
			return nil, status.ErrUnreachable.Wrapf("from %s to %s", from, to)
		case 1:
		default:
			return nil, status.ErrBranching.Wrapf("at %s", current.Hash())
		}
		if len(path) >= len(g.nodes) {
			return nil, status.ErrDetached.Wrapf("cycle from %s", from)
		}
		current = current.children[0]
		path = append(path, current)
	}
	return path, nil
}
