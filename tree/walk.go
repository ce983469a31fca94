package tree

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/dijkstracula/go-nstree/pathutil"
)

// Stats summarizes the shape of a tree, as computed by Walk.
type Stats struct {
	NodeCount int
	MaxDepth  int
}

type walkFrame struct {
	n     *node
	path  string
	depth int
}

// Walk performs a read-only, pre-order traversal of the subtree rooted at
// path, calling fn once per node visited with that node's path and depth
// relative to path (0 for path itself). It never holds a single lock for
// the whole walk: like the rest of the tree's traversals, it locks a
// node's children before releasing the node itself, so a concurrent
// mutation can't unlink a node Walk is about to visit.
//
// The walk is iterative with an explicit stack (spec'd the same way as
// Node's subtree locking) rather than recursive, so a deep tree cannot
// exhaust the goroutine's stack. If fn returns an error, Walk stops and
// returns it; in-flight locks are released along the way.
func (t *Tree) Walk(path string, fn func(path string, depth int) error) error {
	if !pathutil.IsValid(path) {
		return errors.Wrapf(ErrInvalidArgument, "walk %s", path)
	}

	target, parentHeld, err := t.findReadlockedParent(path)
	if err != nil {
		return errors.Wrapf(err, "walk %s", path)
	}

	target.lock.RLock()
	parentHeld.lock.RUnlock()

	stack := []walkFrame{{target, path, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(f.path, f.depth); err != nil {
			f.n.lock.RUnlock()
			for _, pending := range stack {
				pending.n.lock.RUnlock()
			}
			return err
		}

		names := make([]string, 0, len(f.n.children))
		for name := range f.n.children {
			names = append(names, name)
		}
		sort.Strings(names)

		children := make([]walkFrame, 0, len(names))
		for _, name := range names {
			child := f.n.children[name]
			child.lock.RLock()
			children = append(children, walkFrame{child, f.path + name + "/", f.depth + 1})
		}
		f.n.lock.RUnlock()

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

// Stats walks the whole tree and reports its node count and maximum depth.
func (t *Tree) Stats() (Stats, error) {
	var s Stats
	err := t.Walk(pathutil.Root, func(_ string, depth int) error {
		s.NodeCount++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		return nil
	})
	return s, err
}
