// Package tree implements a concurrent, in-memory hierarchical namespace:
// a directory tree keyed by absolute paths, supporting four operations --
// list, create, remove, and move -- safe for use by many goroutines
// mutating and querying overlapping regions of the tree at once.
//
// The hard part is not any one operation; it's the locking discipline that
// lets them run concurrently without coarse-grained serialization. Every
// traversal acquires locks hand-over-hand (never holding a node and its
// grandparent at once), and Move additionally establishes a single
// lowest-common-ancestor write-lock as the serialization point for the two
// arbitrary positions it touches, so that two concurrent moves can never
// deadlock against each other.
package tree

import (
	"github.com/pkg/errors"

	"github.com/dijkstracula/go-nstree/pathutil"
)

// Tree is a concurrent hierarchical namespace rooted at "/".
type Tree struct {
	root      *node
	aboveRoot *node
}

// New returns an empty Tree containing only the root.
func New() *Tree {
	aboveRoot := newNode(nil)
	root := newNode(aboveRoot)
	return &Tree{root: root, aboveRoot: aboveRoot}
}

// findReadlockedParent resolves path to its target node via hand-over-hand
// read locking. On success it returns the target and, still read-locked,
// the node that was its parent during the walk (above_root for the root
// itself). The caller is responsible for releasing that lock and for
// upgrading or otherwise converting it into whatever the operation needs.
func (t *Tree) findReadlockedParent(path string) (target, heldParent *node, err error) {
	heldParent = t.aboveRoot
	heldParent.lock.RLock()
	current := t.root
	subpath := path

	for {
		component, remainder, ok := pathutil.SplitNext(subpath)
		if !ok {
			return current, heldParent, nil
		}

		current.lock.RLock()
		heldParent.lock.RUnlock()
		heldParent = current

		child, exists := current.children[component]
		if !exists {
			heldParent.lock.RUnlock()
			return nil, nil, ErrNotFound
		}

		current = child
		subpath = remainder
	}
}

// Create adds a new, empty leaf directory at path. path's parent must
// already exist and must not already have a child with path's basename.
func (t *Tree) Create(path string) error {
	if !pathutil.IsValid(path) {
		return errors.Wrapf(ErrInvalidArgument, "create %s", path)
	}
	if path == pathutil.Root {
		return errors.Wrapf(ErrAlreadyExists, "create %s", path)
	}

	parentPath, name := pathutil.ParentPath(path)
	parent, grandParentHeld, err := t.findReadlockedParent(parentPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	parent.lock.Lock()
	grandParentHeld.lock.RUnlock()

	if _, exists := parent.children[name]; exists {
		parent.lock.Unlock()
		return errors.Wrapf(ErrAlreadyExists, "create %s", path)
	}

	parent.insertChild(name, newNode(parent))
	parent.lock.Unlock()

	logger.Debug().Str("path", path).Msg("create")
	return nil
}

// List returns the canonical, comma-separated listing of path's children.
func (t *Tree) List(path string) (string, error) {
	if !pathutil.IsValid(path) {
		return "", errors.Wrapf(ErrInvalidArgument, "list %s", path)
	}

	target, parentHeld, err := t.findReadlockedParent(path)
	if err != nil {
		return "", errors.Wrapf(err, "list %s", path)
	}

	target.lock.RLock()
	parentHeld.lock.RUnlock()

	result := target.listChildren()
	target.lock.RUnlock()

	return result, nil
}

// Remove deletes the empty leaf directory at path.
func (t *Tree) Remove(path string) error {
	if !pathutil.IsValid(path) {
		return errors.Wrapf(ErrInvalidArgument, "remove %s", path)
	}
	if path == pathutil.Root {
		return errors.Wrapf(ErrBusy, "remove %s", path)
	}

	parentPath, name := pathutil.ParentPath(path)
	parent, grandParentHeld, err := t.findReadlockedParent(parentPath)
	if err != nil {
		return errors.Wrapf(err, "remove %s", path)
	}

	parent.lock.Lock()
	grandParentHeld.lock.RUnlock()

	leaf, exists := parent.children[name]
	if !exists {
		parent.lock.Unlock()
		return errors.Wrapf(ErrNotFound, "remove %s", path)
	}

	leaf.lock.Lock()
	if len(leaf.children) > 0 {
		leaf.lock.Unlock()
		parent.lock.Unlock()
		return errors.Wrapf(ErrNotEmpty, "remove %s", path)
	}

	parent.removeChild(name)
	parent.lock.Unlock()
	leaf.lock.Unlock()

	logger.Debug().Str("path", path).Msg("remove")
	return nil
}

// Move relocates the subtree rooted at source so that it is rooted at
// target instead, renaming it to target's basename in the process. target
// must not be the root or a descendant of source. Moving source onto itself
// is a no-op that only checks that source exists.
func (t *Tree) Move(source, target string) error {
	if !pathutil.IsValid(source) || !pathutil.IsValid(target) {
		return errors.Wrapf(ErrInvalidArgument, "move %s -> %s", source, target)
	}
	if source == pathutil.Root {
		return errors.Wrapf(ErrBusy, "move %s -> %s", source, target)
	}
	if target == pathutil.Root {
		return errors.Wrapf(ErrAlreadyExists, "move %s -> %s", source, target)
	}
	if pathutil.IsSubpath(target, source) {
		return errors.Wrapf(ErrInvalidMove, "move %s -> %s", source, target)
	}

	spPath, sname := pathutil.ParentPath(source)
	tpPath, tname := pathutil.ParentPath(target)
	lcaPath := pathutil.CommonPath(spPath, tpPath)

	lca, lcaParentHeld, err := t.findReadlockedParent(lcaPath)
	if err != nil {
		return errors.Wrapf(err, "move %s -> %s", source, target)
	}

	lca.lock.Lock()
	lcaParentHeld.lock.RUnlock()

	if source == target {
		_, exists := lca.children[sname]
		lca.lock.Unlock()
		if !exists {
			return errors.Wrapf(ErrNotFound, "move %s -> %s", source, target)
		}
		return nil
	}

	spNode, err := descendWriteLocked(lca, pathutil.RelativeSuffix(spPath, lcaPath))
	if err != nil {
		lca.lock.Unlock()
		return errors.Wrapf(err, "move %s -> %s", source, target)
	}

	tpNode, err := descendWriteLocked(lca, pathutil.RelativeSuffix(tpPath, lcaPath))
	if err != nil {
		unlockDistinct(spNode, lca)
		return errors.Wrapf(err, "move %s -> %s", source, target)
	}

	movedNode, exists := spNode.children[sname]
	if !exists {
		unlockDistinct(tpNode, spNode, lca)
		return errors.Wrapf(ErrNotFound, "move %s -> %s", source, target)
	}
	if _, exists := tpNode.children[tname]; exists {
		unlockDistinct(tpNode, spNode, lca)
		return errors.Wrapf(ErrAlreadyExists, "move %s -> %s", source, target)
	}

	movedNode.lockSubtreeWrite()
	spNode.removeChild(sname)
	tpNode.insertChild(tname, movedNode)
	movedNode.parent = tpNode
	movedNode.unlockSubtreeWrite()

	unlockDistinct(tpNode, spNode, lca)

	logger.Debug().Str("source", source).Str("target", target).Msg("move")
	return nil
}

// unlockDistinct releases each distinct node's write lock exactly once, in
// the order given, skipping nodes that alias one already released (e.g.
// when source's parent, target's parent, and the LCA coincide).
func unlockDistinct(nodes ...*node) {
	seen := make(map[*node]bool, len(nodes))
	for _, n := range nodes {
		if n == nil || seen[n] {
			continue
		}
		seen[n] = true
		n.lock.Unlock()
	}
}
