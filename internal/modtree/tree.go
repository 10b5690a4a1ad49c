package modtree

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

// ErrDuplicateLeaf is returned when two generated files resolve to the same package path.
var ErrDuplicateLeaf = errors.New("package already owns a generated file")

const rootIndex = 0

// Kind classifies a node once the whole tree is known.
type Kind int

const (
	// PureBranch has children and no generated file of its own.
	PureBranch Kind = iota
	// PureLeaf has a generated file and no children.
	PureLeaf
	// MergedBranchWithFile has both; its file gets the child exports prepended.
	MergedBranchWithFile
)

func (k Kind) String() string {
	switch k {
	case PureBranch:
		return "branch"
	case PureLeaf:
		return "leaf"
	case MergedBranchWithFile:
		return "merged"
	default:
		return "unknown"
	}
}

type node struct {
	name     string
	location string // directory holding <name>.rs and, for branches, <name>/
	children map[string]int
	file     string // generated file backing this node, empty for pure branches
}

func (n *node) kind() Kind {
	switch {
	case len(n.children) > 0 && n.file != "":
		return MergedBranchWithFile
	case len(n.children) > 0:
		return PureBranch
	default:
		return PureLeaf
	}
}

// Tree is an arena of namespace nodes. Index 0 is an unnamed root container whose children
// are the top-level packages.
type Tree struct {
	nodes []node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: []node{{children: map[string]int{}}}}
}

// Push registers a generated file. The file name minus its final extension is read as a dotted
// package path; base is the directory top-level packages are materialized into.
func (t *Tree) Push(base, file string) error {
	name := filepath.Base(file)
	if !utf8.ValidString(name) {
		return derrors.FileSystemError("generated file name is not valid UTF-8").WithPath(file).Build()
	}
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return derrors.FileSystemError("generated file name has no package path").WithPath(file).Build()
	}
	pkg := name[:dot]
	for _, seg := range strings.Split(pkg, ".") {
		if plainName(seg) == "" {
			return derrors.FileSystemError("generated file name has an empty package segment").
				WithPath(file).
				WithContext("package", pkg).
				Build()
		}
	}
	return t.push(rootIndex, base, file, pkg)
}

func (t *Tree) push(idx int, parent, file, pkg string) error {
	for {
		cur, rest, nested := strings.Cut(pkg, ".")
		if !nested {
			break
		}
		cur = plainName(cur)
		child, ok := t.nodes[idx].children[cur]
		if !ok {
			child = t.add(idx, cur, parent, "")
		}
		idx, parent, pkg = child, filepath.Join(parent, cur), rest
	}

	leaf := plainName(pkg)
	if child, ok := t.nodes[idx].children[leaf]; ok {
		if existing := t.nodes[child].file; existing != "" {
			return derrors.WrapError(ErrDuplicateLeaf, derrors.CategoryInternal, "two generated files map to one package").
				Fatal().
				WithPath(file).
				WithContext("existing", existing).
				Build()
		}
		t.nodes[child].file = file
		return nil
	}
	t.add(idx, leaf, parent, file)
	return nil
}

func (t *Tree) add(parent int, name, location, file string) int {
	t.nodes = append(t.nodes, node{
		name:     name,
		location: location,
		children: map[string]int{},
		file:     file,
	})
	idx := len(t.nodes) - 1
	t.nodes[parent].children[name] = idx
	return idx
}

// KindOf reports the kind of the node at the given package segments.
func (t *Tree) KindOf(segments ...string) (Kind, bool) {
	idx := rootIndex
	for _, seg := range segments {
		child, ok := t.nodes[idx].children[seg]
		if !ok {
			return 0, false
		}
		idx = child
	}
	if idx == rootIndex {
		return 0, false
	}
	return t.nodes[idx].kind(), true
}

// Packages returns the number of named nodes in the tree.
func (t *Tree) Packages() int {
	return len(t.nodes) - 1
}

func (t *Tree) sortedChildren(idx int) []int {
	names := make([]string, 0, len(t.nodes[idx].children))
	for name := range t.nodes[idx].children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]int, len(names))
	for i, name := range names {
		out[i] = t.nodes[idx].children[name]
	}
	return out
}
