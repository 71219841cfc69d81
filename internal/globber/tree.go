package globber

import (
	"io"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Entry is one tree member.
type Entry struct {
	Path  string // slash-separated path relative to the tree root
	IsDir bool
}

// Tree abstracts a git tree object or a filesystem directory so glob
// resolution can stay lazy: Stat is a single path lookup, List reads one
// directory, Read materializes one file's contents.
type Tree interface {
	// Stat looks up a single path. Returns os.ErrNotExist when absent.
	Stat(p string) (Entry, error)
	// List returns the immediate children of dir ("" for the root).
	List(dir string) ([]Entry, error)
	// Read returns the contents of the file at p.
	Read(p string) ([]byte, error)
}

// GitTree adapts a go-git tree object.
type GitTree struct {
	tree *object.Tree
}

// NewGitTree wraps a commit's root tree.
func NewGitTree(tree *object.Tree) *GitTree { return &GitTree{tree: tree} }

func (g *GitTree) Stat(p string) (Entry, error) {
	p = path.Clean(p)
	if p == "." || p == "" {
		return Entry{Path: "", IsDir: true}, nil
	}
	e, err := g.tree.FindEntry(p)
	if err != nil {
		return Entry{}, os.ErrNotExist
	}
	return Entry{Path: p, IsDir: e.Mode == filemode.Dir}, nil
}

func (g *GitTree) List(dir string) ([]Entry, error) {
	dir = path.Clean(dir)
	sub := g.tree
	if dir != "." && dir != "" {
		var err error
		sub, err = g.tree.Tree(dir)
		if err != nil {
			return nil, os.ErrNotExist
		}
	} else {
		dir = ""
	}
	out := make([]Entry, 0, len(sub.Entries))
	for _, e := range sub.Entries {
		out = append(out, Entry{
			Path:  path.Join(dir, e.Name),
			IsDir: e.Mode == filemode.Dir,
		})
	}
	return out, nil
}

func (g *GitTree) Read(p string) ([]byte, error) {
	f, err := g.tree.File(path.Clean(p))
	if err != nil {
		return nil, os.ErrNotExist
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

// DirTree adapts a billy filesystem rooted at root (worktrees, local dirs,
// and memfs fixtures in tests).
type DirTree struct {
	fs   billy.Filesystem
	root string
}

// NewDirTree wraps fs at the given root directory ("" or "." for fs root).
func NewDirTree(fs billy.Filesystem, root string) *DirTree {
	if root == "." {
		root = ""
	}
	return &DirTree{fs: fs, root: root}
}

func (d *DirTree) abs(p string) string {
	if d.root == "" {
		return p
	}
	if p == "" || p == "." {
		return d.root
	}
	return d.root + "/" + p
}

func (d *DirTree) Stat(p string) (Entry, error) {
	p = path.Clean(p)
	if p == "." {
		p = ""
	}
	info, err := d.fs.Stat(d.abs(p))
	if err != nil {
		return Entry{}, os.ErrNotExist
	}
	return Entry{Path: p, IsDir: info.IsDir()}, nil
}

func (d *DirTree) List(dir string) ([]Entry, error) {
	dir = path.Clean(dir)
	if dir == "." {
		dir = ""
	}
	infos, err := d.fs.ReadDir(d.abs(dir))
	if err != nil {
		return nil, os.ErrNotExist
	}
	out := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		// The repository metadata directory is never content.
		if name == ".git" && strings.TrimSpace(dir) == "" {
			continue
		}
		out = append(out, Entry{Path: path.Join(dir, name), IsDir: info.IsDir()})
	}
	return out, nil
}

func (d *DirTree) Read(p string) ([]byte, error) {
	f, err := d.fs.Open(d.abs(path.Clean(p)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
