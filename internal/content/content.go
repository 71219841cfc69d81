// Package content defines the data model shared by aggregation and
// classification: origins, virtual files, and per-component-version buckets.
package content

import (
	"path"
	"strings"
)

// Family is the semantic role of a file within a component version.
type Family string

const (
	FamilyPage       Family = "page"
	FamilyPartial    Family = "partial"
	FamilyImage      Family = "image"
	FamilyExample    Family = "example"
	FamilyAttachment Family = "attachment"
	FamilyNavigation Family = "navigation"
	FamilyAlias      Family = "alias"
)

// Origin records where a set of files came from. One Origin is shared by
// reference between all files of a source+ref+startPath combination and is
// never mutated after creation.
type Origin struct {
	URL            string
	GitDir         string
	WorktreePath   string // non-empty for local worktree sources
	Refname        string
	RefType        string // branch or tag
	StartPath      string
	Worktree       bool
	FileURIPattern string
	EditURLPattern string
	// Order is the source's position in the configuration, used to resolve
	// duplicate files deterministically.
	Order int
}

// EditURL expands the origin's edit-URL template for a file. Recognized
// placeholders are {web_url} (the source URL without .git), {refname}, and
// {path} (start-path-relative). Empty when no template is configured.
func (o *Origin) EditURL(relative string) string {
	if o.EditURLPattern == "" {
		return ""
	}
	r := strings.NewReplacer(
		"{web_url}", strings.TrimSuffix(o.URL, ".git"),
		"{refname}", o.Refname,
		"{path}", joinPath(o.StartPath, relative),
	)
	return r.Replace(o.EditURLPattern)
}

// FileURI returns the local file URI for a file of a worktree origin, or ""
// for remote origins.
func (o *Origin) FileURI(relative string) string {
	if o.FileURIPattern == "" {
		return ""
	}
	return strings.ReplaceAll(o.FileURIPattern, "{path}", relative)
}

func joinPath(dir, rest string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return rest
	}
	return dir + "/" + rest
}

// Coordinates addresses a file within the catalog.
type Coordinates struct {
	Component string
	Version   string
	Module    string
	Family    Family
	// Relative is the path below the family root, slash separated.
	Relative  string
	Basename  string
	Stem      string
	Extname   string
	MediaType string
	Origin    *Origin
}

// Key is the duplicate-detection identity of a file.
func (c Coordinates) Key() string {
	return c.Component + "@" + c.Version + ":" + c.Module + "/" + string(c.Family) + "/" + c.Relative
}

// Out is a file's computed output location.
type Out struct {
	Path string
}

// Pub is a file's computed public identity.
type Pub struct {
	URL      string
	RootPath string
}

// File is one virtual content unit. Contents and Src are set during
// aggregation; Out and Pub are populated by the classifier. An alias File is
// synthetic: it has no contents, only Rel pointing at its target.
type File struct {
	Contents []byte
	Src      Coordinates
	Out      *Out
	Pub      *Pub
	Rel      *File
}

// NewFile builds a file with the name-derived coordinate parts filled in.
func NewFile(contents []byte, src Coordinates) *File {
	src.Basename = path.Base(src.Relative)
	src.Extname = path.Ext(src.Basename)
	src.Stem = strings.TrimSuffix(src.Basename, src.Extname)
	src.MediaType = MediaType(src.Extname)
	return &File{Contents: contents, Src: src}
}

var mediaTypes = map[string]string{
	".adoc": "text/asciidoc",
	".md":   "text/markdown",
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".yml":  "text/yaml",
	".yaml": "text/yaml",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".txt":  "text/plain",
}

// MediaType maps a file extension to a media type, falling back to
// application/octet-stream.
func MediaType(extname string) string {
	if mt, ok := mediaTypes[strings.ToLower(extname)]; ok {
		return mt
	}
	return "application/octet-stream"
}
