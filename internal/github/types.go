package github

import "strings"

// markdownSuffix is the file suffix eligible for journaling and indexing.
const markdownSuffix = ".md"

// Document is a fetched file: decoded UTF-8 text plus the version token
// (the content SHA) required for a subsequent write. Exists is false when
// the path does not exist on the remote; Content is then empty and the
// caller supplies default content.
type Document struct {
	Path    string
	Content string
	SHA     string
	Exists  bool
}

// EntryKind distinguishes files from directories in a listing.
type EntryKind string

const (
	// EntryFile is a regular file entry.
	EntryFile EntryKind = "file"
	// EntryDir is a directory entry.
	EntryDir EntryKind = "dir"
)

// Entry is one item of a directory listing or a search result.
type Entry struct {
	Name string
	Path string
	Kind EntryKind
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == EntryDir
}

// IsMarkdown reports whether the entry is an indexable markdown file.
func (e Entry) IsMarkdown() bool {
	return e.Kind == EntryFile && strings.HasSuffix(e.Name, markdownSuffix)
}

// contentPayload is the wire shape of a contents API item. The same shape
// is returned for a single file and for each element of a directory listing.
type contentPayload struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// entry converts a payload item to an Entry.
func (p *contentPayload) entry() Entry {
	kind := EntryFile
	if p.Type == "dir" {
		kind = EntryDir
	}
	return Entry{Name: p.Name, Path: p.Path, Kind: kind}
}

// putRequest is the write payload for the contents API. SHA carries the
// expected version token and is omitted for the first write to a new path.
type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

// putResponse is the relevant part of a successful write response.
type putResponse struct {
	Content *struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// searchResponse is the wire shape of a code search result.
type searchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"items"`
}
