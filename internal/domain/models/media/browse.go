package media

import "encoding/json"

// Default browse pagination values
const (
	DefaultBrowsePage    = 1
	DefaultBrowsePerPage = 10
)

// BrowseFilters narrows a directory listing. Empty strings and nil pointers
// mean "no filter".
type BrowseFilters struct {
	FilesOnly  bool
	Type       string
	Mime       string
	Private    *bool
	ModelFiles bool // only files that have an owning record
}

// IncludesFolders reports whether folders take part in the listing.
func (f BrowseFilters) IncludesFolders() bool {
	return !f.FilesOnly && f.Type == "" && f.Mime == "" && !f.ModelFiles
}

// Pagination selects a page of a listing.
type Pagination struct {
	Page    int
	PerPage int
}

// ApplyDefaults fills zero values with the defaults
func (p *Pagination) ApplyDefaults() {
	if p.Page < 1 {
		p.Page = DefaultBrowsePage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultBrowsePerPage
	}
}

// Offset is the number of rows skipped before the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageInfo describes the page that was returned.
type PageInfo struct {
	Total       int  `json:"total"`
	Pages       int  `json:"pages"`
	CurrentPage int  `json:"currentPage"`
	PerPage     int  `json:"perPage"`
	Prev        *int `json:"prev"`
	Next        *int `json:"next"`
}

// ItemKind distinguishes folders from files in a listing.
type ItemKind string

const (
	ItemFolder ItemKind = "folder"
	ItemFile   ItemKind = "file"
)

// Item is one entry of a directory listing: exactly one of Folder or File is set.
type Item struct {
	Kind   ItemKind
	Folder *Folder
	File   *File
}

// ID returns the id of the wrapped node.
func (i Item) ID() string {
	if i.Folder != nil {
		return i.Folder.ID
	}
	return i.File.ID
}

// MarshalJSON flattens the wrapped node and adds its "type".
func (i Item) MarshalJSON() ([]byte, error) {
	var node any = i.File
	if i.Kind == ItemFolder {
		node = i.Folder
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if i.Kind == ItemFolder {
		fields["type"] = json.RawMessage(`"folder"`)
	}
	return json.Marshal(fields)
}

// BrowseResult is the answer to a directory listing.
type BrowseResult struct {
	Data     []Item    `json:"data"`
	Paginate *PageInfo `json:"paginate,omitempty"`
}
