package record

// Workspace is a named container grouping tab sets, highlights, and a quick
// note under one identity. At most one workspace is active at a time; the
// active flag is maintained by the store, not by the record itself.
type Workspace struct {
	// ID is a ULID that uniquely identifies this workspace
	ID string `json:"id"`

	// Name is the user-visible workspace name
	Name string `json:"name"`

	// Description is an optional free-form description
	Description string `json:"description,omitempty"`

	// CreatedAt is the Unix millisecond timestamp when the workspace was created
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix millisecond timestamp of the last mutation,
	// including activation changes
	UpdatedAt int64 `json:"updatedAt"`

	// IsActive mirrors the active-workspace pointer; true for at most one record
	IsActive bool `json:"isActive"`

	// Color is an optional UI accent color
	Color string `json:"color,omitempty"`

	// Icon is an optional UI icon name
	Icon string `json:"icon,omitempty"`

	// ContextPrimer is a workspace-specific instruction string that
	// customizes AI analysis prompts for this workspace's content
	ContextPrimer string `json:"contextPrimer,omitempty"`
}

// TabSet is a saved, ordered snapshot of browser tabs belonging to a
// workspace. WorkspaceID is a non-owning reference; a tab set is deleted in
// the same logical operation as its owning workspace.
type TabSet struct {
	ID          string   `json:"id"`
	WorkspaceID string   `json:"workspaceId"`
	Name        string   `json:"name"`
	Tabs        []TabRef `json:"tabs"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// TabRef is a snapshot of a browser tab at save time, not a live handle.
// Index records the original ordering for faithful restoration.
type TabRef struct {
	ID         int    `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	FavIconURL string `json:"favIconUrl,omitempty"`
	Pinned     bool   `json:"pinned"`
	Index      int    `json:"index"`
}

// Highlight is a saved text excerpt with its source page. Highlights are
// stored grouped per workspace, newest first, capped in count.
type Highlight struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	CreatedAt int64    `json:"createdAt"`
	Tags      []string `json:"tags,omitempty"`
}

// HighlightGroups maps a workspace id to that workspace's highlight
// sequence, newest first.
type HighlightGroups map[string][]Highlight
