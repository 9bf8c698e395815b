package model

// Note is a short text owned by exactly one user.
//
// OwnerID is set at creation and never changes. Author is the owner's profile,
// filled in by the repository when the note is loaded.
//
// Archived notes are soft-deleted: they drop out of every listing but stay in
// the table so their owner can fetch or restore them.
type Note struct {
	ID       int64  `json:"id"`
	OwnerID  int64  `json:"-"`
	Text     string `json:"text"`
	Private  bool   `json:"private"`
	Archived bool   `json:"archived"`
	Author   *User  `json:"author,omitempty"`
	Tags     []Tag  `json:"tags"`
}

// HasTag reports whether a tag with the given id is attached to the note.
func (n *Note) HasTag(tagID int64) bool {
	for _, t := range n.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// TagIDs returns the ids of the attached tags in their current order.
func (n *Note) TagIDs() []int64 {
	ids := make([]int64, 0, len(n.Tags))
	for _, t := range n.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}
