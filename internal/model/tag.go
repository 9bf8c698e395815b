package model

// Tag is a label that can be attached to any number of notes.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// File is a stored upload. URL is the public path the file is served from.
type File struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}
