package model

import "time"

// PostKind separates the two shelves of kiti's room.
type PostKind string

const (
	PostEcho     PostKind = "echo"     // audio clip with a caption
	PostScribble PostKind = "scribble" // short written piece
)

// Valid reports whether k is a known kind.
func (k PostKind) Valid() bool {
	return k == PostEcho || k == PostScribble
}

// Post is an admin-authored piece of content.
type Post struct {
	ID        string    `json:"id"`
	Kind      PostKind  `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}
