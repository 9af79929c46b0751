package model

import "time"

// Wish is a free-text message left for a tree's owner. Wishes are only
// readable by the owner, and only while the reveal window is open.
type Wish struct {
	ID        string    `json:"id"`
	TreeID    string    `json:"treeId"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Text      string    `json:"wish"`
	Timestamp time.Time `json:"timestamp"`
}

// PlacedBy returns the id of the participant who wrote the wish.
func (w Wish) PlacedBy() string { return w.UserID }
