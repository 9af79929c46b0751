package model

import "time"

// Icon names one of the fixed ornament artworks.
type Icon string

const (
	IconBauble        Icon = "bauble"
	IconCandyCane     Icon = "candy-cane"
	IconCandy         Icon = "candy"
	IconChristmasSock Icon = "christmas-sock"
	IconChristmas     Icon = "christmas"
	IconFlower        Icon = "flower"
	IconLove          Icon = "love"
	IconStar          Icon = "star"
)

// Icons is the catalogue in display order.
var Icons = []Icon{
	IconBauble,
	IconCandyCane,
	IconCandy,
	IconChristmasSock,
	IconChristmas,
	IconFlower,
	IconLove,
	IconStar,
}

// Valid reports whether i is in the catalogue.
func (i Icon) Valid() bool {
	for _, known := range Icons {
		if i == known {
			return true
		}
	}
	return false
}

// Ornament is one decoration placed on a tree by a participant. X and Y are
// percentages of the tree canvas, both within [0, 100].
//
// Locked is set by the server when the message has been withheld from the
// viewer because the reveal window is closed or the viewer is not the owner.
type Ornament struct {
	ID        string    `json:"id"`
	TreeID    string    `json:"treeId"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Icon      Icon      `json:"ornament"`
	Message   string    `json:"message"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Locked    bool      `json:"locked,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlacedBy returns the id of the participant who placed the ornament.
func (o Ornament) PlacedBy() string { return o.UserID }

// Decorator is one distinct participant who decorated a tree.
type Decorator struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Decorators returns the distinct decorators of ornaments, first placement
// first.
func Decorators(ornaments []Ornament) []Decorator {
	seen := make(map[string]bool, len(ornaments))
	out := make([]Decorator, 0, len(ornaments))
	for _, o := range ornaments {
		if seen[o.UserID] {
			continue
		}
		seen[o.UserID] = true
		out = append(out, Decorator{UserID: o.UserID, Name: o.Name, Email: o.Email})
	}
	return out
}

// InBounds reports whether v is a valid canvas percentage.
func InBounds(v float64) bool {
	return v >= 0 && v <= 100
}
