// Package model defines the data structures shared by the server, the client
// and the CLI. The JSON tags match the wire contract the web client already
// speaks, which is why the participant id is serialised as "_id".
package model

import "time"

// Participant is a signed-up person. Identity is the email address, compared
// case-insensitively; the ID is an xid minted at signup.
//
// TreeID points at the participant's first tree. A participant may own more
// trees (see Tree.OwnerID) but the first one is the one the client stores and
// treats as "my tree".
//
// WHY Admin on the participant?
// Only admins may upload posts to kiti's room. The flag is derived from the
// ADMIN_EMAILS setting at signup and refreshed on every login so that changing
// the setting takes effect without a migration.
type Participant struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	GoogleID  string    `json:"-"`
	TreeID    string    `json:"treeId"`
	TreeName  string    `json:"treeName,omitempty"` // joined from trees, not a column
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner is the public projection of a tree owner, as shown to guests.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Owner returns the public projection of p.
func (p *Participant) Owner() Owner {
	return Owner{Name: p.Name, Email: p.Email}
}
