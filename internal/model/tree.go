package model

import (
	"net/url"
	"strings"
	"time"
)

// Tree is a virtual Christmas tree owned by one participant. OwnerName and
// OwnerEmail are joined from participants when a tree is loaded.
type Tree struct {
	ID         string    `json:"treeId"`
	Name       string    `json:"treeName"`
	OwnerID    string    `json:"ownerId"`
	OwnerName  string    `json:"-"`
	OwnerEmail string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Owner returns the public projection of the tree's owner.
func (t *Tree) Owner() Owner {
	return Owner{Name: t.OwnerName, Email: t.OwnerEmail}
}

// DefaultTreeName is the name given to the tree created at signup.
func DefaultTreeName(participantName string) string {
	return participantName + "'s Christmas Tree"
}

// ShareLink is the public link to a tree: <origin>/tree?treeId=<id>.
func ShareLink(origin, treeID string) string {
	return strings.TrimRight(origin, "/") + "/tree?treeId=" + url.QueryEscape(treeID)
}
