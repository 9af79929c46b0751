package gate

import "strings"

// IsOwner compares two identifiers (emails or tree ids) after trimming
// whitespace, ignoring case. Either side being empty means "not the owner".
//
// The same comparison backs three decisions on a tree page: whether the
// ornament picker is offered, whether the wish form is offered, and whether
// the reveal gate is consulted at all.
func IsOwner(candidate, owner string) bool {
	c := strings.TrimSpace(candidate)
	o := strings.TrimSpace(owner)
	if c == "" || o == "" {
		return false
	}
	return strings.EqualFold(c, o)
}

// IsOwnTree reports whether the tree id in the current navigation context
// is the one the participant stored as their own.
func IsOwnTree(storedTreeID, contextTreeID string) bool {
	return IsOwner(storedTreeID, contextTreeID)
}
