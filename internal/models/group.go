package models

// NonGroupID identifies the virtual scope holding transactions that have no group.
const NonGroupID = "nongroup"

// Group represents a set of users sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	// Members is the set of user IDs in this group. Order is irrelevant.
	// The creator is always a member.
	Members []string

	// CreatedBy is the user ID who created the group.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
