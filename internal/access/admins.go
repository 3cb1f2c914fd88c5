// Package access holds the static admin allow-list.
package access

// Admins is the set of privileged user ids supplied at startup.  It is
// never mutated after construction and is safe for concurrent reads.
type Admins struct {
	ids map[int64]struct{}
}

func NewAdmins(ids []int64) Admins {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Admins{ids: m}
}

// IsAdmin reports whether userID is on the allow-list.
func (a Admins) IsAdmin(userID int64) bool {
	_, ok := a.ids[userID]
	return ok
}

// Len returns the number of admins.
func (a Admins) Len() int { return len(a.ids) }
