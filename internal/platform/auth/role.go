package auth

// Role is the closed set of caller roles. Role checks go through these
// constants and capability helpers, never through raw string comparison at
// call sites.
type Role string

const (
	RoleBorrower   Role = "borrower"
	RoleProprietor Role = "proprietor"
	RoleLibrarian  Role = "librarian"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleBorrower, RoleProprietor, RoleLibrarian:
		return Role(s), true
	}
	return "", false
}

// IsManager reports whether the role has full inventory visibility and
// circulation oversight (proprietor or librarian).
func (r Role) IsManager() bool {
	return r == RoleProprietor || r == RoleLibrarian
}

func (r Role) String() string { return string(r) }
