package core

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

var AllRoles = []string{RoleStudent, RoleInstructor, RoleAdmin}

// Principal is the authenticated caller.
type Principal struct {
	ID    string
	Role  string
	Email string
}

func (p Principal) IsStudent() bool    { return p.Role == RoleStudent }
func (p Principal) IsInstructor() bool { return p.Role == RoleInstructor }
func (p Principal) IsAdmin() bool      { return p.Role == RoleAdmin }

func (p Principal) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
