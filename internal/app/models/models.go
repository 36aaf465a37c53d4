package models

// RoleType is the name of a row in the roles table
type RoleType string

const (
	RoleAdmin        RoleType = "admin"
	RoleDean         RoleType = "dean"
	RoleProgramChair RoleType = "program_chair"
	RoleFaculty      RoleType = "faculty"
)

// AllRoles lists the roles seeded into the roles table
var AllRoles = []RoleType{RoleAdmin, RoleDean, RoleProgramChair, RoleFaculty}

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanReviewSyllabi reports whether the role may approve or reject syllabi
func (r RoleType) CanReviewSyllabi() bool {
	return r == RoleDean || r == RoleProgramChair || r == RoleAdmin
}
