package model

type UserRole string

const (
	UserRoleCitizen    UserRole = "USER"
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleDepartment UserRole = "DEPARTMENT"
)

// Principal is the authenticated caller. SubjectID is the user, admin or
// department ID depending on Role.
type Principal struct {
	SubjectID int64
	Role      UserRole
}

func (p Principal) IsCitizen() bool {
	return p.Role == UserRoleCitizen
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsDepartment() bool {
	return p.Role == UserRoleDepartment
}

// OwnsDepartment reports whether the caller is the department itself.
func (p Principal) OwnsDepartment(departmentID int64) bool {
	return p.IsDepartment() && p.SubjectID == departmentID
}
