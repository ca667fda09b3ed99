package accesscontrol

// RoleName is the single role carried by a user. Precedence is linear:
// each role can do everything the roles below it can.
type RoleName string

const (
	RoleGuest    RoleName = "guest"
	RoleMember   RoleName = "member"
	RoleReviewer RoleName = "reviewer"
	RoleAdmin    RoleName = "admin"
)

var precedence = map[RoleName]int{
	RoleGuest:    0,
	RoleMember:   1,
	RoleReviewer: 2,
	RoleAdmin:    3,
}

func (r RoleName) Valid() bool {
	_, ok := precedence[r]
	return ok
}

// AtLeast reports whether r carries at least the privileges of min.
// Unknown roles rank below guest, so a junk claim never passes a gate.
func (r RoleName) AtLeast(min RoleName) bool {
	return r.Valid() && precedence[r] >= precedence[min]
}
