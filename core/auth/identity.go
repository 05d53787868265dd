package auth

// Roles
const (
	// RoleOperator has cross-tenant administrative capability and no
	// home tenant.
	RoleOperator = "operator"

	// Tenant-bound roles
	RoleAdmin    = "admin"
	RoleTeacher  = "teacher"
	RoleStudent  = "student"
	RoleGuardian = "guardian"
	RoleFinance  = "finance"
	RoleStaff    = "staff"

	// RoleUnassigned marks an authenticated user who has not completed
	// tenant assignment yet (pre-onboarding).
	RoleUnassigned = "unassigned"
)

var (
	TenantRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleGuardian, RoleFinance, RoleStaff}
	AllRoles    = append([]string{RoleOperator, RoleUnassigned}, TenantRoles...)

	rolePriorities = map[string]int{
		RoleOperator:   40,
		RoleAdmin:      30,
		RoleFinance:    21,
		RoleStaff:      20,
		RoleTeacher:    11,
		RoleGuardian:   2,
		RoleStudent:    1,
		RoleUnassigned: 0,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Guardian", Value: RoleGuardian},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Staff", Value: RoleStaff},
		{Name: "Finance Staff", Value: RoleFinance},
		{Name: "School Admin", Value: RoleAdmin},
		{Name: "Platform Operator", Value: RoleOperator},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func KnownRole(role string) bool {
	_, ok := rolePriorities[role]
	return ok
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

// Identity is an authenticated principal, valid for the lifetime of one
// request. The zero value is the unauthenticated guest.
type Identity struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	HomeTenantID string `json:"home_tenant_id,omitempty"` // empty for operators and unassigned users
}

// Anonymous is the unauthenticated guest identity.
var Anonymous = Identity{}

func (idn Identity) IsAnonymous() bool {
	return idn.UserID == ""
}

func (idn Identity) IsOperator() bool {
	return idn.Role == RoleOperator
}

// IsAssigned reports whether the identity has a home tenant.
func (idn Identity) IsAssigned() bool {
	return idn.HomeTenantID != ""
}
