package rbac

const (
	RoleAdmin   = "admin"
	RoleEditor  = "editor" // content manager
	RoleStudent = "student"
)

const (
	PermContentWrite   = "content:write" // courses, modules, lessons, categories
	PermTestsWrite     = "tests:write"   // tests and their questions
	PermLicensesManage = "licenses:manage"
	PermContactsView   = "contacts:view"
	PermContactsManage = "contacts:manage"
	PermAuditView      = "audit:view"
	PermAttemptsTake   = "attempts:take"
	PermAttemptsView   = "attempts:view"   // every user's attempts
	PermAttemptsManage = "attempts:manage" // extra attempt requests
	PermUsersManage    = "users:manage"
	PermOwnPassword    = "user:change_password"
)

var RolePermissions = map[string][]string{
	RoleStudent: {
		PermAttemptsTake,
		PermOwnPassword,
	},
	RoleEditor: {
		PermAttemptsTake,
		PermAttemptsView,
		PermOwnPassword,
		"content:*",
		"tests:*",
		PermLicensesManage,
		PermContactsView,
	},
	RoleAdmin: {
		"*",
	},
}

// ValidRole reports whether role has an entry in the default policy.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
