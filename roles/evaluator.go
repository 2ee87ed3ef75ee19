package roles

// Task identifies one of the claim-investigation workflow stages that carry
// their own permission lists.
type Task string

const (
	TaskReception     Task = "reception"
	TaskAssignment    Task = "assignment"
	TaskInvestigation Task = "investigation"
	TaskReport        Task = "report"
	TaskReview        Task = "review"
	TaskTransmission  Task = "transmission"
)

// type1AccessRoles and type4AccessRoles are the business-domain access
// matrices: which roles may work type 1 and type 4 claims.
var type1AccessRoles = []Role{
	Admin,
	BusinessSupport,
	ExecutiveAll,
	ExecutiveType1,
	TeamLeaderAll,
	TeamLeaderType1,
	InvestigatorAll,
	InvestigatorType1,
}

var type4AccessRoles = []Role{
	Admin,
	BusinessSupport,
	ExecutiveAll,
	ExecutiveType4,
	TeamLeaderAll,
	TeamLeaderType4,
	InvestigatorAll,
	InvestigatorType4,
}

var executiveLevelRoles = []Role{
	Admin,
	ExecutiveAll,
	ExecutiveType1,
	ExecutiveType4,
}

var teamLeaderLevelRoles = []Role{
	Admin,
	BusinessSupport,
	ExecutiveAll,
	ExecutiveType1,
	ExecutiveType4,
	TeamLeaderAll,
	TeamLeaderType1,
	TeamLeaderType4,
}

// taskRoles maps each workflow stage to the roles allowed to perform it.
var taskRoles = map[Task][]Role{
	TaskReception:  {Admin, BusinessSupport},
	TaskAssignment: {Admin, BusinessSupport},
	TaskInvestigation: {
		Admin,
		TeamLeaderAll, TeamLeaderType1, TeamLeaderType4,
		InvestigatorAll, InvestigatorType1, InvestigatorType4,
	},
	TaskReport: {
		Admin,
		TeamLeaderAll, TeamLeaderType1, TeamLeaderType4,
		InvestigatorAll, InvestigatorType1, InvestigatorType4,
	},
	TaskReview: {
		Admin,
		ExecutiveAll, ExecutiveType1, ExecutiveType4,
		TeamLeaderAll, TeamLeaderType1, TeamLeaderType4,
	},
	TaskTransmission: {Admin, BusinessSupport},
}

// HasAnyRole reports whether the intersection of held and required is
// non-empty.
func HasAnyRole(held []Role, required ...Role) bool {
	for _, h := range held {
		for _, r := range required {
			if h == r {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports whether the set contains the administrator role.
func IsAdmin(held []Role) bool {
	return HasAnyRole(held, Admin)
}

// IsManagerLevel reports management-tier access (admin or business support).
func IsManagerLevel(held []Role) bool {
	return HasAnyRole(held, Admin, BusinessSupport)
}

// IsExecutiveLevel reports executive-tier access or above.
func IsExecutiveLevel(held []Role) bool {
	return HasAnyRole(held, executiveLevelRoles...)
}

// IsTeamLeaderLevel reports team-leader-tier access or above.
func IsTeamLeaderLevel(held []Role) bool {
	return HasAnyRole(held, teamLeaderLevelRoles...)
}

// IsInvestigatorLevel reports whether the set carries anything beyond the
// plain employee role. An empty set does not qualify.
func IsInvestigatorLevel(held []Role) bool {
	for _, h := range held {
		if h != Employee {
			return true
		}
	}
	return false
}

// CanAccessType1 reports whether any held role may work type 1 claims.
func CanAccessType1(held []Role) bool {
	return HasAnyRole(held, type1AccessRoles...)
}

// CanAccessType4 reports whether any held role may work type 4 claims.
func CanAccessType4(held []Role) bool {
	return HasAnyRole(held, type4AccessRoles...)
}

// HasTaskPermission reports whether any held role may perform the given
// workflow stage. Unknown tasks are denied.
func HasTaskPermission(held []Role, task Task) bool {
	allowed, ok := taskRoles[task]
	if !ok {
		return false
	}
	return HasAnyRole(held, allowed...)
}

// ComparePriority orders two roles by privilege: -1 when a outranks b, 1 when
// b outranks a, 0 when equal. Unknown role names sort last.
func ComparePriority(a, b Role) int {
	pa, pb := a.Priority(), b.Priority()
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	default:
		return 0
	}
}

// Primary returns the most privileged role present in the set, walking the
// fixed priority order so insertion order never matters. The second return is
// false when no defined role is present.
func Primary(held []Role) (Role, bool) {
	for _, r := range priorityOrder {
		if HasAnyRole(held, r) {
			return r, true
		}
	}
	return "", false
}

// PrimaryDisplayLabel returns the display label of the most privileged role
// present, or NoPermissionLabel when the set matches nothing.
func PrimaryDisplayLabel(held []Role) string {
	r, ok := Primary(held)
	if !ok {
		return NoPermissionLabel
	}
	return r.DisplayLabel()
}
