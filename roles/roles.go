package roles

// Role identifies one of the portal's fixed access roles. The string form
// matches the backend's Spring Security authority names (ROLE_ prefix), so
// values deserialize straight off the wire.
type Role string

const (
	// Management roles
	Admin           Role = "ROLE_ADMIN"
	BusinessSupport Role = "ROLE_BUSINESS_SUPPORT"

	// Executive roles
	ExecutiveAll   Role = "ROLE_EXECUTIVE_ALL"
	ExecutiveType1 Role = "ROLE_EXECUTIVE_TYPE1"
	ExecutiveType4 Role = "ROLE_EXECUTIVE_TYPE4"

	// Team leader roles
	TeamLeaderAll   Role = "ROLE_TEAM_LEADER_ALL"
	TeamLeaderType1 Role = "ROLE_TEAM_LEADER_TYPE1"
	TeamLeaderType4 Role = "ROLE_TEAM_LEADER_TYPE4"

	// Investigator roles
	InvestigatorAll   Role = "ROLE_INVESTIGATOR_ALL"
	InvestigatorType1 Role = "ROLE_INVESTIGATOR_TYPE1"
	InvestigatorType4 Role = "ROLE_INVESTIGATOR_TYPE4"

	// Default role
	Employee Role = "ROLE_EMPLOYEE"
)

// unknownPriority sorts any role name outside the fixed table last.
const unknownPriority = 999

// NoPermissionLabel is returned when a role set matches nothing in the table.
const NoPermissionLabel = "권한 없음"

type roleInfo struct {
	priority int
	label    string
}

// roleTable is the single authoritative source for priorities and display
// labels. Lower priority means more privileged.
var roleTable = map[Role]roleInfo{
	Admin:             {1, "관리자"},
	BusinessSupport:   {5, "경영지원"},
	ExecutiveAll:      {10, "임원(1/4종)"},
	ExecutiveType1:    {11, "임원(1종)"},
	ExecutiveType4:    {12, "임원(4종)"},
	TeamLeaderAll:     {20, "팀장(1/4종)"},
	TeamLeaderType1:   {21, "팀장(1종)"},
	TeamLeaderType4:   {22, "팀장(4종)"},
	InvestigatorAll:   {30, "조사자(1/4종)"},
	InvestigatorType1: {31, "조사자(1종)"},
	InvestigatorType4: {32, "조사자(4종)"},
	Employee:          {100, "일반사원"},
}

// priorityOrder lists every role from most to least privileged.
var priorityOrder = []Role{
	Admin,
	BusinessSupport,
	ExecutiveAll,
	ExecutiveType1,
	ExecutiveType4,
	TeamLeaderAll,
	TeamLeaderType1,
	TeamLeaderType4,
	InvestigatorAll,
	InvestigatorType1,
	InvestigatorType4,
	Employee,
}

// All returns every defined role, ordered from most to least privileged.
func All() []Role {
	out := make([]Role, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// Valid reports whether r is one of the twelve defined roles.
func (r Role) Valid() bool {
	_, ok := roleTable[r]
	return ok
}

// Priority returns the role's fixed priority. Unknown role names are treated
// as the lowest possible privilege.
func (r Role) Priority() int {
	info, ok := roleTable[r]
	if !ok {
		return unknownPriority
	}
	return info.priority
}

// DisplayLabel returns the role's fixed display label, or NoPermissionLabel
// for unknown role names.
func (r Role) DisplayLabel() string {
	info, ok := roleTable[r]
	if !ok {
		return NoPermissionLabel
	}
	return info.label
}

func (r Role) String() string {
	return string(r)
}
