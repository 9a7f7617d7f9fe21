package member

import "sort"

// Bureau roles, from the highest in the hierarchy to the lowest.
const (
	BureauTeamLeader          = "Team Leader"
	BureauCoLeader            = "Co-Leader"
	BureauPartnershipsManager = "Partnerships Manager"
	BureauFinanceManager      = "Finance Manager"
	BureauRDManager           = "R&D Manager"
	BureauHRManager           = "HR Manager"
	BureauOperationsManager   = "Operations Manager"
	BureauMarketingManager    = "Marketing & Media Manager"
	BureauProjectManager      = "Project Manager"
	BureauBasicMember         = "Basic Member"

	DefaultBureauRole = BureauBasicMember
)

var (
	BureauRoles = []string{
		BureauTeamLeader,
		BureauCoLeader,
		BureauPartnershipsManager,
		BureauFinanceManager,
		BureauRDManager,
		BureauHRManager,
		BureauOperationsManager,
		BureauMarketingManager,
		BureauProjectManager,
		BureauBasicMember,
	}

	bureauRolePriorities = getBureauRolePriorities()
)

func getBureauRolePriorities() map[string]int {
	prios := make(map[string]int, len(BureauRoles))
	for i, role := range BureauRoles {
		prios[role] = len(BureauRoles) - i
	}
	return prios
}

// BureauRolePriority returns the rank of role in the hierarchy (higher is more senior), 0 if unknown.
func BureauRolePriority(role string) int {
	return bureauRolePriorities[role]
}

func IsBureauRole(role string) bool {
	_, ok := bureauRolePriorities[role]
	return ok
}

// SortByBureauRole orders users by bureau hierarchy then by name.
func SortByBureauRole(users []User) {
	sort.SliceStable(users, func(i, j int) bool {
		pi, pj := BureauRolePriority(users[i].BureauRole), BureauRolePriority(users[j].BureauRole)
		if pi != pj {
			return pi > pj
		}
		return users[i].Name() < users[j].Name()
	})
}
