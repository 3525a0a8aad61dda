package workflow

import "github.com/spec-kit/workorder-service/internal/domain"

// transitionKey addresses one cell of the transition matrix.
type transitionKey struct {
	from domain.Status
	role domain.Role
}

// matrix maps (current status, role) to the statuses reachable in one
// step. It is built once at init and never mutated. The same table is
// re-enforced by a storage-layer trigger (migrations/0002) so a bug in
// either layer is caught by the other; keep both in sync.
var matrix map[transitionKey][]domain.Status

func init() {
	platformAdmin := map[domain.Status][]domain.Status{
		domain.StatusNew:             {domain.StatusSurveying, domain.StatusQuoted, domain.StatusScheduled, domain.StatusCancelled},
		domain.StatusSurveying:       {domain.StatusQuoted, domain.StatusScheduled, domain.StatusCancelled},
		domain.StatusQuoted:          {domain.StatusWaitingApproval, domain.StatusCancelled},
		domain.StatusWaitingApproval: {domain.StatusApproved, domain.StatusCancelled},
		domain.StatusApproved:        {domain.StatusScheduled, domain.StatusCancelled},
		domain.StatusScheduled:       {domain.StatusInProgress, domain.StatusCancelled},
		domain.StatusInProgress:      {domain.StatusCompleted, domain.StatusCancelled},
		domain.StatusCompleted:       {domain.StatusInvoiced},
		domain.StatusInvoiced:        {},
		domain.StatusCancelled:       {},
	}

	// Organization admins and members carry identical rights. The
	// upstream system grants them the same cancellation reach in
	// several states; preserved as-is pending product clarification.
	orgStaff := map[domain.Status][]domain.Status{
		domain.StatusNew:             {domain.StatusCancelled},
		domain.StatusSurveying:       {domain.StatusCancelled},
		domain.StatusQuoted:          {domain.StatusCancelled},
		domain.StatusWaitingApproval: {domain.StatusApproved, domain.StatusCancelled},
		domain.StatusApproved:        {},
		domain.StatusScheduled:       {},
		domain.StatusInProgress:      {},
		domain.StatusCompleted:       {},
		domain.StatusInvoiced:        {},
		domain.StatusCancelled:       {},
	}

	endUser := map[domain.Status][]domain.Status{
		domain.StatusNew:             {domain.StatusCancelled},
		domain.StatusSurveying:       {},
		domain.StatusQuoted:          {},
		domain.StatusWaitingApproval: {},
		domain.StatusApproved:        {},
		domain.StatusScheduled:       {},
		domain.StatusInProgress:      {},
		domain.StatusCompleted:       {},
		domain.StatusInvoiced:        {},
		domain.StatusCancelled:       {},
	}

	byRole := map[domain.Role]map[domain.Status][]domain.Status{
		domain.RolePlatformAdmin: platformAdmin,
		domain.RoleOrgAdmin:      orgStaff,
		domain.RoleOrgMember:     orgStaff,
		domain.RoleEndUser:       endUser,
	}

	matrix = make(map[transitionKey][]domain.Status, len(domain.AllStatuses)*len(domain.AllRoles))
	for role, table := range byRole {
		for _, status := range domain.AllStatuses {
			targets := table[status]
			if targets == nil {
				targets = []domain.Status{}
			}
			matrix[transitionKey{from: status, role: role}] = targets
		}
	}
}

// AllowedTransitions returns the statuses the role may move a work
// order to from the given status. Pure lookup, possibly empty.
func AllowedTransitions(from domain.Status, role domain.Role) []domain.Status {
	targets := matrix[transitionKey{from: from, role: role}]
	out := make([]domain.Status, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether the role may move from -> to in one step.
func CanTransition(from, to domain.Status, role domain.Role) bool {
	for _, candidate := range matrix[transitionKey{from: from, role: role}] {
		if candidate == to {
			return true
		}
	}
	return false
}
