package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/workflow"
)

func TestMatrixIsExhaustivelyKeyed(t *testing.T) {
	valid := make(map[domain.Status]bool, len(domain.AllStatuses))
	for _, status := range domain.AllStatuses {
		valid[status] = true
	}

	for _, status := range domain.AllStatuses {
		for _, role := range domain.AllRoles {
			targets := workflow.AllowedTransitions(status, role)
			assert.NotNil(t, targets, "missing matrix entry for %s/%s", status, role)
			for _, target := range targets {
				assert.True(t, valid[target], "unknown target %s from %s/%s", target, status, role)
				assert.NotEqual(t, status, target, "self transition from %s/%s", status, role)
			}
		}
	}
}

func TestTerminalStatusesAdmitNoTransitions(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusInvoiced, domain.StatusCancelled} {
		for _, role := range domain.AllRoles {
			assert.Empty(t, workflow.AllowedTransitions(status, role),
				"terminal status %s must be final for role %s", status, role)
		}
	}
}

func TestCompletedOnlyMovesToInvoicedByPlatformAdmin(t *testing.T) {
	assert.Equal(t, []domain.Status{domain.StatusInvoiced},
		workflow.AllowedTransitions(domain.StatusCompleted, domain.RolePlatformAdmin))

	for _, role := range []domain.Role{domain.RoleOrgAdmin, domain.RoleOrgMember, domain.RoleEndUser} {
		assert.Empty(t, workflow.AllowedTransitions(domain.StatusCompleted, role))
	}
}

func TestOrgAdminAndMemberHaveIdenticalRights(t *testing.T) {
	for _, status := range domain.AllStatuses {
		assert.Equal(t,
			workflow.AllowedTransitions(status, domain.RoleOrgAdmin),
			workflow.AllowedTransitions(status, domain.RoleOrgMember),
			"org roles diverge at %s", status)
	}
}

func TestSchedulingFromNewIsPlatformOnly(t *testing.T) {
	assert.False(t, workflow.CanTransition(domain.StatusNew, domain.StatusScheduled, domain.RoleOrgAdmin))
	assert.True(t, workflow.CanTransition(domain.StatusNew, domain.StatusScheduled, domain.RolePlatformAdmin))
}

func TestOrgStaffMayApproveAndCancelQuotes(t *testing.T) {
	assert.True(t, workflow.CanTransition(domain.StatusWaitingApproval, domain.StatusApproved, domain.RoleOrgMember))
	assert.True(t, workflow.CanTransition(domain.StatusWaitingApproval, domain.StatusCancelled, domain.RoleOrgMember))
	assert.False(t, workflow.CanTransition(domain.StatusWaitingApproval, domain.StatusApproved, domain.RoleEndUser))
}

func TestRestrictedFieldsArePlatformOnly(t *testing.T) {
	assert.True(t, workflow.CanEditRestrictedFields(domain.RolePlatformAdmin))
	assert.False(t, workflow.CanEditRestrictedFields(domain.RoleOrgAdmin))
	assert.False(t, workflow.CanEditRestrictedFields(domain.RoleOrgMember))
	assert.False(t, workflow.CanEditRestrictedFields(domain.RoleEndUser))
}
