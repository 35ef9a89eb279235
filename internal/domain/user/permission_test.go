package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	finance := Actor{UserID: "u-1", Role: RoleFinanceOfficer}

	assert.NoError(t, Authorize(finance, PermissionPayrollLock))
	assert.ErrorIs(t, Authorize(finance, PermissionPayrollAdjust), ErrInsufficientPermissions)
	assert.ErrorIs(t, Authorize(Actor{Role: RoleOwner}, PermissionPayrollView), ErrActorRequired)
	assert.ErrorIs(t, Authorize(Actor{UserID: "u-2", Role: RoleEmployee}, PermissionPayrollView), ErrInsufficientPermissions)
	assert.ErrorIs(t, Authorize(Actor{UserID: "u-3", Role: "intern"}, PermissionPayrollView), ErrInsufficientPermissions)
}

func TestSegregationOfDuties(t *testing.T) {
	assert.False(t, HasPermission(RolePayrollSpecialist, PermissionPayrollManagerReview))
	assert.False(t, HasPermission(RolePayrollSpecialist, PermissionPayrollLock))
	assert.False(t, HasPermission(RolePayrollManager, PermissionPayrollFinanceReview))
	assert.False(t, HasPermission(RoleFinanceOfficer, PermissionPayrollCalculate))
	assert.False(t, HasPermission(RoleSystem, PermissionPayrollCalculate))
	assert.True(t, HasPermission(RoleOwner, PermissionPayrollUnfreeze))
}

func TestActorContext(t *testing.T) {
	_, err := ActorFromContext(context.Background())
	assert.ErrorIs(t, err, ErrActorRequired)

	want := Actor{UserID: "u-1", Role: RolePayrollManager}
	got, err := ActorFromContext(NewContext(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
