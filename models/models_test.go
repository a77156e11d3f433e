package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDonationStatusTransitions(t *testing.T) {
	assert.True(t, DonationPending.CanTransitionTo(DonationCompleted))
	assert.True(t, DonationPending.CanTransitionTo(DonationFailed))

	// Terminal states never move, in particular never backward.
	assert.False(t, DonationCompleted.CanTransitionTo(DonationPending))
	assert.False(t, DonationCompleted.CanTransitionTo(DonationFailed))
	assert.False(t, DonationFailed.CanTransitionTo(DonationPending))
	assert.False(t, DonationFailed.CanTransitionTo(DonationCompleted))
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "staff", "donor"} {
		role, err := ParseRole(s)
		assert.NoError(t, err)
		assert.Equal(t, Role(s), role)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)

	assert.True(t, RoleAdmin.CanManage())
	assert.True(t, RoleStaff.CanManage())
	assert.False(t, RoleDonor.CanManage())
}
