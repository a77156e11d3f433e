package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/tumaini/giving-portal-go/models"
)

func TestMarshalFieldsStripsServerOwnedKeys(t *testing.T) {
	donation := models.Donation{
		Amount:   50,
		Currency: "USD",
		Type:     models.DonationOneTime,
		Status:   models.DonationCompleted,
		IsGuest:  true,
	}

	fields, id, err := marshalFields(donation)
	require.NoError(t, err)

	assert.False(t, id.IsZero(), "a zero _id must be generated")
	assert.NotContains(t, fields, "_id")
	assert.NotContains(t, fields, "created_at")
	assert.NotContains(t, fields, "updated_at")
	assert.Equal(t, 50.0, fields["amount"])
	assert.Equal(t, "USD", fields["currency"])
}
