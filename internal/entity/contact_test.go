package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactBackfill_NeverOverwrites(t *testing.T) {
	c := &Contact{Email: "a@x.com", FirstName: "Jane"}

	changed := c.Backfill(Contact{FirstName: "Janet", LastName: "Doe"})

	assert.True(t, changed)
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)
}

func TestContactBackfill_Phone(t *testing.T) {
	c := &Contact{Email: "a@x.com"}

	changed := c.Backfill(Contact{Phone: "+15551234567", PhoneHash: "abc"})

	assert.True(t, changed)
	assert.Equal(t, "+15551234567", c.Phone)
	assert.Equal(t, "abc", c.PhoneHash)

	assert.False(t, c.Backfill(Contact{Phone: "+15559999999", PhoneHash: "def"}))
	assert.Equal(t, "+15551234567", c.Phone)
}

func TestContactBackfill_NothingToDo(t *testing.T) {
	c := &Contact{Email: "a@x.com", FirstName: "Jane", LastName: "Doe", Phone: "+1", PhoneHash: "h"}
	assert.False(t, c.Backfill(Contact{Email: "b@x.com", FirstName: "X"}))
	assert.Equal(t, "a@x.com", c.Email)
}

func TestDeliveryReport_Failed(t *testing.T) {
	r := DeliveryReport{Attempts: []DeliveryAttempt{
		{Sink: "ghl", Outcome: OutcomeFailure},
		{Sink: "ga4", Outcome: OutcomeSuccess},
	}}
	assert.Len(t, r.Failed(), 1)
	assert.False(t, r.AllSucceeded())
}
