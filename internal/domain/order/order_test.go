package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusPaid.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("shipped").Valid())
	assert.False(t, Status("").Valid())
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCash, PaymentCreditCard, PaymentMomo, PaymentVNPay} {
		assert.True(t, m.Valid(), "%s", m)
	}
	assert.False(t, PaymentMethod("paypal").Valid())
}

func TestTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"pending to paid", StatusPending, StatusPaid, false},
		{"pending to cancelled", StatusPending, StatusCancelled, false},
		{"paid is terminal", StatusPaid, StatusCancelled, true},
		{"cancelled is terminal", StatusCancelled, StatusPaid, true},
		{"no going back", StatusPaid, StatusPending, true},
		{"unknown target", StatusPending, Status("shipped"), true},
		{"self transition", StatusPending, StatusPending, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			err := o.TransitionTo(tt.to)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, o.Status, "failed transition must not change status")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.to, o.Status)
			}
		})
	}
}
