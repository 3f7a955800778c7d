package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileBalanced(t *testing.T) {
	out := Reconcile(150, []uint{100, 50})

	assert.True(t, out.Balanced)
	assert.Equal(t, 0, out.Difference)
	assert.Equal(t, "150 seats match 150 tickets", out.Message)
}

func TestReconcileSeatSurplus(t *testing.T) {
	out := Reconcile(200, []uint{100, 50})

	assert.False(t, out.Balanced)
	assert.Equal(t, 50, out.Difference)
	assert.Contains(t, out.Message, "50 seats have no ticket assigned")
}

func TestReconcileTicketSurplus(t *testing.T) {
	out := Reconcile(100, []uint{100, 50})

	assert.False(t, out.Balanced)
	assert.Equal(t, -50, out.Difference)
	assert.Contains(t, out.Message, "remove 50 tickets")
}

func TestReconcileEmptyInventory(t *testing.T) {
	out := Reconcile(0, nil)

	assert.True(t, out.Balanced)
	assert.Equal(t, 0, out.SeatCount)
	assert.Equal(t, 0, out.TicketQty)
}

func TestReconcileIsDeterministic(t *testing.T) {
	a := Reconcile(42, []uint{20, 22})
	b := Reconcile(42, []uint{20, 22})
	assert.Equal(t, a, b)
}
