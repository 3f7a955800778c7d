package wizard

import "fmt"

// ReconcileOutcome compares placed seats against ticket inventory for a
// premium event. Publishing requires Balanced.
type ReconcileOutcome struct {
	Balanced   bool   `json:"balanced"`
	SeatCount  int    `json:"seat_count"`
	TicketQty  int    `json:"ticket_qty"`
	Difference int    `json:"difference"`
	Message    string `json:"message"`
}

// Reconcile is pure: same inputs, same outcome. seatCount is the number of
// placed seats, ticketQuantities the per-type quantities.
func Reconcile(seatCount int, ticketQuantities []uint) ReconcileOutcome {
	total := 0
	for _, q := range ticketQuantities {
		total += int(q)
	}
	diff := seatCount - total
	out := ReconcileOutcome{
		SeatCount:  seatCount,
		TicketQty:  total,
		Difference: diff,
	}
	switch {
	case diff == 0:
		out.Balanced = true
		out.Message = fmt.Sprintf("%d seats match %d tickets", seatCount, total)
	case diff > 0:
		out.Message = fmt.Sprintf("%d seats have no ticket assigned: add %d more tickets or remove seats", diff, diff)
	default:
		out.Message = fmt.Sprintf("%d tickets exceed the %d placed seats: remove %d tickets or place more seats", total, seatCount, -diff)
	}
	return out
}
