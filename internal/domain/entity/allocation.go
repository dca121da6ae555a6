package entity

import "time"

// Allocation registra un traslado bodega -> distribuidor. UnitsSold se recalcula desde el
// libro de movimientos (ver inventory.ReconcileUnitsSold), nunca se incrementa a mano.
type Allocation struct {
	ID              string
	ProductionRunID string
	DistributorID   string
	Quantity        int
	UnitsSold       int
	AllocatedAt     time.Time
}

// DistributeUnitsSold reparte sold entre las asignaciones en orden FIFO (más antigua primero),
// cada una con tope en su cantidad; el remanente queda en la última.
// Devuelve los nuevos valores en el mismo orden que allocations.
func DistributeUnitsSold(allocations []*Allocation, sold int) []int {
	out := make([]int, len(allocations))
	remaining := sold
	for i, a := range allocations {
		take := remaining
		if take > a.Quantity && i < len(allocations)-1 {
			take = a.Quantity
		}
		if take < 0 {
			take = 0
		}
		out[i] = take
		remaining -= take
	}
	return out
}
