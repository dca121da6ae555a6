package entity

import "time"

// DistributorReturn devolución de unidades físicas de un distribuidor a la bodega del sello.
type DistributorReturn struct {
	ID            string
	LabelID       string
	DistributorID string
	ReturnDate    time.Time
	Notes         string
	LineItems     []ReturnLineItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReturnLineItem línea de devolución.
type ReturnLineItem struct {
	ID        string
	ReleaseID string
	Format    string
	Quantity  int
}
