package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canales de venta (tipo de distribuidor).
const (
	ChannelDirect      = "DIRECT"
	ChannelDistributor = "DISTRIBUTOR"
	ChannelEvent       = "EVENT"
	ChannelRecordStore = "RECORD_STORE"
	ChannelRetail      = "RETAIL"
)

// ValidChannel indica si c es un canal conocido.
func ValidChannel(c string) bool {
	switch c {
	case ChannelDirect, ChannelDistributor, ChannelEvent, ChannelRecordStore, ChannelRetail:
		return true
	}
	return false
}

// Sale es una venta atribuida a un distribuidor. El distribuidor y el canal no cambian
// después del registro; cada línea genera exactamente un movimiento SALE.
type Sale struct {
	ID            string
	LabelID       string
	DistributorID string
	SaleDate      time.Time
	Channel       string
	Notes         string
	Currency      string
	LineItems     []SaleLineItem
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleLineItem línea de venta: lanzamiento, formato, cantidad y precio unitario.
type SaleLineItem struct {
	ID        string
	ReleaseID string
	Format    string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// RecalculateTotals recalcula el total de cada línea y el total de la venta.
func (s *Sale) RecalculateTotals() {
	total := decimal.Zero
	for i := range s.LineItems {
		li := &s.LineItems[i]
		li.LineTotal = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
		total = total.Add(li.LineTotal)
	}
	s.TotalAmount = total
}
