package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/omt-labs/labelledger/internal/application/sales"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// SaleLineRequest línea de venta.
type SaleLineRequest struct {
	ReleaseID string          `json:"release_id" validate:"required"`
	Format    string          `json:"format" validate:"required,oneof=VINYL CD CASSETTE DIGITAL"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Currency  string          `json:"currency" validate:"omitempty,len=3,uppercase"`
}

// RegisterSaleRequest body para POST /api/sales.
type RegisterSaleRequest struct {
	LabelID       string            `json:"label_id" validate:"required"`
	DistributorID string            `json:"distributor_id"`
	SaleDate      *time.Time        `json:"sale_date"`
	Channel       string            `json:"channel" validate:"required,oneof=DIRECT DISTRIBUTOR EVENT RECORD_STORE RETAIL"`
	Notes         string            `json:"notes" validate:"max=2000"`
	LineItems     []SaleLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

// UpdateSaleRequest body para PUT /api/sales/:id.
type UpdateSaleRequest struct {
	SaleDate  *time.Time        `json:"sale_date"`
	Notes     string            `json:"notes" validate:"max=2000"`
	LineItems []SaleLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

// SaleLineResponse línea de venta.
type SaleLineResponse struct {
	ID        string          `json:"id"`
	ReleaseID string          `json:"release_id"`
	Format    string          `json:"format"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SaleResponse venta.
type SaleResponse struct {
	ID            string             `json:"id"`
	LabelID       string             `json:"label_id"`
	DistributorID string             `json:"distributor_id"`
	SaleDate      time.Time          `json:"sale_date"`
	Channel       string             `json:"channel"`
	Notes         string             `json:"notes"`
	Currency      string             `json:"currency"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	LineItems     []SaleLineResponse `json:"line_items"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// RevenueResponse ingresos de un sello por moneda.
type RevenueResponse struct {
	LabelID string                     `json:"label_id"`
	Totals  map[string]decimal.Decimal `json:"totals"`
}

// ReturnLineRequest línea de devolución.
type ReturnLineRequest struct {
	ReleaseID string `json:"release_id" validate:"required"`
	Format    string `json:"format" validate:"required,oneof=VINYL CD CASSETTE DIGITAL"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// RegisterReturnRequest body para POST /api/returns.
type RegisterReturnRequest struct {
	LabelID       string              `json:"label_id" validate:"required"`
	DistributorID string              `json:"distributor_id" validate:"required"`
	ReturnDate    *time.Time          `json:"return_date"`
	Notes         string              `json:"notes" validate:"max=2000"`
	LineItems     []ReturnLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

// UpdateReturnRequest body para PUT /api/returns/:id.
type UpdateReturnRequest struct {
	ReturnDate *time.Time          `json:"return_date"`
	Notes      string              `json:"notes" validate:"max=2000"`
	LineItems  []ReturnLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

// ReturnLineResponse línea de devolución.
type ReturnLineResponse struct {
	ID        string `json:"id"`
	ReleaseID string `json:"release_id"`
	Format    string `json:"format"`
	Quantity  int    `json:"quantity"`
}

// ReturnResponse devolución.
type ReturnResponse struct {
	ID            string               `json:"id"`
	LabelID       string               `json:"label_id"`
	DistributorID string               `json:"distributor_id"`
	ReturnDate    time.Time            `json:"return_date"`
	Notes         string               `json:"notes"`
	LineItems     []ReturnLineResponse `json:"line_items"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ToRegisterSaleInput adapta el request al caso de uso.
func (r RegisterSaleRequest) ToRegisterSaleInput() sales.RegisterSaleInput {
	return sales.RegisterSaleInput{
		LabelID:       r.LabelID,
		DistributorID: r.DistributorID,
		SaleDate:      timeOrZero(r.SaleDate),
		Channel:       r.Channel,
		Notes:         r.Notes,
		LineItems:     saleLines(r.LineItems),
	}
}

// ToUpdateSaleInput adapta el request al caso de uso.
func (r UpdateSaleRequest) ToUpdateSaleInput() sales.UpdateSaleInput {
	return sales.UpdateSaleInput{
		SaleDate:  timeOrZero(r.SaleDate),
		Notes:     r.Notes,
		LineItems: saleLines(r.LineItems),
	}
}

// ToRegisterReturnInput adapta el request al caso de uso.
func (r RegisterReturnRequest) ToRegisterReturnInput() sales.RegisterReturnInput {
	return sales.RegisterReturnInput{
		LabelID:       r.LabelID,
		DistributorID: r.DistributorID,
		ReturnDate:    timeOrZero(r.ReturnDate),
		Notes:         r.Notes,
		LineItems:     returnLines(r.LineItems),
	}
}

// ToUpdateReturnInput adapta el request al caso de uso.
func (r UpdateReturnRequest) ToUpdateReturnInput() sales.UpdateReturnInput {
	return sales.UpdateReturnInput{
		ReturnDate: timeOrZero(r.ReturnDate),
		Notes:      r.Notes,
		LineItems:  returnLines(r.LineItems),
	}
}

// ToSaleResponse mapea la entidad.
func ToSaleResponse(s *entity.Sale) SaleResponse {
	out := SaleResponse{
		ID:            s.ID,
		LabelID:       s.LabelID,
		DistributorID: s.DistributorID,
		SaleDate:      s.SaleDate,
		Channel:       s.Channel,
		Notes:         s.Notes,
		Currency:      s.Currency,
		TotalAmount:   s.TotalAmount,
		LineItems:     make([]SaleLineResponse, 0, len(s.LineItems)),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for _, li := range s.LineItems {
		out.LineItems = append(out.LineItems, SaleLineResponse(li))
	}
	return out
}

// ToReturnResponse mapea la entidad.
func ToReturnResponse(r *entity.DistributorReturn) ReturnResponse {
	out := ReturnResponse{
		ID:            r.ID,
		LabelID:       r.LabelID,
		DistributorID: r.DistributorID,
		ReturnDate:    r.ReturnDate,
		Notes:         r.Notes,
		LineItems:     make([]ReturnLineResponse, 0, len(r.LineItems)),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	for _, li := range r.LineItems {
		out.LineItems = append(out.LineItems, ReturnLineResponse(li))
	}
	return out
}

func saleLines(in []SaleLineRequest) []sales.SaleLineInput {
	out := make([]sales.SaleLineInput, len(in))
	for i, l := range in {
		out[i] = sales.SaleLineInput{
			ReleaseID: l.ReleaseID,
			Format:    l.Format,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Currency:  l.Currency,
		}
	}
	return out
}

func returnLines(in []ReturnLineRequest) []sales.ReturnLineInput {
	out := make([]sales.ReturnLineInput, len(in))
	for i, l := range in {
		out[i] = sales.ReturnLineInput(l)
	}
	return out
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
