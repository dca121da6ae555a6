package dto

// ErrorResponse cuerpo de error HTTP.
// Requested/Available solo vienen en INSUFFICIENT_INVENTORY; Fields en errores de validación.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Requested *int              `json:"requested,omitempty"`
	Available *int              `json:"available,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// ListResponse envoltorio de listados.
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// NewList arma un ListResponse; nunca serializa items como null.
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Total: len(items), Items: items}
}
