package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/omt-labs/labelledger/internal/application/dto"
	"github.com/omt-labs/labelledger/internal/application/sales"
)

// SalesHandler ventas y devoluciones de distribuidores.
type SalesHandler struct {
	sales   *sales.SaleUseCase
	returns *sales.ReturnUseCase
	log     zerolog.Logger
}

// NewSalesHandler construye el handler.
func NewSalesHandler(saleUC *sales.SaleUseCase, returnUC *sales.ReturnUseCase, log zerolog.Logger) *SalesHandler {
	return &SalesHandler{sales: saleUC, returns: returnUC, log: log}
}

// RegisterSale godoc
// @Summary      Registrar venta
// @Description  Todas las líneas se validan antes de persistir; si una falla no se guarda nada.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterSaleRequest  true  "label_id, channel, line_items"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SalesHandler) RegisterSale(c *fiber.Ctx) error {
	var in dto.RegisterSaleRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	sale, err := h.sales.RegisterSale(c.Context(), in.ToRegisterSaleInput())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToSaleResponse(sale))
}

// GetSale godoc
// @Summary      Obtener venta
// @Tags         sales
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SalesHandler) GetSale(c *fiber.Ctx) error {
	sale, err := h.sales.GetSale(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSaleResponse(sale))
}

// UpdateSale godoc
// @Summary      Actualizar venta
// @Description  Reemplaza las líneas; los movimientos anteriores se liberan antes de validar.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "line_items"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [put]
func (h *SalesHandler) UpdateSale(c *fiber.Ctx) error {
	var in dto.UpdateSaleRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	sale, err := h.sales.UpdateSale(c.Context(), c.Params("id"), in.ToUpdateSaleInput())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSaleResponse(sale))
}

// DeleteSale godoc
// @Summary      Eliminar venta
// @Tags         sales
// @Param        id   path  string  true  "ID de la venta"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [delete]
func (h *SalesHandler) DeleteSale(c *fiber.Ctx) error {
	if err := h.sales.DeleteSale(c.Context(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSalesByLabel godoc
// @Summary      Ventas de un sello
// @Tags         sales
// @Produce      json
// @Param        id   path  string  true  "ID del sello"
// @Success      200  {object}  dto.ListResponse[dto.SaleResponse]
// @Router       /api/labels/{id}/sales [get]
func (h *SalesHandler) ListSalesByLabel(c *fiber.Ctx) error {
	list, err := h.sales.SalesForLabel(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.MapSlice(list, dto.ToSaleResponse)))
}

// GetRevenue godoc
// @Summary      Ingresos de un sello por moneda
// @Tags         sales
// @Produce      json
// @Param        id   path  string  true  "ID del sello"
// @Success      200  {object}  dto.RevenueResponse
// @Router       /api/labels/{id}/revenue [get]
func (h *SalesHandler) GetRevenue(c *fiber.Ctx) error {
	labelID := c.Params("id")
	totals, err := h.sales.TotalRevenueForLabel(c.Context(), labelID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RevenueResponse{LabelID: labelID, Totals: totals})
}

// RegisterReturn godoc
// @Summary      Registrar devolución de un distribuidor
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterReturnRequest  true  "label_id, distributor_id, line_items"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *SalesHandler) RegisterReturn(c *fiber.Ctx) error {
	var in dto.RegisterReturnRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	ret, err := h.returns.RegisterReturn(c.Context(), in.ToRegisterReturnInput())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToReturnResponse(ret))
}

// GetReturn godoc
// @Summary      Obtener devolución
// @Tags         returns
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *SalesHandler) GetReturn(c *fiber.Ctx) error {
	ret, err := h.returns.GetReturn(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToReturnResponse(ret))
}

// UpdateReturn godoc
// @Summary      Actualizar devolución
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la devolución"
// @Param        body  body  dto.UpdateReturnRequest  true  "line_items"
// @Success      200   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [put]
func (h *SalesHandler) UpdateReturn(c *fiber.Ctx) error {
	var in dto.UpdateReturnRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	id := c.Params("id")
	if err := h.returns.UpdateReturn(c.Context(), id, in.ToUpdateReturnInput()); err != nil {
		return writeError(c, h.log, err)
	}
	ret, err := h.returns.GetReturn(c.Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToReturnResponse(ret))
}

// DeleteReturn godoc
// @Summary      Eliminar devolución
// @Tags         returns
// @Param        id   path  string  true  "ID de la devolución"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [delete]
func (h *SalesHandler) DeleteReturn(c *fiber.Ctx) error {
	if err := h.returns.DeleteReturn(c.Context(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListReturnsByLabel godoc
// @Summary      Devoluciones de un sello
// @Tags         returns
// @Produce      json
// @Param        id   path  string  true  "ID del sello"
// @Success      200  {object}  dto.ListResponse[dto.ReturnResponse]
// @Router       /api/labels/{id}/returns [get]
func (h *SalesHandler) ListReturnsByLabel(c *fiber.Ctx) error {
	list, err := h.returns.ReturnsForLabel(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.MapSlice(list, dto.ToReturnResponse)))
}

// ListReturnsByDistributor godoc
// @Summary      Devoluciones de un distribuidor
// @Tags         returns
// @Produce      json
// @Param        id   path  string  true  "ID del distribuidor"
// @Success      200  {object}  dto.ListResponse[dto.ReturnResponse]
// @Router       /api/distributors/{id}/returns [get]
func (h *SalesHandler) ListReturnsByDistributor(c *fiber.Ctx) error {
	list, err := h.returns.ReturnsForDistributor(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.MapSlice(list, dto.ToReturnResponse)))
}
