package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/omt-labs/labelledger/internal/application/dto"
	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// LedgerHandler expone tiradas, asignaciones y consultas del libro de movimientos.
type LedgerHandler struct {
	runs        *inventory.ProductionRunUseCase
	allocations *inventory.AllocationUseCase
	queries     *inventory.QueryUseCase
	statements  *inventory.StatementUseCase
	log         zerolog.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(
	runs *inventory.ProductionRunUseCase,
	allocations *inventory.AllocationUseCase,
	queries *inventory.QueryUseCase,
	statements *inventory.StatementUseCase,
	log zerolog.Logger,
) *LedgerHandler {
	return &LedgerHandler{runs: runs, allocations: allocations, queries: queries, statements: statements, log: log}
}

// CreateProductionRun godoc
// @Summary      Registrar tirada de producción
// @Tags         production-runs
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductionRunRequest  true  "release_id, format, quantity"
// @Success      201   {object}  dto.ProductionRunResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/production-runs [post]
func (h *LedgerHandler) CreateProductionRun(c *fiber.Ctx) error {
	var in dto.CreateProductionRunRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	input := inventory.CreateProductionRunInput{
		ReleaseID:    in.ReleaseID,
		Format:       in.Format,
		Description:  in.Description,
		Manufacturer: in.Manufacturer,
		Quantity:     in.Quantity,
	}
	if in.ManufacturingDate != nil {
		input.ManufacturingDate = *in.ManufacturingDate
	}
	run, err := h.runs.Create(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToProductionRunResponse(run))
}

// GetProductionRun godoc
// @Summary      Obtener tirada
// @Tags         production-runs
// @Produce      json
// @Param        id   path  string  true  "ID de la tirada"
// @Success      200  {object}  dto.ProductionRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production-runs/{id} [get]
func (h *LedgerHandler) GetProductionRun(c *fiber.Ctx) error {
	run, err := h.runs.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToProductionRunResponse(run))
}

// DeleteProductionRun godoc
// @Summary      Eliminar tirada
// @Description  Solo se puede eliminar una tirada sin asignaciones.
// @Tags         production-runs
// @Param        id   path  string  true  "ID de la tirada"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/production-runs/{id} [delete]
func (h *LedgerHandler) DeleteProductionRun(c *fiber.Ctx) error {
	if err := h.runs.Delete(c.Context(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListProductionRunsByRelease godoc
// @Summary      Tiradas de un lanzamiento
// @Tags         production-runs
// @Produce      json
// @Param        id   path  string  true  "ID del lanzamiento"
// @Success      200  {object}  dto.ListResponse[dto.ProductionRunResponse]
// @Router       /api/releases/{id}/production-runs [get]
func (h *LedgerHandler) ListProductionRunsByRelease(c *fiber.Ctx) error {
	list, err := h.runs.ListByRelease(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.MapSlice(list, dto.ToProductionRunResponse)))
}

// LatestProductionRun godoc
// @Summary      Tirada más reciente de un lanzamiento en un formato
// @Tags         production-runs
// @Produce      json
// @Param        id      path   string  true  "ID del lanzamiento"
// @Param        format  query  string  true  "VINYL, CD, CASSETTE o DIGITAL"
// @Success      200  {object}  dto.ProductionRunResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/releases/{id}/production-runs/latest [get]
func (h *LedgerHandler) LatestProductionRun(c *fiber.Ctx) error {
	run, err := h.runs.FindMostRecent(c.Context(), c.Params("id"), c.Query("format"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToProductionRunResponse(run))
}

// CreateAllocation godoc
// @Summary      Asignar unidades a un distribuidor
// @Tags         allocations
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la tirada"
// @Param        body  body  dto.CreateAllocationRequest  true  "distributor_id, quantity"
// @Success      201   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production-runs/{id}/allocations [post]
func (h *LedgerHandler) CreateAllocation(c *fiber.Ctx) error {
	var in dto.CreateAllocationRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	alloc, err := h.allocations.CreateAllocation(c.Context(), inventory.CreateAllocationInput{
		ProductionRunID: c.Params("id"),
		DistributorID:   in.DistributorID,
		Quantity:        in.Quantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToAllocationResponse(alloc))
}

// ListAllocations godoc
// @Summary      Asignaciones de una tirada con totales
// @Tags         allocations
// @Produce      json
// @Param        id   path  string  true  "ID de la tirada"
// @Success      200  {object}  dto.AllocationListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production-runs/{id}/allocations [get]
func (h *LedgerHandler) ListAllocations(c *fiber.Ctx) error {
	id := c.Params("id")
	list, err := h.allocations.GetAllocationsForProductionRun(c.Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	total, err := h.allocations.GetTotalAllocated(c.Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	unallocated, err := h.allocations.GetUnallocatedQuantity(c.Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AllocationListResponse{
		ListResponse:   dto.NewList(dto.MapSlice(list, dto.ToAllocationResponse)),
		TotalAllocated: total,
		Unallocated:    unallocated,
	})
}

// GetInventory godoc
// @Summary      Inventario de una tirada en una ubicación
// @Tags         inventory
// @Produce      json
// @Param        id        path   string  true  "ID de la tirada"
// @Param        location  query  string  true  "warehouse, external o distributor:<id>"
// @Success      200  {object}  dto.InventoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/production-runs/{id}/inventory [get]
func (h *LedgerHandler) GetInventory(c *fiber.Ctx) error {
	raw := c.Query("location")
	loc, ok := entity.ParseLocation(raw)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: fmt.Sprintf("ubicación inválida %q", raw),
		})
	}
	id := c.Params("id")
	qty, err := h.queries.CurrentInventory(c.Context(), id, loc)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.InventoryResponse{ProductionRunID: id, Location: loc.String(), Quantity: qty})
}

// ListMovements godoc
// @Summary      Historial de movimientos de una tirada
// @Tags         inventory
// @Produce      json
// @Param        id   path  string  true  "ID de la tirada"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Router       /api/production-runs/{id}/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	list, err := h.queries.MovementsForProductionRun(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.MapSlice(list, dto.ToMovementResponse)))
}

// GetSummary godoc
// @Summary      Resumen de una tirada
// @Tags         inventory
// @Produce      json
// @Param        id   path  string  true  "ID de la tirada"
// @Success      200  {object}  dto.SummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production-runs/{id}/summary [get]
func (h *LedgerHandler) GetSummary(c *fiber.Ctx) error {
	s, err := h.queries.Summary(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToSummaryResponse(s))
}

// GetStatementPDF godoc
// @Summary      Estado de la tirada en PDF
// @Tags         inventory
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la tirada"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/production-runs/{id}/statement.pdf [get]
func (h *LedgerHandler) GetStatementPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	b, err := h.statements.RenderPDF(c.Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="tirada-%s.pdf"`, id))
	return c.Send(b)
}
