package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/omt-labs/labelledger/internal/application/dto"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <production-run-id>",
		Short: "Resumen de una tirada: fabricado, asignado, vendido y existencias por distribuidor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices(cmd.Context())
			if err != nil {
				return err
			}
			s, err := svc.queries.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, dto.ToSummaryResponse(s))
			}
			run := s.ProductionRun
			fmt.Fprintf(cmd.OutOrStdout(), "Tirada %s (%s %s)\n", run.ID, run.ReleaseID, run.Format)
			printTable(cmd,
				[]string{"Fabricado", "Asignado", "Sin asignar", "En bodega", "Vendido", "Devuelto"},
				[][]string{{
					itoa(s.Manufactured), itoa(s.Allocated), itoa(s.Unallocated),
					itoa(s.WarehouseOnHand), itoa(s.SoldExternally), itoa(s.Returned),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			)
			rows := make([][]string, 0, len(s.Distributors))
			for _, d := range s.Distributors {
				rows = append(rows, []string{d.DistributorID, d.Name, itoa(d.Allocated), itoa(d.Sold), itoa(d.Returned), itoa(d.OnHand)})
			}
			printTable(cmd,
				[]string{"Distribuidor", "Nombre", "Asignado", "Vendido", "Devuelto", "En mano"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			)
			return nil
		},
	}
}

func newInventoryCommand(ctx *commandContext) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "inventory <production-run-id>",
		Short: "Inventario de una tirada por ubicación",
		Long: "Sin --location muestra bodega, externo y cada distribuidor con existencias.\n" +
			"Ubicaciones: warehouse, external, distributor:<id>.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices(cmd.Context())
			if err != nil {
				return err
			}
			runID := args[0]

			var locs []entity.Location
			if location != "" {
				loc, ok := entity.ParseLocation(location)
				if !ok {
					return fmt.Errorf("ubicación inválida %q (warehouse, external, distributor:<id>)", location)
				}
				locs = append(locs, loc)
			} else {
				holdings, err := svc.queries.InventoryByDistributor(cmd.Context(), runID)
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(holdings))
				for id := range holdings {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				locs = append(locs, entity.Warehouse(), entity.External())
				for _, id := range ids {
					locs = append(locs, entity.DistributorLocation(id))
				}
			}

			out := make([]dto.InventoryResponse, 0, len(locs))
			for _, loc := range locs {
				qty, err := svc.queries.CurrentInventory(cmd.Context(), runID, loc)
				if err != nil {
					return err
				}
				out = append(out, dto.InventoryResponse{ProductionRunID: runID, Location: loc.String(), Quantity: qty})
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, out)
			}
			rows := make([][]string, 0, len(out))
			for _, inv := range out {
				rows = append(rows, []string{inv.Location, itoa(inv.Quantity)})
			}
			printTable(cmd, []string{"Ubicación", "Cantidad"}, rows, []columnAlignment{alignLeft, alignRight})
			return nil
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "Ubicación a consultar")
	return cmd
}

func newMovementsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "movements <production-run-id>",
		Short: "Historial de movimientos de una tirada, más reciente primero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices(cmd.Context())
			if err != nil {
				return err
			}
			list, err := svc.queries.MovementsForProductionRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, dto.MapSlice(list, dto.ToMovementResponse))
			}
			rows := make([][]string, 0, len(list))
			for _, m := range list {
				rows = append(rows, []string{
					m.OccurredAt.Format("2006-01-02 15:04:05"),
					m.Type, m.From.String(), m.To.String(), itoa(m.Quantity), m.ReferenceID,
				})
			}
			printTable(cmd,
				[]string{"Fecha", "Tipo", "Desde", "Hacia", "Cantidad", "Referencia"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			return nil
		},
	}
}

func newAllocationsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "allocations <production-run-id>",
		Short: "Asignaciones de una tirada con sus unidades vendidas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices(cmd.Context())
			if err != nil {
				return err
			}
			runID := args[0]
			list, err := svc.allocations.GetAllocationsForProductionRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			unallocated, err := svc.allocations.GetUnallocatedQuantity(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				total := 0
				for _, a := range list {
					total += a.Quantity
				}
				return writeJSON(cmd, dto.AllocationListResponse{
					ListResponse:   dto.NewList(dto.MapSlice(list, dto.ToAllocationResponse)),
					TotalAllocated: total,
					Unallocated:    unallocated,
				})
			}
			rows := make([][]string, 0, len(list))
			for _, a := range list {
				rows = append(rows, []string{
					a.AllocatedAt.Format("2006-01-02"), a.DistributorID, itoa(a.Quantity), itoa(a.UnitsSold),
				})
			}
			printTable(cmd,
				[]string{"Fecha", "Distribuidor", "Cantidad", "Vendidas"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Sin asignar: %d\n", unallocated)
			return nil
		},
	}
}
