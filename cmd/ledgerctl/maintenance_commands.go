package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/pkg/config"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile [production-run-id]",
		Short: "Recalcula las unidades vendidas de las asignaciones desde el libro",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("indique una tirada o --all")
			}
			svc, err := ctx.ensureServices(cmd.Context())
			if err != nil {
				return err
			}
			var results []inventory.ReconcileResult
			if all {
				results, err = svc.reconcile.ReconcileAll(cmd.Context())
			} else {
				var res inventory.ReconcileResult
				res, err = svc.reconcile.Reconcile(cmd.Context(), args[0])
				results = []inventory.ReconcileResult{res}
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.ProductionRunID, itoa(r.Updated)})
			}
			printTable(cmd, []string{"Tirada", "Asignaciones corregidas"}, rows, []columnAlignment{alignLeft, alignRight})
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reconciliar todas las tiradas con asignaciones")
	return cmd
}

func newStatementCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "statement <production-run-id>",
		Short: "Genera el estado de la tirada en PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices(cmd.Context())
			if err != nil {
				return err
			}
			b, err := svc.statements.RenderPDF(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = fmt.Sprintf("tirada-%s.pdf", args[0])
			}
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return fmt.Errorf("escribir %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Estado escrito en %s (%d bytes)\n", path, len(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archivo de salida (por defecto tirada-<id>.pdf)")
	return cmd
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog-file>",
		Short: "Carga sellos, lanzamientos y distribuidores desde un archivo YAML, JSON o TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := config.LoadCatalog(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.ensureServices(cmd.Context())
			if err != nil {
				return err
			}
			if svc.store == nil {
				return errors.New("no hay almacén abierto")
			}
			if err := svc.store.Seed(cmd.Context(), cat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catálogo cargado: %d sellos, %d lanzamientos, %d distribuidores\n",
				len(cat.Labels), len(cat.Releases), len(cat.Distributors))
			return nil
		},
	}
}
