// ledgerctl consulta y mantiene el libro de inventario desde la terminal: inventario por
// ubicación, historial, asignaciones, reconciliación de contadores y estado en PDF.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand(newCommandContext())
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
