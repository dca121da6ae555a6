// Package pdf genera el estado imprimible de una tirada de producción.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Lanzamiento + formato  │  Tirada + fecha de emisión │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: fabricado / asignado / sin asignar / bodega / vendido │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DISTRIBUIDORES: asignado | vendido | devuelto | en poder   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS: fecha | tipo | origen -> destino | cantidad    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: código QR con el ID de la tirada                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// maxMovementRows el historial se corta para que el documento no crezca sin límite.
const maxMovementRows = 200

var _ inventory.StatementRenderer = (*MarotoStatementGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoStatementGenerator implementa inventory.StatementRenderer usando Maroto v2.
type MarotoStatementGenerator struct {
	lang language.Tag
}

// writer estado de un render; cases.Caser no se comparte entre goroutines.
type writer struct {
	printer *message.Printer
	title   cases.Caser
}

// NewMarotoStatementGenerator construye el generador. Los números se formatean según lang
// (ej. "es" -> 1.250).
func NewMarotoStatementGenerator(lang language.Tag) *MarotoStatementGenerator {
	return &MarotoStatementGenerator{lang: lang}
}

// RenderStatement genera el PDF y devuelve sus bytes.
func (g *MarotoStatementGenerator) RenderStatement(st *inventory.Statement) ([]byte, error) {
	if st == nil || st.Summary == nil || st.Summary.ProductionRun == nil {
		return nil, fmt.Errorf("pdf: estado de tirada vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Estado de tirada de producción", true).
		Build()

	m := maroto.New(cfg)
	w := &writer{printer: message.NewPrinter(g.lang), title: cases.Title(g.lang)}

	m.AddRows(w.headerRow(st))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(w.summaryRows(st.Summary)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("DISTRIBUIDORES"))
	m.AddRows(tableHeaderRow(
		headerCell{"Distribuidor", 4, align.Left},
		headerCell{"Asignado", 2, align.Right},
		headerCell{"Vendido", 2, align.Right},
		headerCell{"Devuelto", 2, align.Right},
		headerCell{"En poder", 2, align.Right},
	))
	m.AddRows(w.distributorRows(st.Summary.Distributors)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle("MOVIMIENTOS"))
	m.AddRows(tableHeaderRow(
		headerCell{"Fecha", 3, align.Left},
		headerCell{"Tipo", 2, align.Left},
		headerCell{"Origen -> Destino", 5, align.Left},
		headerCell{"Cantidad", 2, align.Right},
	))
	m.AddRows(w.movementRows(st.Movements)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(st))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (w *writer) headerRow(st *inventory.Statement) core.Row {
	run := st.Summary.ProductionRun
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(run.Description, run.ReleaseID), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s · %s", w.title.String(run.Format), nonEmpty(run.Manufacturer, "—")), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("ESTADO DE TIRADA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Fabricada: "+run.ManufacturingDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
			text.New("Emitido: "+st.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

func (w *writer) summaryRows(s *inventory.Summary) []core.Row {
	cell := func(label string, v int) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(w.printer.Sprintf("%d", v), props.Text{Style: fontstyle.Bold, Size: 11, Top: 5}),
		)
	}
	return []core.Row{
		sectionTitle("RESUMEN"),
		row.New(12).Add(
			cell("Fabricado", s.Manufactured),
			cell("Asignado", s.Allocated),
			cell("Sin asignar", s.Unallocated),
			cell("En bodega", s.WarehouseOnHand),
			cell("Vendido", s.SoldExternally),
			cell("Devuelto", s.Returned),
		),
	}
}

func (w *writer) distributorRows(list []inventory.DistributorHolding) []core.Row {
	if len(list) == 0 {
		return []core.Row{emptyRow("Sin asignaciones")}
	}
	rows := make([]core.Row, 0, len(list))
	for _, d := range list {
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(nonEmpty(d.Name, d.DistributorID), props.Text{Size: 8, Top: 1, Left: 1})),
			w.numberCol(2, d.Allocated),
			w.numberCol(2, d.Sold),
			w.numberCol(2, d.Returned),
			w.numberCol(2, d.OnHand),
		))
	}
	return rows
}

func (w *writer) movementRows(list []*entity.Movement) []core.Row {
	if len(list) == 0 {
		return []core.Row{emptyRow("Sin movimientos")}
	}
	shown := list
	if len(shown) > maxMovementRows {
		shown = shown[:maxMovementRows]
	}
	rows := make([]core.Row, 0, len(shown)+1)
	for _, m := range shown {
		rows = append(rows, row.New(6).Add(
			col.New(3).Add(text.New(m.OccurredAt.Format("02/01/2006 15:04"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(w.title.String(m.Type), props.Text{Size: 8, Top: 1})),
			col.New(5).Add(text.New(m.From.String()+" -> "+m.To.String(), props.Text{Size: 8, Top: 1})),
			w.numberCol(2, m.Quantity),
		))
	}
	if len(list) > len(shown) {
		rows = append(rows, emptyRow(w.printer.Sprintf("… %d movimientos más antiguos omitidos", len(list)-len(shown))))
	}
	return rows
}

func footerRow(st *inventory.Statement) core.Row {
	run := st.Summary.ProductionRun
	return row.New(26).Add(
		col.New(8).Add(
			text.New("ID de tirada", props.Text{Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 2}),
			text.New(run.ID, props.Text{Size: 7, Top: 7, Color: colorGray}),
			text.New("Las cantidades se derivan del libro de movimientos al momento de la emisión.", props.Text{
				Size: 6, Top: 14, Color: colorGray,
			}),
		),
		col.New(4).Add(code.NewQr(run.ID, props.Rect{Center: true, Percent: 90})),
	)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type headerCell struct {
	label string
	size  int
	align align.Type
}

func tableHeaderRow(cells ...headerCell) core.Row {
	cols := make([]core.Col, 0, len(cells))
	for _, c := range cells {
		cols = append(cols, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func sectionTitle(label string) core.Row {
	return row.New(7).Add(col.New(12).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2,
	})))
}

func emptyRow(msg string) core.Row {
	return row.New(6).Add(col.New(12).Add(text.New(msg, props.Text{Size: 8, Top: 1, Color: colorGray, Left: 1})))
}

func (w *writer) numberCol(size, v int) core.Col {
	return col.New(size).Add(text.New(w.printer.Sprintf("%d", v), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}))
}

// nonEmpty devuelve s o fallback si s está vacío.
func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
