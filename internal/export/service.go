// Package export renders batch results as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/order-interpreter/internal/async"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
)

const (
	OrdersSheet = "Pedidos"
	ItemsSheet  = "Items"
)

var orderHeaders = []string{
	"Archivo",
	"Estado",
	"Pedido ID",
	"Canal",
	"Cliente",
	"Teléfono",
	"Dirección",
	"Barrio",
	"Ciudad",
	"Inicio ventana",
	"Fin ventana",
	"Productos",
	"Frágil",
	"Temperatura controlada",
	"Acceso restringido",
	"Advertencias",
	"Error",
}

var itemHeaders = []string{"Pedido ID", "Producto", "Nombre detectado", "Cantidad", "Unidad"}

// Service produces XLSX bytes for batch runs.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportOrdersXLSX returns a workbook with one row per batch result on the
// "Pedidos" sheet and one row per interpreted item on the "Items" sheet.
func (s *Service) ExportOrdersXLSX(ctx context.Context, results []async.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	// the default sheet becomes the orders sheet
	if err := f.SetSheetName(f.GetSheetName(0), OrdersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(OrdersSheet)
	f.SetActiveSheet(activeIndex)

	writeHeaders(f, OrdersSheet, orderHeaders)
	writeHeaders(f, ItemsSheet, itemHeaders)

	row, itemRow := 2, 2
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(OrdersSheet, cell, v)
		}

		write(1, filepath.Base(r.Job.SourcePath))
		write(2, string(r.Status))
		if r.Err != nil {
			write(17, truncate(r.Err.Error(), 240))
		}
		if o := r.Order; o != nil {
			write(3, o.OrderID)
			write(4, o.OriginalInput.Channel)
			if in := o.Interpretation; in != nil {
				writeDetails(write, in)
				for _, it := range in.Details.Items {
					cells := []any{o.OrderID, str(it.NormalizedName), str(it.DetectedName), intOrBlank(it.Quantity), str(it.Unit)}
					for i, v := range cells {
						cell, _ := excelize.CoordinatesToCellName(i+1, itemRow)
						_ = f.SetCellValue(ItemsSheet, cell, v)
					}
					itemRow++
				}
			}
		}
		row++
	}

	_ = f.SetColWidth(OrdersSheet, "A", "A", 24) // file
	_ = f.SetColWidth(OrdersSheet, "C", "D", 16)
	_ = f.SetColWidth(OrdersSheet, "E", "F", 18)
	_ = f.SetColWidth(OrdersSheet, "G", "G", 32) // address
	_ = f.SetColWidth(OrdersSheet, "J", "K", 26) // window
	_ = f.SetColWidth(OrdersSheet, "L", "L", 40) // products
	_ = f.SetColWidth(OrdersSheet, "P", "Q", 48)
	_ = f.SetColWidth(ItemsSheet, "A", "C", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeDetails(write func(int, any), in *entity.Interpretation) {
	d := in.Details
	if c := d.Customer; c != nil {
		write(5, str(c.Name))
		write(6, str(c.Phone))
	}
	if a := d.DeliveryAddress; a != nil {
		write(7, str(a.Text))
		write(8, str(a.Neighborhood))
		write(9, str(a.City))
	}
	if w := d.DeliveryWindow; w != nil {
		write(10, str(w.StartISO))
		write(11, str(w.EndISO))
	}
	products := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		name := str(it.NormalizedName)
		if name == "" {
			name = str(it.DetectedName)
		}
		if it.Quantity != nil {
			name = fmt.Sprintf("%d x %s", *it.Quantity, name)
		}
		products = append(products, name)
	}
	write(12, strings.Join(products, "; "))
	if r := d.Restrictions; r != nil {
		write(13, yesNo(r.Fragile))
		write(14, yesNo(r.TemperatureControlled))
		write(15, yesNo(r.RestrictedAccess))
	}
	write(16, strings.Join(in.Validation.Warnings, "; "))
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intOrBlank(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func yesNo(p *bool) string {
	if p == nil {
		return ""
	}
	if *p {
		return "sí"
	}
	return "no"
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
