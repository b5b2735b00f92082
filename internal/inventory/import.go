package inventory

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// catalog sheet columns, in order
var importColumns = []string{"sku", "name", "type", "brand", "purchase_price", "selling_price", "stock", "description"}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportReport struct {
	Created []string   `json:"created"`
	Skipped []string   `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

type importRow struct {
	row   int
	input ProductInput
}

// ReadCatalogSheet reads the first sheet of an XLSX workbook.
func ReadCatalogSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("cannot read xlsx file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Validation("cannot read sheet %s: %v", sheets[0], err)
	}
	return rows, nil
}

// parseCatalogRows turns sheet rows into product inputs. A first row whose
// first cell is "sku" is treated as the header. Row numbers are 1-based as
// shown by spreadsheet programs.
func parseCatalogRows(rows [][]string) ([]importRow, []RowError) {
	var out []importRow
	var errs []RowError

	for i, cells := range rows {
		rowNum := i + 1
		if i == 0 && len(cells) > 0 && strings.EqualFold(strings.TrimSpace(cells[0]), importColumns[0]) {
			continue
		}
		if blank(cells) {
			continue
		}

		cell := func(col int) string {
			if col < len(cells) {
				return strings.TrimSpace(cells[col])
			}
			return ""
		}

		in := ProductInput{
			SKU:         cell(0),
			Name:        cell(1),
			Type:        models.ProductType(strings.ToLower(cell(2))),
			Brand:       cell(3),
			Description: cell(7),
		}
		if in.Type == "" {
			in.Type = models.ProductTypePart
		}

		var err error
		if in.PurchasePrice, err = parseMoney(cell(4)); err != nil {
			errs = append(errs, RowError{Row: rowNum, Message: "purchase_price: " + err.Error()})
			continue
		}
		if in.SellingPrice, err = parseMoney(cell(5)); err != nil {
			errs = append(errs, RowError{Row: rowNum, Message: "selling_price: " + err.Error()})
			continue
		}
		if raw := cell(6); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs = append(errs, RowError{Row: rowNum, Message: fmt.Sprintf("stock %q is not a whole number", raw)})
				continue
			}
			in.StockQuantity = &n
		}

		out = append(out, importRow{row: rowNum, input: in})
	}
	return out, errs
}

// Import creates the products of the sheet that do not exist yet. Existing
// SKUs are reported as skipped and never overwritten.
func (s *ProductService) Import(ctx context.Context, actor *models.User, rows [][]string) (*ImportReport, error) {
	parsed, rowErrs := parseCatalogRows(rows)
	report := &ImportReport{Created: []string{}, Skipped: []string{}, Errors: rowErrs}
	if report.Errors == nil {
		report.Errors = []RowError{}
	}

	var products []*models.Product
	seen := map[string]bool{}
	for _, r := range parsed {
		p, err := newProduct(r.input)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: r.row, Message: err.Error()})
			continue
		}
		if seen[p.ID] {
			report.Errors = append(report.Errors, RowError{Row: r.row, Message: "duplicate sku " + p.ID + " in sheet"})
			continue
		}
		seen[p.ID] = true
		products = append(products, p)
	}

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		for _, p := range products {
			var exists int64
			if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Count(&exists).Error; err != nil {
				return apperr.Wrap(err, "product", "import")
			}
			if exists > 0 {
				report.Skipped = append(report.Skipped, p.ID)
				continue
			}
			if err := tx.Create(p).Error; err != nil {
				return apperr.Wrap(err, "product", "import")
			}
			report.Created = append(report.Created, p.ID)
		}
		if len(report.Created) == 0 {
			return nil
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "product",
			EntityID:    "import",
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("catalog import created %d products", len(report.Created)),
			After:       map[string]any{"created": report.Created},
		})
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	return d, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
