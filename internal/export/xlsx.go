package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jeanpaul/sakemate/internal/types"
)

const brandSheet = "Brands"

var brandColumns = []string{
	"User", "Brand", "Brewery", "Region",
	"Sweetness", "Acidity", "Umami", "Richness", "Fragrance", "Added",
}

// WriteXLSX writes one row per brand on a "Brands" sheet. Brands whose
// owner is unknown keep an empty user cell.
func WriteXLSX(w io.Writer, users []types.User, brands []types.SakeBrand) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", brandSheet); err != nil {
		return err
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	header := make([]any, len(brandColumns))
	for i, c := range brandColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(brandSheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(brandColumns), 1)
	if err := f.SetCellStyle(brandSheet, "A1", last, bold); err != nil {
		return err
	}

	for i, b := range brands {
		fp := b.FlavorProfile
		row := []any{
			names[b.UserID], b.Name, b.Brewery, b.Region,
			fp.Sweetness, fp.Acidity, fp.Umami, fp.Richness, fp.Fragrance,
			b.CreatedAt.Format("2006-01-02"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(brandSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(brandSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
