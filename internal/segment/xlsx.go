package segment

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// sheetNames maps adoption levels to workbook sheet names, in priority
// order.
var sheetNames = []struct {
	level string
	name  string
}{
	{LevelNonAdopter, "Non Adopters"},
	{LevelModerate, "Moderate Adopters"},
	{LevelHighVolume, "High Volume Poor Results"},
}

// writeWorkbook exports the classified buckets as a single XLSX workbook,
// one sheet per adoption level.
func writeWorkbook(path string, header []string, buckets map[string][]Row) error {
	f := xlsx.NewFile()

	for _, sn := range sheetNames {
		sheet, err := f.AddSheet(sn.name)
		if err != nil {
			return eris.Wrapf(err, "segment: add sheet %s", sn.name)
		}

		hr := sheet.AddRow()
		for _, col := range header {
			hr.AddCell().Value = col
		}
		for _, row := range buckets[sn.level] {
			xr := sheet.AddRow()
			for _, cell := range row {
				xr.AddCell().Value = cell
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "segment: save workbook")
	}

	zap.L().Info("segment: wrote workbook", zap.String("path", path))
	return nil
}
