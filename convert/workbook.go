package convert

import (
	"bytes"
	"fmt"

	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"
)

// SheetTable is one worksheet flattened to display text. Row 0 is the header
// row; every row is padded to the widest row of the sheet so the table is
// rectangular, with missing cells as empty strings.
type SheetTable struct {
	Name string
	Rows [][]string
}

func (t SheetTable) ColumnCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

func (t SheetTable) CellCount() int {
	cnt := 0
	for _, row := range t.Rows {
		cnt += len(row)
	}
	return cnt
}

// NewSheetTable pads ragged rows to the table's max width.
func NewSheetTable(name string, rows [][]string) SheetTable {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	padded := make([][]string, len(rows))
	for ri, row := range rows {
		padded[ri] = make([]string, width)
		copy(padded[ri], row)
	}
	return SheetTable{Name: name, Rows: padded}
}

// LoadWorkbook parses workbook bytes into tables, preserving workbook sheet
// order. Cell values are the formatted display text excelize produces; an
// unreadable workbook is a fatal error with no partial output.
func LoadWorkbook(data []byte) ([]SheetTable, *util.Result) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, util.Error("OpenWorkbook", err)
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, util.MsgError("OpenWorkbook", "workbook has no sheets")
	}

	tables := make([]SheetTable, 0, len(sheetNames))
	for _, name := range sheetNames {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, util.Error("ReadSheet", fmt.Errorf("sheet `%s`: %w", name, err))
		}
		tables = append(tables, NewSheetTable(name, rows))
	}

	return tables, nil
}
