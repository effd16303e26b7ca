package exportsvc

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/rollcall/core/attendance"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var statusCodes = map[string]string{
	attendance.StatusPresent: "P",
	attendance.StatusAbsent:  "A",
	attendance.StatusLate:    "L",
}

// RegisterFilename is the download name of reg, eg. `register_5B_2024-03.xlsx`.
func RegisterFilename(reg attendance.MonthlyRegister) string {
	label := strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' {
			return '-'
		}
		return r
	}, reg.ClassLabel)
	return "register_" + label + "_" + reg.Month + ".xlsx"
}

// WriteRegister renders reg as a single sheet workbook: roll, name, one column per day
// holding P, A or L (blank when unmarked), then the month percentage.
func WriteRegister(w io.Writer, reg attendance.MonthlyRegister) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := reg.Month
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, 0, len(reg.Dates)+3)
	header = append(header, "Roll", "Name")
	for _, d := range reg.Dates {
		day, _ := strconv.Atoi(d[len(d)-2:])
		header = append(header, day)
	}
	header = append(header, "%")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, row := range reg.Rows {
		vals := make([]interface{}, 0, len(header))
		vals = append(vals, row.Student.RollNo, row.Student.Name)
		for _, d := range reg.Dates {
			vals = append(vals, statusCodes[row.Days[d]])
		}
		if row.Percent != nil {
			vals = append(vals, *row.Percent)
		} else {
			vals = append(vals, "")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err = f.SetSheetRow(sheet, cell, &vals); err != nil {
			return errors.Wrapf(err, "writing row of student %s", row.Student.ID)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      1,
		TopLeftCell: "C2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return errors.Wrap(err, "freezing panes")
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}
