package exportsvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/rollcall/core/attendance"
)

func TestWriteRegister(t *testing.T) {
	pct := 50
	reg := attendance.MonthlyRegister{
		ClassLabel: "5B",
		Month:      "2024-02",
		Dates:      []string{"2024-02-01", "2024-02-02", "2024-02-03"},
		Rows: []attendance.RegisterRow{
			{
				Student: attendance.Student{ID: "s1", Name: "Ada", RollNo: 1},
				Days:    map[string]string{"2024-02-01": attendance.StatusPresent, "2024-02-02": attendance.StatusAbsent},
				Percent: &pct,
			},
			{
				Student: attendance.Student{ID: "s2", Name: "Bob", RollNo: 2},
				Days:    map[string]string{"2024-02-03": attendance.StatusLate},
			},
			{
				Student: attendance.Student{ID: "s3", Name: "Cid", RollNo: 3},
				Days:    map[string]string{},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRegister(&buf, reg))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("2024-02")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"Roll", "Name", "1", "2", "3", "%"}, rows[0])
	assert.Equal(t, []string{"1", "Ada", "P", "A", "", "50"}, rows[1])
	assert.Equal(t, []string{"2", "Bob", "", "", "L"}, rows[2]) // trailing empty cells are trimmed
	assert.Equal(t, []string{"3", "Cid"}, rows[3])
}

func TestRegisterFilename(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "plain", label: "5B", want: "register_5B_2024-02.xlsx"},
		{name: "spaces & slashes", label: "Grade 5/B", want: "register_Grade-5-B_2024-02.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegisterFilename(attendance.MonthlyRegister{ClassLabel: tt.label, Month: "2024-02"})
			assert.Equal(t, tt.want, got)
		})
	}
}
