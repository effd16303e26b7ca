package attendance_test

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
)

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	return validate, translator
}

func fieldErrors(t *testing.T, err error, translator ut.Translator) map[string]string {
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "want validator.ValidationErrors, got %v", err)
	errs := make(map[string]string, len(vErrs))
	for _, e := range vErrs {
		errs[e.Field()] = e.Translate(translator)
	}
	return errs
}

func TestMark_Validate(t *testing.T) {
	validate, translator := newValidator()

	tests := []struct {
		name    string
		mark    attendance.Mark
		wantErr map[string]string
	}{
		{name: "valid", mark: attendance.Mark{Date: " 2024-03-04 ", Status: "Late"}},
		{
			name:    "required",
			mark:    attendance.Mark{},
			wantErr: map[string]string{"date": "this field is required", "status": "this field is required"},
		},
		{
			name:    "bad date & status",
			mark:    attendance.Mark{Date: "04/03/2024", Status: "present"},
			wantErr: map[string]string{"date": "must be a date formatted as YYYY-MM-DD", "status": "status must be one of Present, Absent, Late"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mark.Validate(validate)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.Equal(t, "2024-03-04", tt.mark.Date)
				return
			}
			assert.Equal(t, tt.wantErr, fieldErrors(t, err, translator))
		})
	}
}

func TestNewStudent_Validate(t *testing.T) {
	validate, translator := newValidator()

	ns := attendance.NewStudent{Name: "  Ada ", ClassLabel: " 5B", RollNo: 3, ParentEmail: " Ada.Parent@Test.CD "}
	require.NoError(t, ns.Validate(validate))
	assert.Equal(t, attendance.NewStudent{Name: "Ada", ClassLabel: "5B", RollNo: 3, ParentEmail: "ada.parent@test.cd"}, ns)

	bad := attendance.NewStudent{Name: "Bob", ClassLabel: "5B", RollNo: 0, ParentEmail: "nope"}
	errs := fieldErrors(t, bad.Validate(validate), translator)
	assert.Contains(t, errs, "roll_no")
	assert.Contains(t, errs, "parent_email")

	slash := attendance.NewStudent{Name: "Bob", ClassLabel: "5/B", RollNo: 1, ParentEmail: "bob@test.cd"}
	assert.Equal(t, map[string]string{"class_label": "class label cannot contain '/'"}, fieldErrors(t, slash.Validate(validate), translator))
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range attendance.AllStatuses {
		assert.True(t, attendance.IsValidStatus(s))
	}
	assert.False(t, attendance.IsValidStatus("present"))
	assert.False(t, attendance.IsValidStatus(""))
}
