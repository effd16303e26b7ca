package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitValidators(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)

	type payload struct {
		Date  string `json:"date" validate:"required,isodate"`
		Month string `json:"month" validate:"omitempty,isomonth"`
		Class string `json:"class" validate:"notblank,classlabel"`
	}

	tests := []struct {
		name      string
		data      payload
		wantError map[string]string
	}{
		{name: "valid", data: payload{Date: "2026-10-19", Month: "2026-10", Class: "10-A"}},
		{
			name:      "missing date",
			data:      payload{Class: "10-A"},
			wantError: map[string]string{"date": "this field is required"},
		},
		{
			name:      "bad date",
			data:      payload{Date: "19/10/2026", Class: "10-A"},
			wantError: map[string]string{"date": "must be a date formatted as YYYY-MM-DD"},
		},
		{
			name:      "slash in class",
			data:      payload{Date: "2026-10-19", Class: "10/A"},
			wantError: map[string]string{"class": "class label cannot contain '/'"},
		},
		{
			name:      "bad month & blank class",
			data:      payload{Date: "2026-10-19", Month: "2026-13", Class: "  "},
			wantError: map[string]string{"month": "must be a month formatted as YYYY-MM", "class": "this field cannot be blank"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.data)
			if tt.wantError == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			got := make(map[string]string)
			for _, fe := range err.(validator.ValidationErrors) {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantError, got)
		})
	}
}
