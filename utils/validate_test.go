package utils

import (
	"encoding/json"
	"testing"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type NestB struct {
	Timeout int `yaml:"timeout" validate:"gt=0"`
}

type NestA struct {
	Format string `yaml:"format" validate:"oneof=text json"`
	NestB  NestB  `yaml:"nest_b"`
}

type Struct struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name" validate:"required"`
	Nest    NestA    `yaml:"nest"`
	Size    int      `yaml:"size" validate:"gte=0,lte=100"`
	Exports []string `yaml:"exports" validate:"min=1"`
	Rate    float64  `validate:"lt=1"`
}

func TestValidate(t *testing.T) {
	err := Validate(&Struct{
		Name: "",
		Nest: NestA{
			Format: "x",
			NestB: NestB{
				Timeout: 0,
			},
		},
		Size:    -1,
		Exports: nil,
		Rate:    1,
	})
	var validateErr *errs.ValidateError
	require.ErrorAs(t, err, &validateErr)

	bytes, err := json.MarshalIndent(validateErr, "", "   ")
	require.NoError(t, err)
	expected := `
{
   "message": "invalid configuration",
   "fields": {
      "size": "value must be >= 0",
      "name": "required field missing",
      "nest": {
         "format": "invalid value: x",
         "nest_b": {
            "timeout": "value must be > 0"
         }
      },
      "exports": "length must be at least 1",
      "Rate": "value must be < 1"
   }
}
`
	assert.JSONEq(t, expected, string(bytes))
}

func TestValidatePasses(t *testing.T) {
	err := Validate(&Struct{
		Name:    "whinator",
		Nest:    NestA{Format: "json", NestB: NestB{Timeout: 1}},
		Exports: []string{"opentelemetry"},
	})
	assert.NoError(t, err)
}
