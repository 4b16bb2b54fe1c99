package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_CreateInput(t *testing.T) {
	tests := []struct {
		name       string
		input      CreateInput
		wantFields []string
	}{
		{"valid", CreateInput{Name: "Ada", Email: "ada@example.com", Phone: "1"}, nil},
		{"bad email", CreateInput{Name: "Ada", Email: "not-an-email", Phone: "1"}, []string{"email"}},
		{"missing all", CreateInput{}, []string{"name", "email", "phone"}},
		{"missing phone", CreateInput{Name: "Ada", Email: "ada@example.com"}, []string{"phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			fields := make([]string, 0, len(ve.Fields))
			for _, f := range ve.Fields {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(CreateInput{Name: "Ada", Email: "nope", Phone: "1"})
	assert.EqualError(t, err, "validation failed: email: value is not a valid email address")
}
