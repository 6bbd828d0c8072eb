package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError{
		Field:   "name",
		Value:   "",
		Message: "field is required",
	}

	expected := "validation error on field 'name': field is required (got: )"
	assert.Equal(t, expected, err.Error())
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "name", Value: "", Message: "field is required"},
		{Field: "alpha", Value: -1, Message: "must be greater than 0"},
	}

	expected := "validation error on field 'name': field is required (got: ); validation error on field 'alpha': must be greater than 0 (got: -1)"
	assert.Equal(t, expected, errs.Error())
	assert.Equal(t, []string{"name", "alpha"}, errs.Fields())
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
}

type refs struct {
	Node string `json:"node" validate:"required,node_id"`
	Ref  string `json:"ref" validate:"required,port_ref"`
	Type string `json:"type" validate:"required,type_tag"`
	Kind string `json:"kind" validate:"omitempty,filter_kind"`
}

func TestCustomValidationFunctions(t *testing.T) {
	tests := []struct {
		name       string
		in         refs
		wantFields []string
	}{
		{
			name: "valid",
			in:   refs{Node: "slider-1", Ref: "slider-1.value", Type: "number.integer", Kind: "clampRange"},
		},
		{
			name:       "node id with dot",
			in:         refs{Node: "a.b", Ref: "a.value", Type: "number"},
			wantFields: []string{"node"},
		},
		{
			name:       "ref without port",
			in:         refs{Node: "a", Ref: "a", Type: "number"},
			wantFields: []string{"ref"},
		},
		{
			name:       "ref port may contain dots",
			in:         refs{Node: "a", Ref: "a.out.left", Type: "number"},
			wantFields: nil,
		},
		{
			name:       "bad type tag",
			in:         refs{Node: "a", Ref: "a.b", Type: "number..x"},
			wantFields: []string{"type"},
		},
		{
			name:       "bad kind",
			in:         refs{Node: "a", Ref: "a.b", Type: "any", Kind: "1add"},
			wantFields: []string{"kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.wantFields, verrs.Fields())
		})
	}
}

type bounded struct {
	Min float64 `json:"min" validate:"ltefield=Max"`
	Max float64 `json:"max"`
}

func (b bounded) Validate() error {
	if b.Max > 1000 {
		return ValidationErrors{{Field: "max", Value: b.Max, Message: "too large"}}
	}
	return nil
}

func TestStruct_RunsCustomValidator(t *testing.T) {
	assert.NoError(t, Struct(bounded{Min: 1, Max: 2}))

	err := Struct(bounded{Min: 3, Max: 2})
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "must not exceed Max", verrs[0].Message)

	err = Struct(bounded{Min: 1, Max: 2000})
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "too large", verrs[0].Message)
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsNodeID("filter-add-1"))
	assert.False(t, IsNodeID(""))
	assert.True(t, IsTypeTag("any"))
	assert.False(t, IsTypeTag(".number"))
}
