package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct(t *testing.T) {
	type input struct {
		PackageID uint   `json:"package_id" validate:"required"`
		Reference string `json:"reference" validate:"required,max=4"`
	}

	assert.Nil(t, ValidateStruct(input{PackageID: 1, Reference: "ab"}))

	fields := ValidateStruct(input{Reference: "abcdef"})
	assert.Equal(t, "required", fields["package_id"])
	assert.Equal(t, "max=4", fields["reference"])
}
