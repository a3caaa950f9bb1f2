package validation_test

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
	"github.com/unclebandit/pricing-catalog-backend/internal/validation"
)

func TestValidatePublication(t *testing.T) {
	v := validation.New()

	ok := model.Publication{Name: "Daily", Price: pq.Float64Array{75}, DA: "50", URL: "https://daily.test"}
	assert.NoError(t, v.Validate(ok))

	bad := model.Publication{Price: pq.Float64Array{-1}, DA: "high", ExampleURL: "not a url"}
	err := v.Validate(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	var coded *appErrors.Error
	require.True(t, errors.As(err, &coded))
	details, ok2 := coded.Details.([]validation.FieldError)
	require.True(t, ok2)

	fields := map[string]string{}
	for _, d := range details {
		fields[d.Field] = d.Rule
	}
	assert.Equal(t, "required", fields["name"])
	assert.Equal(t, "numeric", fields["da"])
	assert.Equal(t, "url", fields["example_url"])
	assert.Equal(t, "gte", fields["price[0]"])
}

func TestValidateAdjustment(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(pricing.Adjustment{TableName: "publications", Kind: "percentage", Value: 10}))

	err := v.Validate(pricing.Adjustment{TableName: "publications", Kind: "double"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
}
