package model_test

import (
	"testing"

	"bookstore/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestValidateProductPrices(t *testing.T) {
	assert.NoError(t, model.ValidateProductPrices(2500, 1200))
	assert.NoError(t, model.ValidateProductPrices(1200, 1200))
	assert.NoError(t, model.ValidateProductPrices(0, 0))

	assert.ErrorIs(t, model.ValidateProductPrices(1000, 1200), model.ErrSellingPriceBelowCost)
	assert.ErrorIs(t, model.ValidateProductPrices(-1, 0), model.ErrNegativePrice)
	assert.ErrorIs(t, model.ValidateProductPrices(100, -1), model.ErrNegativePrice)
}
