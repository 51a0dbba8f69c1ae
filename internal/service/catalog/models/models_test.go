package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

func TestFromDomainService_PriceKeepsExactDecimal(t *testing.T) {
	resp := FromDomainService(&domain.Service{
		ID:    1,
		Title: "Thesis editing",
		Price: decimal.RequireFromString("90071992547409.93"),
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "90071992547409.93", body["price"])
}
