package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/store-orders/db"
)

func TestParseSeed_Embedded(t *testing.T) {
	data, err := loadSeed("")
	require.NoError(t, err)
	assert.NotEmpty(t, data.Products)
	assert.NotEmpty(t, data.Customers)
	assert.NotEmpty(t, data.Suppliers)

	for _, p := range data.Products {
		assert.True(t, p.Price.IsPositive(), p.Name)
	}
}

func TestParseSeed_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	_, err := zw.Write(db.Seed)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	compressed, err := parseSeed(&buf)
	require.NoError(t, err)
	plain, err := parseSeed(bytes.NewReader(db.Seed))
	require.NoError(t, err)
	assert.Equal(t, plain, compressed)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not json", `nope`, "parse seed JSON"},
		{"bad product id", `{"products":[{"id":"1","name":"x","price":"1"}]}`, "invalid id"},
		{"missing name", `{"products":[{"id":"0b6f3c9e-2d1a-4f5b-8c7e-1a2b3c4d5e01","price":"1"}]}`, "name is required"},
		{"negative price", `{"products":[{"id":"0b6f3c9e-2d1a-4f5b-8c7e-1a2b3c4d5e01","name":"x","price":"-1"}]}`, "negative price"},
		{"negative stock", `{"products":[{"id":"0b6f3c9e-2d1a-4f5b-8c7e-1a2b3c4d5e01","name":"x","price":"1","quantity":-2}]}`, "negative stock"},
		{"customer without email", `{"customers":[{"id":"7c1d2e3f-4a5b-4c6d-9e8f-0a1b2c3d4e01"}]}`, "customer 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSeed(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
