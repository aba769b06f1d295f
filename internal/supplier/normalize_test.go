package supplier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeManufacturersBareArray(t *testing.T) {
	body := []byte(`[{"id":"mfr-1","name":"Acme"},{"mfrId":"mfr-2","mfrName":"Globex"}]`)
	out, err := normalizeManufacturers(body)
	require.NoError(t, err)
	require.Equal(t, []Manufacturer{{ID: "mfr-1", Name: "Acme"}, {ID: "mfr-2", Name: "Globex"}}, out)
}

func TestNormalizeManufacturersDataEnvelope(t *testing.T) {
	body := []byte(`{"data":[{"manufacturerId":"mfr-3","manufacturerName":"Initech"}]}`)
	out, err := normalizeManufacturers(body)
	require.NoError(t, err)
	require.Equal(t, []Manufacturer{{ID: "mfr-3", Name: "Initech"}}, out)
}

func TestNormalizeManufacturersSkipsEntriesWithoutID(t *testing.T) {
	body := []byte(`[{"name":"No Id Inc"},{"id":"mfr-4","name":"Umbrella"}]`)
	out, err := normalizeManufacturers(body)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "mfr-4", out[0].ID)
}

func TestNormalizeProductsFieldFallbacks(t *testing.T) {
	body := []byte(`{"data":[{
		"aqProductId":"11111111-2222-3333-4444-555555555555",
		"mfrId":"mfr-1","mfrName":"Acme",
		"modelNo":"X100","name":"Fryer X100",
		"listPrice":"1200.50","netPrice":800,
		"pictures":["https://img.example.com/x100.jpg",{"url":"https://img.example.com/x100-side.jpg"}],
		"documents":[{"mediaType":"application/pdf","url":"https://docs.example.com/x100.pdf"}],
		"resources":[{"type":"SpecSheet","url":"https://docs.example.com/x100-spec"}],
		"categoryAttributes":[{"property":"Voltage","value":"240V"},{"name":"Width","value":"60cm"}]
	}]}`)
	out, err := normalizeProducts(body)
	require.NoError(t, err)
	require.Len(t, out, 1)

	p := out[0]
	require.Equal(t, "11111111-2222-3333-4444-555555555555", p.ID)
	require.Equal(t, "mfr-1", p.ManufacturerID)
	require.Equal(t, "Acme", p.ManufacturerName)
	require.Equal(t, "X100", p.ModelNumber)
	require.Equal(t, "Fryer X100", p.Title)
	require.Equal(t, 1200.50, p.ListPrice)
	require.Equal(t, 800.0, p.NetPrice)
	require.Equal(t, []string{"https://img.example.com/x100.jpg", "https://img.example.com/x100-side.jpg"}, p.Pictures)
	require.Equal(t, []MediaItem{
		{Kind: MediaKindDocument, Type: "application/pdf", URL: "https://docs.example.com/x100.pdf"},
		{Kind: MediaKindResource, Type: "SpecSheet", URL: "https://docs.example.com/x100-spec"},
	}, p.Media)
	require.Equal(t, []Attribute{{Name: "Voltage", Value: "240V"}, {Name: "Width", Value: "60cm"}}, p.Attributes)
}

func TestNormalizeProductsMalformedPriceDegradesToZero(t *testing.T) {
	body := []byte(`[{"id":"p-1","modelNo":"A1","listPrice":"n/a"}]`)
	out, err := normalizeProducts(body)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 0.0, out[0].ListPrice)
}

func TestNormalizeProductSingleObjectWithAndWithoutEnvelope(t *testing.T) {
	plain := []byte(`{"id":"p-1","modelNo":"A1"}`)
	p, err := normalizeProduct(plain)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "p-1", p.ID)

	wrapped := []byte(`{"data":{"productId":"p-2","model":"B2"}}`)
	p, err = normalizeProduct(wrapped)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "p-2", p.ID)
	require.Equal(t, "B2", p.ModelNumber)
}
