package parsing

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Bauer Vapor X4 Junior Skates",
  "brand": {"@type": "Brand", "name": "Bauer"},
  "sku": "VAPX4-JR",
  "gtin13": "4006381333931",
  "image": ["https://img.example.com/a.jpg", "https://img.example.com/b.jpg"],
  "offers": {
    "@type": "Offer",
    "price": 149.99,
    "priceCurrency": "USD",
    "availability": "https://schema.org/InStock"
  }
}
</script>
<script type="application/ld+json">{broken json</script>
<script type="application/ld+json">
{"@graph": [
  {"@type": "BreadcrumbList"},
  {"@type": ["Product"], "name": "CCM Tacks Gloves", "brand": "CCM",
   "offers": [{"price": "89.99", "priceCurrency": "USD"}]}
]}
</script>
</head><body></body></html>`

func TestExtractJSONLD(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(productPage))
	require.NoError(t, err)

	products := ExtractJSONLD(doc)
	require.Len(t, products, 2)

	skates := products[0]
	assert.Equal(t, "Bauer Vapor X4 Junior Skates", skates.Name)
	assert.Equal(t, "Bauer", skates.Brand)
	assert.Equal(t, "VAPX4-JR", skates.SKU)
	assert.Equal(t, "4006381333931", skates.GTIN)
	assert.Equal(t, "https://img.example.com/a.jpg", skates.Image)
	assert.Equal(t, "149.99", skates.Price.String())
	assert.Equal(t, "USD", skates.Currency)
	assert.True(t, skates.StockSeen)
	assert.True(t, skates.InStock)

	gloves := products[1]
	assert.Equal(t, "CCM Tacks Gloves", gloves.Name)
	assert.Equal(t, "CCM", gloves.Brand)
	assert.Equal(t, "89.99", gloves.Price.String())
	assert.False(t, gloves.StockSeen)
}

func TestExtractJSONLDEmpty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>hi</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, ExtractJSONLD(doc))
}
