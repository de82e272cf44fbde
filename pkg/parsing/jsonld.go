package parsing

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// LDProduct is the slice of schema.org Product data the
// pipeline cares about, flattened from JSON-LD.
type LDProduct struct {
	Name      string
	Brand     string
	SKU       string
	MPN       string
	GTIN      string
	URL       string
	Image     string
	Price     decimal.Decimal
	MSRP      decimal.Decimal
	Currency  string
	InStock   bool
	StockSeen bool
}

type ldNode map[string]interface{}

// ExtractJSONLD pulls every schema.org Product found in the
// document's ld+json blocks. Parse failures in one block do
// not abort the others, retailers ship broken JSON routinely.
func ExtractJSONLD(doc *goquery.Document) []LDProduct {
	var out []LDProduct
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		var payload interface{}
		if err := dec.Decode(&payload); err != nil {
			return
		}
		for _, node := range flattenLD(payload) {
			if p, ok := productFromNode(node); ok {
				out = append(out, p)
			}
		}
	})
	return out
}

// flattenLD walks top-level arrays and @graph containers
func flattenLD(payload interface{}) []ldNode {
	var nodes []ldNode
	switch v := payload.(type) {
	case []interface{}:
		for _, item := range v {
			nodes = append(nodes, flattenLD(item)...)
		}
	case map[string]interface{}:
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, item := range graph {
				nodes = append(nodes, flattenLD(item)...)
			}
			return nodes
		}
		nodes = append(nodes, ldNode(v))
	}
	return nodes
}

func productFromNode(node ldNode) (LDProduct, bool) {
	if !isProductType(node["@type"]) {
		return LDProduct{}, false
	}

	p := LDProduct{
		Name:  ldString(node["name"]),
		Brand: ldName(node["brand"]),
		SKU:   CleanSKU(ldString(node["sku"])),
		MPN:   CleanSKU(ldString(node["mpn"])),
		URL:   ldString(node["url"]),
		Image: ldFirst(node["image"]),
	}
	for _, key := range []string{"gtin13", "gtin12", "gtin14", "gtin8", "gtin"} {
		if g := ldString(node[key]); g != "" {
			p.GTIN = g
			break
		}
	}

	offer := firstOffer(node["offers"])
	if offer != nil {
		if price, ok := ParsePrice(ldString(offer["price"])); ok {
			p.Price = price
		}
		if msrp, ok := ParsePrice(ldString(offer["highPrice"])); ok {
			p.MSRP = msrp
		}
		p.Currency = ldString(offer["priceCurrency"])
		if avail := ldString(offer["availability"]); avail != "" {
			p.StockSeen = true
			p.InStock = strings.Contains(strings.ToLower(avail), "instock")
		}
	}

	return p, p.Name != "" || p.GTIN != "" || p.SKU != ""
}

func isProductType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "Product")
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

func firstOffer(v interface{}) ldNode {
	switch o := v.(type) {
	case map[string]interface{}:
		if offers, ok := o["offers"].([]interface{}); ok {
			// AggregateOffer wrapping individual offers
			for _, inner := range offers {
				if m, ok := inner.(map[string]interface{}); ok {
					return ldNode(m)
				}
			}
		}
		return ldNode(o)
	case []interface{}:
		for _, item := range o {
			if m, ok := item.(map[string]interface{}); ok {
				return ldNode(m)
			}
		}
	}
	return nil
}

// ldString renders scalar JSON-LD values, numbers included
func ldString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return decimal.NewFromFloat(s).String()
	case json.Number:
		return s.String()
	}
	return ""
}

// ldName handles both "Nike" and {"@type":"Brand","name":"Nike"}
func ldName(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		return ldString(m["name"])
	}
	return ldString(v)
}

// ldFirst returns a scalar or the head of an array value
func ldFirst(v interface{}) string {
	if arr, ok := v.([]interface{}); ok {
		if len(arr) > 0 {
			return ldString(arr[0])
		}
		return ""
	}
	return ldString(v)
}
