package report

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
)

func sampleBatch() []*deal.Deal {
	return []*deal.Deal{
		{
			ID:           "aaaa000000000001",
			Title:        "Nike Mercurial Vapor 15 Youth FG",
			Brand:        "Nike",
			Sport:        deal.SportSoccer,
			Category:     deal.CategoryFootwear,
			YouthFlag:    true,
			Sizes:        []string{"1Y", "2Y"},
			Price:        decimal.RequireFromString("44.99"),
			MSRP:         decimal.RequireFromString("90.00"),
			CouponCode:   "SAVE20",
			Retailer:     "soccer_com",
			CanonicalURL: "https://www.soccer.com/p/vapor",
			Score:        85.3,
			Scored:       true,
			AlternateRetailers: []string{
				"dicks",
			},
		},
		{
			ID:           "aaaa000000000002",
			Title:        "Bauer Vapor X4 Junior Skates",
			Brand:        "Bauer",
			Sport:        deal.SportHockey,
			Price:        decimal.RequireFromString("239.99"),
			Retailer:     "scheels",
			CanonicalURL: "https://scheels.example.com/p/x4",
			Score:        61.0,
			Scored:       true,
		},
		{
			ID:           "aaaa000000000003",
			Title:        "Gift Card",
			Price:        decimal.RequireFromString("25.00"),
			Retailer:     "big5",
			CanonicalURL: "https://big5.example.com/p/gift",
			Score:        12.0,
			Scored:       true,
		},
	}
}

func TestMarkdown(t *testing.T) {
	n := &Newsletter{Title: "Weekly Deal Roundup", TopPerGroup: 5}
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	md := n.Markdown(sampleBatch(), now)

	assert.True(t, strings.HasPrefix(md, "# Weekly Deal Roundup"))
	assert.Contains(t, md, "_3 deals, August 31, 2026_")
	assert.Contains(t, md, "## Soccer")
	assert.Contains(t, md, "## Hockey")
	assert.Contains(t, md, "## Everything Else")
	assert.Contains(t, md, "[Nike Mercurial Vapor 15 Youth FG](https://www.soccer.com/p/vapor)")
	assert.Contains(t, md, "50% off")
	assert.Contains(t, md, "code `SAVE20`")
	assert.Contains(t, md, "also: dicks")
	assert.Contains(t, md, "youth")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBatch()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "discount_pct")
	assert.Contains(t, lines[1], "44.99")
	assert.Contains(t, lines[1], "50.0")
	// absent msrp stays an empty column
	assert.Contains(t, lines[3], "Gift Card")
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	mdPath, csvPath, err := WriteFiles(dir, sampleBatch(), "Roundup")
	require.NoError(t, err)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Roundup")

	csv, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(csv), "Gift Card")
}
