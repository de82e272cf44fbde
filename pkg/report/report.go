package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
	"stillgrove.com/godealyourself/pkg/ranking"
)

// Newsletter renders a ranked batch into a markdown roundup
// grouped by sport.
type Newsletter struct {
	Title       string
	TopPerGroup int
}

// Markdown renders the roundup. Deals without a sport land in a
// trailing catch-all section.
func (n *Newsletter) Markdown(deals []*deal.Deal, now time.Time) string {
	var b strings.Builder

	title := n.Title
	if title == "" {
		title = "Deal Roundup"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "_%d deals, %s_\n", len(deals), now.Format("January 2, 2006"))

	groups := ranking.TopBySport(deals, n.TopPerGroup)
	sports := make([]string, 0, len(groups))
	for sport := range groups {
		sports = append(sports, string(sport))
	}
	sort.Strings(sports)

	for _, sport := range sports {
		fmt.Fprintf(&b, "\n## %s\n\n", headline(sport))
		for _, d := range groups[deal.Sport(sport)] {
			writeEntry(&b, d)
		}
	}

	var unsported []*deal.Deal
	for _, d := range deals {
		if d.Sport == "" {
			unsported = append(unsported, d)
		}
	}
	if len(unsported) > 0 {
		b.WriteString("\n## Everything Else\n\n")
		for _, d := range ranking.Limit(unsported, n.TopPerGroup) {
			writeEntry(&b, d)
		}
	}

	return b.String()
}

// headline capitalizes a sport tag for its section heading
func headline(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeEntry(b *strings.Builder, d *deal.Deal) {
	fmt.Fprintf(b, "- **[%s](%s)** - $%s", d.Title, d.CanonicalURL, d.Price.StringFixed(2))
	if pct, ok := d.DiscountPct(); ok {
		fmt.Fprintf(b, " (~~$%s~~, %.0f%% off)", d.MSRP.StringFixed(2), pct)
	}
	fmt.Fprintf(b, " at %s", d.Retailer)
	if len(d.AlternateRetailers) > 0 {
		fmt.Fprintf(b, " (also: %s)", strings.Join(d.AlternateRetailers, ", "))
	}
	if d.CouponCode != "" {
		fmt.Fprintf(b, " - code `%s`", d.CouponCode)
	}
	if d.IsYouthSized() {
		b.WriteString(" - youth")
	}
	b.WriteString("\n")
}

// csvDeal flattens a deal for spreadsheet consumers
type csvDeal struct {
	ID          string  `csv:"id"`
	Title       string  `csv:"title"`
	Brand       string  `csv:"brand"`
	Sport       string  `csv:"sport"`
	Category    string  `csv:"category"`
	Price       string  `csv:"price"`
	MSRP        string  `csv:"msrp"`
	DiscountPct string  `csv:"discount_pct"`
	Youth       bool    `csv:"youth"`
	Sizes       string  `csv:"sizes"`
	Coupon      string  `csv:"coupon_code"`
	Retailer    string  `csv:"retailer"`
	URL         string  `csv:"url"`
	Score       float64 `csv:"score"`
	Relevance   float64 `csv:"relevance_score"`
}

// WriteCSV streams the batch as CSV, ranked order preserved
func WriteCSV(w io.Writer, deals []*deal.Deal) error {
	rows := make([]*csvDeal, 0, len(deals))
	for _, d := range deals {
		row := &csvDeal{
			ID:        d.ID,
			Title:     d.Title,
			Brand:     d.Brand,
			Sport:     string(d.Sport),
			Category:  string(d.Category),
			Price:     d.Price.StringFixed(2),
			Youth:     d.IsYouthSized(),
			Sizes:     strings.Join(d.Sizes, "|"),
			Coupon:    d.CouponCode,
			Retailer:  d.Retailer,
			URL:       d.CanonicalURL,
			Score:     d.Score,
			Relevance: d.RelevanceScore,
		}
		if !d.MSRP.IsZero() {
			row.MSRP = d.MSRP.StringFixed(2)
		}
		if pct, ok := d.DiscountPct(); ok {
			row.DiscountPct = fmt.Sprintf("%.1f", pct)
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(rows, w)
}

// WriteFiles drops the markdown and CSV reports into outDir
func WriteFiles(outDir string, deals []*deal.Deal, title string) (mdPath, csvPath string, err error) {
	if err = os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", err
	}

	now := time.Now()
	stamp := now.Format("2006-01-02")

	n := &Newsletter{Title: title, TopPerGroup: 10}
	mdPath = filepath.Join(outDir, "deals-"+stamp+".md")
	if err = os.WriteFile(mdPath, []byte(n.Markdown(deals, now)), 0o644); err != nil {
		return "", "", err
	}

	csvPath = filepath.Join(outDir, "deals-"+stamp+".csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	if err = WriteCSV(f, deals); err != nil {
		return "", "", err
	}

	log.WithFields(log.Fields{
		"markdown": mdPath,
		"csv":      csvPath,
		"deals":    len(deals),
	}).Infoln("Wrote reports")

	return mdPath, csvPath, nil
}
