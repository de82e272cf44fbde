package ranking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillgrove.com/godealyourself/pkg/dealservice/deal"
)

func scored(id string, score float64) *deal.Deal {
	return &deal.Deal{
		ID:     id,
		Title:  "Item " + id,
		Price:  decimal.RequireFromString("30.00"),
		Score:  score,
		Scored: true,
	}
}

func TestRankOrdersByScore(t *testing.T) {
	deals := []*deal.Deal{scored("c", 50), scored("a", 90), scored("b", 70)}
	ranked := Rank(deals, 0)

	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "c", ranked[2].ID)
}

func TestRankTieBreaksByID(t *testing.T) {
	deals := []*deal.Deal{scored("zz", 70), scored("aa", 70), scored("mm", 70)}
	ranked := Rank(deals, 0)

	assert.Equal(t, "aa", ranked[0].ID)
	assert.Equal(t, "mm", ranked[1].ID)
	assert.Equal(t, "zz", ranked[2].ID)

	// shuffled input lands in the same order
	again := Rank([]*deal.Deal{deals[2], deals[0], deals[1]}, 0)
	for i := range ranked {
		assert.Equal(t, ranked[i].ID, again[i].ID)
	}
}

func TestRankMinDiscountFilter(t *testing.T) {
	deep := scored("deep", 80)
	deep.MSRP = decimal.RequireFromString("100.00")
	deep.Price = decimal.RequireFromString("50.00")

	shallow := scored("shallow", 60)
	shallow.MSRP = decimal.RequireFromString("100.00")
	shallow.Price = decimal.RequireFromString("95.00")

	unknown := scored("unknown", 40) // no msrp, discount unknowable

	ranked := Rank([]*deal.Deal{deep, shallow, unknown}, 20)
	require.Len(t, ranked, 2)
	assert.Equal(t, "deep", ranked[0].ID)
	// unknown discount always passes the filter
	assert.Equal(t, "unknown", ranked[1].ID)
}

func TestRankIdempotent(t *testing.T) {
	deals := []*deal.Deal{scored("b", 70), scored("a", 90)}
	once := Rank(deals, 0)
	twice := Rank(once, 0)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, once[i].ID, twice[i].ID)
	}
}

func TestTopBySport(t *testing.T) {
	soccer1 := scored("s1", 90)
	soccer1.Sport = deal.SportSoccer
	soccer2 := scored("s2", 50)
	soccer2.Sport = deal.SportSoccer
	soccer3 := scored("s3", 70)
	soccer3.Sport = deal.SportSoccer
	hockey := scored("h1", 60)
	hockey.Sport = deal.SportHockey
	unsported := scored("u1", 99)

	groups := TopBySport([]*deal.Deal{soccer1, soccer2, soccer3, hockey, unsported}, 2)
	require.Len(t, groups, 2)
	require.Len(t, groups[deal.SportSoccer], 2)
	assert.Equal(t, "s1", groups[deal.SportSoccer][0].ID)
	assert.Equal(t, "s3", groups[deal.SportSoccer][1].ID)
	assert.Len(t, groups[deal.SportHockey], 1)
}

func TestTopByCategory(t *testing.T) {
	shoe := scored("f1", 80)
	shoe.Category = deal.CategoryFootwear
	ball := scored("e1", 70)
	ball.Category = deal.CategoryEquipment

	groups := TopByCategory([]*deal.Deal{shoe, ball}, 5)
	assert.Len(t, groups[deal.CategoryFootwear], 1)
	assert.Len(t, groups[deal.CategoryEquipment], 1)
}

func TestFilterYouthAndLimit(t *testing.T) {
	y := scored("y", 80)
	y.YouthFlag = true
	sized := scored("s", 70)
	sized.Sizes = []string{"1Y", "2Y"}
	adult := scored("a", 90)
	adult.Sizes = []string{"10", "11"}

	youth := FilterYouth([]*deal.Deal{y, sized, adult})
	require.Len(t, youth, 2)

	assert.Len(t, Limit(youth, 1), 1)
	assert.Len(t, Limit(youth, 10), 2)
}

// Three dissimilar records survive ranking together, each with a
// real composite score.
func TestRankScenario(t *testing.T) {
	s := &Scorer{}

	mk := func(title, brand, retailer, price, msrp string, sport deal.Sport, cat deal.Category, youth bool) *deal.Deal {
		d := &deal.Deal{
			Title:     title,
			Brand:     brand,
			Retailer:  retailer,
			Price:     decimal.RequireFromString(price),
			MSRP:      decimal.RequireFromString(msrp),
			Sport:     sport,
			Category:  cat,
			YouthFlag: youth,
			SourceURL: "https://example.com/" + retailer,
		}
		d.Normalize()
		d.AssignID()
		return d
	}

	batch := []*deal.Deal{
		mk("Nike Youth Basketball Shoe", "Nike", "academy", "45.00", "90.00", deal.SportBasketball, deal.CategoryFootwear, true),
		mk("Nike Adult Running Shoe", "Nike", "dicks", "60.00", "120.00", deal.SportRunning, deal.CategoryFootwear, false),
		mk("Wilson Youth Baseball Glove", "Wilson", "big5", "30.00", "60.00", deal.SportBaseball, deal.CategoryEquipment, true),
	}

	s.ScoreAll(batch)
	ranked := Rank(batch, 20)

	require.Len(t, ranked, 3)
	for i, d := range ranked {
		assert.True(t, d.Scored)
		assert.GreaterOrEqual(t, d.Score, 0.0)
		assert.LessOrEqual(t, d.Score, 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score, d.Score)
		}
	}
}
