package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vickotoAguilera/BoletasScaner/constants"
	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
	"github.com/vickotoAguilera/BoletasScaner/internal/stats"
)

func rec(merchant string, gross int64, category constants.Category, city string, date time.Time) *entity.Receipt {
	net := gross - gross*19/119 // rough split; identity is what matters here
	return &entity.Receipt{
		OwnerID:       "user-1",
		MerchantName:  merchant,
		City:          city,
		PurchaseDate:  date,
		TotalGross:    gross,
		TotalNet:      net,
		TotalTax:      gross - net,
		PaymentMethod: constants.PaymentEfectivo,
		Category:      category,
	}
}

func sampleSet() []*entity.Receipt {
	return []*entity.Receipt{
		rec("Lider", 11900, constants.Supermercado, "Santiago", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)),
		rec("Cruz Verde", 5000, constants.Farmacia, "Valparaíso", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)),
		rec("Jumbo", 8000, constants.Supermercado, "Santiago", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func TestAggregate_Empty(t *testing.T) {
	res := stats.Aggregate(nil)

	assert.Empty(t, res.ByCategory)
	assert.Empty(t, res.ByCity)
	assert.Empty(t, res.ByMonth)
	assert.Equal(t, 0, res.Grand.RecordCount)
	assert.Equal(t, int64(0), res.Grand.TotalGross)
	assert.Equal(t, int64(0), res.Grand.AverageGross)
	assert.Nil(t, res.Grand.DateMin)
	assert.Nil(t, res.Grand.DateMax)
	assert.Equal(t, stats.None, res.Grand.MostFrequentCategory)
	assert.Equal(t, stats.None, res.Grand.TopCityByGross)
}

func TestAggregate_ByCategory(t *testing.T) {
	res := stats.Aggregate(sampleSet())

	require.Len(t, res.ByCategory, 2)
	assert.Equal(t, "supermercado", res.ByCategory[0].Key)
	assert.Equal(t, 2, res.ByCategory[0].Count)
	assert.Equal(t, int64(19900), res.ByCategory[0].GrossSum)
	assert.Equal(t, "farmacia", res.ByCategory[1].Key)
	assert.Equal(t, 1, res.ByCategory[1].Count)
	assert.Equal(t, int64(5000), res.ByCategory[1].GrossSum)

	// Percentages against the grand total, and both numeric and formatted.
	assert.InDelta(t, 79.9, res.ByCategory[0].Percent, 0.1)
	assert.Equal(t, "79.9%", res.ByCategory[0].PercentLabel)
	assert.InDelta(t, 100.0, res.ByCategory[0].Percent+res.ByCategory[1].Percent, 0.001)
}

func TestAggregate_ByMonth(t *testing.T) {
	res := stats.Aggregate(sampleSet())

	require.Len(t, res.ByMonth, 2)
	jan, feb := res.ByMonth[0], res.ByMonth[1]
	assert.Equal(t, "2025-01", jan.Label())
	assert.Equal(t, 2, jan.Count)
	assert.Equal(t, int64(16900), jan.GrossSum)
	assert.Equal(t, int64(8450), jan.Average)
	assert.Equal(t, "2025-02", feb.Label())
	assert.Equal(t, 1, feb.Count)
	assert.Equal(t, int64(8000), feb.GrossSum)
}

func TestAggregate_Grand(t *testing.T) {
	res := stats.Aggregate(sampleSet())
	g := res.Grand

	assert.Equal(t, 3, g.RecordCount)
	assert.Equal(t, int64(24900), g.TotalGross)
	assert.Equal(t, g.TotalGross, g.TotalNet+g.TotalTax)
	assert.Equal(t, int64(11900), g.MaxGross)
	assert.Equal(t, int64(5000), g.MinGross)
	assert.Equal(t, int64(8300), g.AverageGross)
	assert.Equal(t, "supermercado", g.MostFrequentCategory)
	assert.Equal(t, "Santiago", g.TopCityByGross)
	require.NotNil(t, g.DateMin)
	require.NotNil(t, g.DateMax)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), *g.DateMin)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *g.DateMax)
}

func TestAggregate_GrandExtremesWithNegativeTotals(t *testing.T) {
	// Aggregation is pure and takes records as they are; extremes must hold
	// even when every total sits below zero.
	records := []*entity.Receipt{
		rec("A", -500, constants.Otro, "Santiago", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		rec("B", -100, constants.Otro, "Santiago", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
		rec("C", -300, constants.Otro, "Santiago", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)),
	}

	res := stats.Aggregate(records)
	assert.Equal(t, int64(-100), res.Grand.MaxGross)
	assert.Equal(t, int64(-500), res.Grand.MinGross)
}

func TestAggregate_ViewsShareGrandTotal(t *testing.T) {
	res := stats.Aggregate(sampleSet())

	var byCat, byCity int64
	for _, b := range res.ByCategory {
		byCat += b.GrossSum
	}
	for _, b := range res.ByCity {
		byCity += b.GrossSum
	}
	assert.Equal(t, res.Grand.TotalGross, byCat)
	assert.Equal(t, res.Grand.TotalGross, byCity)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	set := sampleSet()
	reversed := []*entity.Receipt{set[2], set[1], set[0]}

	assert.Equal(t, stats.Aggregate(set), stats.Aggregate(reversed))
}

func TestAggregate_TieBreaks(t *testing.T) {
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	set := []*entity.Receipt{
		rec("A", 1000, constants.Farmacia, "Arica", d),
		rec("B", 1000, constants.Alimentos, "Calama", d),
	}
	res := stats.Aggregate(set)

	// Equal gross: key ascending wins the presentation order.
	require.Len(t, res.ByCategory, 2)
	assert.Equal(t, "alimentos", res.ByCategory[0].Key)
	assert.Equal(t, "farmacia", res.ByCategory[1].Key)

	// Equal counts: first bucket in view order is the most frequent.
	assert.Equal(t, "alimentos", res.Grand.MostFrequentCategory)
	assert.Equal(t, "Arica", res.Grand.TopCityByGross)
}

func TestAggregate_ZeroGrandTotalPercent(t *testing.T) {
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	set := []*entity.Receipt{rec("A", 0, constants.Otro, entity.CityUnspecified, d)}
	res := stats.Aggregate(set)

	require.Len(t, res.ByCategory, 1)
	assert.Equal(t, 0.0, res.ByCategory[0].Percent)
	assert.Equal(t, "0%", res.ByCategory[0].PercentLabel)
}
