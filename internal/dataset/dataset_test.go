package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonthBucket(t *testing.T) {
	d := time.Date(2016, time.November, 8, 15, 4, 5, 0, time.FixedZone("x", 3600))
	require.Equal(t, time.Date(2016, time.November, 1, 0, 0, 0, 0, time.UTC), MonthBucket(d))
}

func TestParseMeasure(t *testing.T) {
	m, err := ParseMeasure(" Profit ")
	require.NoError(t, err)
	require.Equal(t, Profit, m)

	m, err = ParseMeasure("")
	require.NoError(t, err)
	require.Equal(t, Sales, m)

	_, err = ParseMeasure("margin")
	require.Error(t, err)
	require.Equal(t, "Quantity", Quantity.Title())
}

func TestMeasureValue_DiscountMissing(t *testing.T) {
	r := Record{Sales: 10, Quantity: 2}
	v, ok := Discount.Value(r)
	require.False(t, ok)
	require.Zero(t, v)

	v, ok = Quantity.Value(r)
	require.True(t, ok)
	require.Equal(t, 2.0, v)
}

func TestClone_Independent(t *testing.T) {
	tbl := &Table{Records: []Record{{OrderID: "A"}}}
	c := tbl.Clone()
	c.Records[0].OrderID = "B"
	require.Equal(t, "A", tbl.Records[0].OrderID)
	require.Equal(t, 1, c.Len())
	var nilTable *Table
	require.Zero(t, nilTable.Len())
}
