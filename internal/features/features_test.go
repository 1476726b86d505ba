package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/storepulse/internal/dataset"
)

func TestDeriveTimeFeatures(t *testing.T) {
	in := &dataset.Table{Records: []dataset.Record{
		{OrderID: "A", OrderDate: time.Date(2016, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{OrderID: "B", OrderDate: time.Date(2017, time.February, 1, 0, 0, 0, 0, time.UTC)},
	}}

	out := DeriveTimeFeatures(in)
	require.True(t, out.HasTimeFeatures)
	require.Equal(t, time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC), out.Records[0].Month)
	require.Equal(t, 2016, out.Records[0].Year)
	require.Equal(t, time.Date(2017, time.February, 1, 0, 0, 0, 0, time.UTC), out.Records[1].Month)
	require.Equal(t, 2017, out.Records[1].Year)
	require.True(t, out.Records[0].Month.Before(out.Records[1].Month))

	// input untouched
	require.False(t, in.HasTimeFeatures)
	require.True(t, in.Records[0].Month.IsZero())
	require.Zero(t, in.Records[0].Year)
}

func TestEnsure(t *testing.T) {
	in := &dataset.Table{Records: []dataset.Record{{OrderDate: time.Date(2016, time.March, 3, 0, 0, 0, 0, time.UTC)}}}
	derived := Ensure(in)
	require.NotSame(t, in, derived)
	require.Same(t, derived, Ensure(derived))
}
