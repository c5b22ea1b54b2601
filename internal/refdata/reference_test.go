package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

func TestFind_RootAndDatedSymbols(t *testing.T) {
	ref := NewReference(zap.NewNop())

	cases := []struct {
		symbol string
		want   float64
	}{
		{"ES", 50},
		{"es", 50}, // case-insensitive
		{"NQH5", 20},
		{"ESZ25", 50},
		{"MESM4", 5},
		{"CLF25", 1000},
	}
	for _, tc := range cases {
		c, ok := ref.Find(tc.symbol)
		require.True(t, ok, "symbol %s", tc.symbol)
		assert.Equal(t, tc.want, c.PointValue, "symbol %s", tc.symbol)
	}
}

func TestFind_Unknown(t *testing.T) {
	ref := NewReference(zap.NewNop())

	for _, sym := range []string{"AAPL", "XXH5", "EUR/USD", ""} {
		_, ok := ref.Find(sym)
		assert.False(t, ok, "symbol %s", sym)
	}
}

func TestIsFuturesSymbol(t *testing.T) {
	ref := NewReference(zap.NewNop())

	assert.True(t, ref.IsFuturesSymbol("NQ"))
	assert.True(t, ref.IsFuturesSymbol("NQH5"))
	assert.True(t, ref.IsFuturesSymbol("ESZ25"))
	assert.False(t, ref.IsFuturesSymbol("MSFT"))
	assert.False(t, ref.IsFuturesSymbol("NQ123")) // three digit year is not a contract
	assert.False(t, ref.IsFuturesSymbol("H5"))    // no root
}

func TestSplitContractSymbol(t *testing.T) {
	cases := []struct {
		in   string
		root string
		ok   bool
	}{
		{"NQH5", "NQ", true},
		{"ESZ25", "ES", true},
		{"M2K", "", false}, // ends in a letter
		{"ZT", "", false},
		{"A5", "", false}, // nothing left for the root
	}
	for _, tc := range cases {
		root, ok := splitContractSymbol(tc.in)
		assert.Equal(t, tc.ok, ok, "symbol %s", tc.in)
		if tc.ok {
			assert.Equal(t, tc.root, root, "symbol %s", tc.in)
		}
	}
}

func TestMerge_OverridesAndValidates(t *testing.T) {
	ref := NewReference(zap.NewNop())

	ref.Merge([]models.FuturesContract{
		{Symbol: "es", PointValue: 25, Currency: "USD"}, // override, normalized
		{Symbol: "XX", PointValue: 7, Currency: "USD"},  // new root
		{Symbol: "", PointValue: 9},                     // ignored
		{Symbol: "YY", PointValue: 0},                   // ignored, no multiplier
	})

	c, ok := ref.Find("ES")
	require.True(t, ok)
	assert.Equal(t, 25.0, c.PointValue)

	_, ok = ref.Find("XXH5")
	assert.True(t, ok)

	_, ok = ref.Find("YY")
	assert.False(t, ok)
}

func TestSyncDatabase(t *testing.T) {
	gs, err := store.NewGormStore("file::memory:")
	require.NoError(t, err)
	db := gs.DB()

	ref := NewReference(zap.NewNop())
	require.NoError(t, ref.SyncDatabase(db))

	var count int64
	require.NoError(t, db.Model(&models.FuturesContract{}).Count(&count).Error)
	assert.Greater(t, count, int64(20))

	// A user-added row round-trips into the in-memory table.
	require.NoError(t, db.Create(&models.FuturesContract{Symbol: "XX", PointValue: 7, Currency: "EUR"}).Error)
	require.NoError(t, ref.SyncDatabase(db))

	c, ok := ref.Find("XX")
	require.True(t, ok)
	assert.Equal(t, 7.0, c.PointValue)
	assert.Equal(t, "EUR", c.Currency)

	// Running the sync twice must not duplicate seed rows.
	require.NoError(t, ref.SyncDatabase(db))
	var again int64
	require.NoError(t, db.Model(&models.FuturesContract{}).Count(&again).Error)
	assert.Equal(t, count+1, again)
}

func TestSyncDatabase_NilDBIsNoOp(t *testing.T) {
	ref := NewReference(zap.NewNop())
	require.NoError(t, ref.SyncDatabase(nil))

	_, ok := ref.Find("ES")
	assert.True(t, ok)
}
