package portfolio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaychengg/antig/internal/schema"
)

const messyCSV = `Ticker,SHARE,AVG COST,Unnamed: 3
nvda,10,$120.00,x
NVDA,10,"$140.00",
 tsm ,5,"1,000.00",
INTC,0,50.00,
`

func TestLoad_MessySpreadsheet(t *testing.T) {
	positions, err := Load(strings.NewReader(messyCSV))
	require.NoError(t, err)

	// INTC nets to zero shares and is dropped as closed.
	require.Len(t, positions, 2)

	assert.Equal(t, schema.CanonicalPosition{Ticker: "NVDA", Shares: 20, AvgCost: 130}, positions[0])
	assert.Equal(t, schema.CanonicalPosition{Ticker: "TSM", Shares: 5, AvgCost: 1000}, positions[1])
}

func TestParseCSV_DropsExportArtifacts(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(messyCSV))
	require.NoError(t, err)
	require.Len(t, records, 4)

	for _, rec := range records {
		for col := range rec {
			assert.NotContains(t, col, "Unnamed")
		}
	}
}

func TestParseCSV_SkipsBlankRows(t *testing.T) {
	csv := "Ticker,Shares,Avg Cost\nNVDA,1,100\n,,\n"
	records, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPositions_BadRowIdentified(t *testing.T) {
	csv := "Ticker,Shares,Avg Cost\nNVDA,10,100\nTSM,not-a-number,50\n"
	records, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)

	_, err = Positions(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "Shares")
}

func TestPositions_MissingColumnRejectsFile(t *testing.T) {
	csv := "Ticker,Shares\nNVDA,10\n"
	records, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)

	_, err = Positions(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Avg Cost")
}

func TestAggregate_WeightedAverageCost(t *testing.T) {
	out := Aggregate([]schema.CanonicalPosition{
		{Ticker: "NVDA", Shares: 10, AvgCost: 100},
		{Ticker: "NVDA", Shares: 30, AvgCost: 200},
	})
	require.Len(t, out, 1)
	assert.Equal(t, 40.0, out[0].Shares)
	assert.InDelta(t, 175.0, out[0].AvgCost, 1e-9)
}
