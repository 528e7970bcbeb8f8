package suitability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestParseCombine(t *testing.T) {
	tests := []struct {
		in      string
		want    Combine
		wantErr bool
	}{
		{"Yes", CombineYes, false},
		{"yes", CombineYes, false},
		{" YES ", CombineYes, false},
		{"No", CombineNo, false},
		{"no", CombineNo, false},
		{"", CombineNo, false},
		{"maybe", "", true},
		{"1", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCombine(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseTable(t *testing.T) {
	table := `path,min,optimal_from,optimal_to,max,combine
a.asc,0,40,60,100,No
b.asc,0,20,30,50,Yes
c.asc,,,,,
`
	layers, warnings, err := ParseTable(strings.NewReader(table))
	require.NoError(t, err)
	require.Len(t, layers, 3)
	assert.Empty(t, warnings)

	assert.Equal(t, 0, layers[0].Index)
	assert.Equal(t, "a.asc", layers[0].Path)
	assert.Equal(t, 40.0, *layers[0].OptimalFrom)
	assert.Equal(t, CombineNo, layers[0].Combine)

	assert.Equal(t, CombineYes, layers[1].Combine)

	assert.Nil(t, layers[2].Min)
	assert.Nil(t, layers[2].OptimalFrom)
	assert.Equal(t, CombineNo, layers[2].Combine)
}

func TestParseTableFirstLayerForcedNo(t *testing.T) {
	table := "path,combine\na.asc,Yes\nb.asc,Yes\n"
	layers, warnings, err := ParseTable(strings.NewReader(table))
	require.NoError(t, err)

	assert.Equal(t, CombineNo, layers[0].Combine)
	assert.Equal(t, CombineYes, layers[1].Combine)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "overridden")
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{"empty table", "path,combine\n"},
		{"missing path", "path,combine\n,No\n"},
		{"inverted optimal range", "path,optimal_from,optimal_to\na.asc,60,40\n"},
		{"invalid combine", "path,combine\na.asc,No\nb.asc,sometimes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseTable(strings.NewReader(tt.table))
			assert.Error(t, err)
		})
	}
}

func TestParseTableRangeWarnings(t *testing.T) {
	table := "path,min,optimal_from,optimal_to,max\na.asc,10,5,120,100\n"
	layers, warnings, err := ParseTable(strings.NewReader(table))
	require.NoError(t, err)
	require.Len(t, layers, 1)

	// Violations are reported, not silently corrected.
	assert.Equal(t, 5.0, *layers[0].OptimalFrom)
	assert.Equal(t, 120.0, *layers[0].OptimalTo)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "optimal_from")
	assert.Contains(t, warnings[1], "optimal_to")
}

func TestLogLine(t *testing.T) {
	l := Layer{
		Index:       2,
		Path:        "soil_ph.asc",
		Min:         f(0),
		Max:         f(14),
		OptimalFrom: f(5.5),
		OptimalTo:   f(7),
		Combine:     CombineYes,
	}
	assert.Equal(t, "2: soil_ph.asc ; 0 ; 5.5 ; 14 ; 7 ; Yes", l.LogLine())

	unset := Layer{Index: 0, Path: "a.asc", Combine: CombineNo}
	assert.Equal(t, "0: a.asc ;  ;  ;  ;  ; No", unset.LogLine())
}
