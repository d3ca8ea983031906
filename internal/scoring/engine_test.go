package scoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/weather"
)

func loadFruits(t *testing.T) []catalog.Fruit {
	t.Helper()
	cat, err := catalog.LoadDefault()
	require.NoError(t, err)
	return cat.List()
}

func londonMock() weather.WeatherSnapshot {
	return weather.MockSnapshot(weather.Location{City: "London"}, time.Now())
}

func TestScoreAndRankLondonTopThree(t *testing.T) {
	engine := NewEngine(DefaultWeights(), zerolog.Nop())
	fruits := loadFruits(t)

	first, err := engine.ScoreAndRank(fruits, londonMock(), 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	for i := 0; i < 5; i++ {
		again, err := engine.ScoreAndRank(loadFruits(t), londonMock(), 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Cloudy, humid, low-UV and mild: the only fruit matching every bucket wins.
	assert.Equal(t, "Beetroot", first[0].Name)
	assert.NotEmpty(t, first[0].Rationale)
}

func TestScoreAndRankLengthAndOrder(t *testing.T) {
	engine := NewEngine(DefaultWeights(), zerolog.Nop())
	fruits := loadFruits(t)

	for _, city := range []string{"Miami", "Tokyo", "Jalgaon", "Reykjavik", "Cairo"} {
		snap := weather.MockSnapshot(weather.Location{City: city}, time.Now())
		for _, topN := range []int{1, 3, len(fruits), len(fruits) + 5} {
			got, err := engine.ScoreAndRank(fruits, snap, topN)
			require.NoError(t, err)
			assert.Len(t, got, min(topN, len(fruits)), city)

			for i := 1; i < len(got); i++ {
				prev, cur := got[i-1], got[i]
				if prev.Score == cur.Score {
					assert.Less(t, prev.Name, cur.Name, "ties break by name")
				} else {
					assert.Greater(t, prev.Score, cur.Score)
				}
			}
		}
	}
}

func TestScoreAndRankTieBreaksByName(t *testing.T) {
	engine := NewEngine(DefaultWeights(), zerolog.Nop())
	base := loadFruits(t)[0]

	twins := make([]catalog.Fruit, 0, 3)
	for _, name := range []string{"Zucchini", "Apricot", "Mulberry"} {
		f := base
		f.Name = name
		twins = append(twins, f)
	}

	got, err := engine.ScoreAndRank(twins, londonMock(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Apricot", got[0].Name)
	assert.Equal(t, "Mulberry", got[1].Name)
	assert.Equal(t, "Zucchini", got[2].Name)
	assert.Equal(t, got[0].Score, got[2].Score)
}

func TestScoreAndRankInvalidArguments(t *testing.T) {
	engine := NewEngine(DefaultWeights(), zerolog.Nop())

	_, err := engine.ScoreAndRank(loadFruits(t), londonMock(), 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = engine.ScoreAndRank(nil, londonMock(), 3)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestConditionBuckets(t *testing.T) {
	tests := []struct {
		name string
		snap weather.WeatherSnapshot
		want []string
	}{
		{"london", weather.WeatherSnapshot{TemperatureC: 15, HumidityPct: 75, CloudCoverPct: 68, UVIndex: 2},
			[]string{catalog.TagHighHumidity, catalog.TagCloudy, catalog.TagLowUV, catalog.TagMild}},
		{"desert noon", weather.WeatherSnapshot{TemperatureC: 38, HumidityPct: 12, CloudCoverPct: 0, UVIndex: 11},
			[]string{catalog.TagDry, catalog.TagClear, catalog.TagHighUV, catalog.TagHot}},
		{"neutral", weather.WeatherSnapshot{TemperatureC: 10, HumidityPct: 55, CloudCoverPct: 45, UVIndex: 4},
			[]string{catalog.TagCold}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConditionBuckets(tt.snap))
		})
	}
}

func TestTemperatureFitDecreasesWithDistance(t *testing.T) {
	f := catalog.Fruit{TemperatureRange: catalog.TemperatureRange{Min: 10, Max: 20}}
	inside, _ := temperatureFit(f, 15, 5)
	near, _ := temperatureFit(f, 25, 5)
	far, _ := temperatureFit(f, 35, 5)

	assert.Equal(t, 1.0, inside)
	assert.InDelta(t, 0.5, near, 1e-9)
	assert.Less(t, far, near)
}

func TestCheaperFruitScoresHigherAllElseEqual(t *testing.T) {
	engine := NewEngine(DefaultWeights(), zerolog.Nop())
	base := loadFruits(t)[0]

	cheap, dear := base, base
	cheap.Name, cheap.CostPerKg = "Cheap", 0.5
	dear.Name, dear.CostPerKg = "Dear", 20

	got, err := engine.ScoreAndRank([]catalog.Fruit{dear, cheap}, londonMock(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Cheap", got[0].Name)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestLoadWeightsFromFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "weights.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cost": 40}`), 0o600))
	w, err := LoadWeightsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 40.0, w.Cost)
	assert.Equal(t, DefaultWeights().Affinity, w.Affinity)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"light": -1}`), 0o600))
	_, err = LoadWeightsFromFile(bad)
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))

	_, err = LoadWeightsFromFile(filepath.Join(dir, "missing.json"))
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	cases := map[string]func(w *Weights){
		"negative weight":     func(w *Weights) { w.UV = -0.5 },
		"zero temp scale":     func(w *Weights) { w.TempScaleC = 0 },
		"negative cost scale": func(w *Weights) { w.CostScale = -1 },
		"zero low light lux":  func(w *Weights) { w.LowLightLux = 0 },
		"all weights zero":    func(w *Weights) { *w = Weights{TempScaleC: 1, CostScale: 1, LowLightLux: 1} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			w := DefaultWeights()
			mutate(&w)
			assert.Error(t, w.Validate())
		})
	}
}

func TestNewEngineFallsBackToDefaults(t *testing.T) {
	engine := NewEngine(Weights{}, zerolog.Nop())
	assert.Equal(t, DefaultWeights(), engine.Weights())
}
