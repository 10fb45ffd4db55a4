package traversal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidencePct(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 60},
		{strings.Repeat("x", 9), 60},
		{strings.Repeat("x", 40), 64},
		{strings.Repeat("x", 349), 94},
		{strings.Repeat("x", 1000), 95},
		{strings.Repeat("漏", 40), 64},
	}
	for _, tt := range tests {
		if got := confidencePct(tt.text); got != tt.want {
			t.Fatalf("confidencePct(len=%d) = %d, want %d", len([]rune(tt.text)), got, tt.want)
		}
	}
}

func TestDiagnosisName(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Issue X\nmore", "Issue X"},
		{"\n\n  ## Corroded terminal  \nbody", "Corroded terminal"},
		{"#\n###\nReal title", "Real title"},
		{"#3 fuse blown\nreplace it", "#3 fuse blown"},
		{"### #2 relay stuck", "#2 relay stuck"},
		{"", GenericDiagnosisName},
		{"   \n  ", GenericDiagnosisName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, diagnosisName(tt.text), "text %q", tt.text)
	}
}

func TestUrgency(t *testing.T) {
	assert.Equal(t, UrgencyUrgent, urgency("Pump FAILURE detected"))
	assert.Equal(t, UrgencyUrgent, urgency("ガス漏れの可能性があります"))
	assert.Equal(t, UrgencyUrgent, urgency("Stop use until inspected"))
	assert.Equal(t, UrgencyCaution, urgency("Tighten the hose clamp"))
}

func TestCostEstimateUnknownCategoryUsesDefault(t *testing.T) {
	table := DefaultCostTable()
	for _, category := range []string{"", "unknown", "ロボット"} {
		got := table.Estimate(category)
		assert.Equal(t, "5,000-50,000円", got.PartsRange)
		assert.Equal(t, "10,000-30,000円", got.LaborRange)
		assert.Equal(t, "15,000-80,000円", got.TotalRange)
	}
}

func TestCostEstimateSumsTotal(t *testing.T) {
	table := NewCostTable(map[string]CostEntry{
		"fixed": {Parts: YenRange{1000, 1000}, Labor: YenRange{2000, 4000}},
	}, CostEntry{})
	got := table.Estimate("fixed")
	assert.Equal(t, "1,000円", got.PartsRange)
	assert.Equal(t, "2,000-4,000円", got.LaborRange)
	assert.Equal(t, "3,000-5,000円", got.TotalRange)
}

func TestLoadCostTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`default:
  parts: {min: 100, max: 200}
  labor: {min: 300, max: 400}
categories:
  gas:
    parts: {min: 5000, max: 6000}
    labor: {min: 1000, max: 1000}
`), 0o644))

	table, err := LoadCostTable(path)
	require.NoError(t, err)
	assert.Equal(t, "6,000-7,000円", table.Estimate("gas").TotalRange)
	assert.Equal(t, "400-600円", table.Estimate("other").TotalRange)

	_, err = LoadCostTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
