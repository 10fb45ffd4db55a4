package traversal

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// CostEstimate is a displayable repair cost range.
type CostEstimate struct {
	PartsRange string `json:"parts_range"`
	LaborRange string `json:"labor_range"`
	TotalRange string `json:"total_range"`
}

// YenRange is an inclusive amount range in yen.
type YenRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (r YenRange) add(o YenRange) YenRange {
	return YenRange{Min: r.Min + o.Min, Max: r.Max + o.Max}
}

// CostEntry is the parts and labor range for one category.
type CostEntry struct {
	Parts YenRange `yaml:"parts"`
	Labor YenRange `yaml:"labor"`
}

// CostTable maps categories to cost ranges. Lookups never fail.
type CostTable struct {
	entries  map[string]CostEntry
	fallback CostEntry
	printer  *message.Printer
}

var defaultFallbackCost = CostEntry{
	Parts: YenRange{Min: 5000, Max: 50000},
	Labor: YenRange{Min: 10000, Max: 30000},
}

var defaultCosts = map[string]CostEntry{
	"battery":         {Parts: YenRange{20000, 150000}, Labor: YenRange{5000, 20000}},
	"inverter":        {Parts: YenRange{30000, 200000}, Labor: YenRange{10000, 30000}},
	"solar":           {Parts: YenRange{10000, 120000}, Labor: YenRange{10000, 40000}},
	"refrigerator":    {Parts: YenRange{10000, 150000}, Labor: YenRange{10000, 30000}},
	"air_conditioner": {Parts: YenRange{20000, 250000}, Labor: YenRange{15000, 50000}},
	"water_system":    {Parts: YenRange{3000, 30000}, Labor: YenRange{5000, 20000}},
	"toilet":          {Parts: YenRange{5000, 80000}, Labor: YenRange{5000, 20000}},
	"gas":             {Parts: YenRange{5000, 50000}, Labor: YenRange{10000, 30000}},
	"engine":          {Parts: YenRange{10000, 300000}, Labor: YenRange{15000, 80000}},
	"electrical":      {Parts: YenRange{500, 20000}, Labor: YenRange{5000, 20000}},
}

// NewCostTable builds a table. Categories missing from entries use fallback.
func NewCostTable(entries map[string]CostEntry, fallback CostEntry) *CostTable {
	copied := make(map[string]CostEntry, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &CostTable{
		entries:  copied,
		fallback: fallback,
		printer:  message.NewPrinter(language.Japanese),
	}
}

var defaultCostTable = NewCostTable(defaultCosts, defaultFallbackCost)

// DefaultCostTable returns the built-in table. The value is shared and read-only.
func DefaultCostTable() *CostTable {
	return defaultCostTable
}

type costFile struct {
	Default    *CostEntry           `yaml:"default"`
	Categories map[string]CostEntry `yaml:"categories"`
}

// LoadCostTable reads a YAML cost table. A missing default uses the built-in one.
func LoadCostTable(path string) (*CostTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cost table: %w", err)
	}
	var file costFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing cost table: %w", err)
	}
	fallback := defaultFallbackCost
	if file.Default != nil {
		fallback = *file.Default
	}
	return NewCostTable(file.Categories, fallback), nil
}

// Estimate returns the formatted ranges for category.
func (t *CostTable) Estimate(category string) CostEstimate {
	entry, ok := t.entries[category]
	if !ok {
		entry = t.fallback
	}
	return CostEstimate{
		PartsRange: t.format(entry.Parts),
		LaborRange: t.format(entry.Labor),
		TotalRange: t.format(entry.Parts.add(entry.Labor)),
	}
}

func (t *CostTable) format(r YenRange) string {
	if r.Min == r.Max {
		return t.printer.Sprintf("%d円", r.Min)
	}
	return t.printer.Sprintf("%d-%d円", r.Min, r.Max)
}
