package knowledge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/repairdesk/pkg/catalog"
)

func TestRetrieveRanksByOccurrences(t *testing.T) {
	r := NewRetriever()
	entries := []Entry{
		{Category: "Battery", SourceType: SourceLocalText, OriginID: "notes/b.md", Content: "Replace the battery."},
		{Category: "Battery", SourceType: SourceLocalText, OriginID: "notes/a.md", Content: "Battery terminals corroded so the charge fails."},
	}

	got := r.Retrieve("battery charge", []Entry{entries[1], entries[0]}, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "notes/a.md", got[0].OriginID)
	assert.Equal(t, "notes/b.md", got[1].OriginID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRetrieveStableForEqualScores(t *testing.T) {
	r := NewRetriever()
	var entries []Entry
	for i := 0; i < 4; i++ {
		entries = append(entries, Entry{
			Category: "gas", SourceType: SourceStoredCase,
			OriginID: fmt.Sprintf("case-%d", i),
			Content:  fmt.Sprintf("Regulator %d: gas pressure low", i),
		})
	}

	first := r.Retrieve("gas", entries, 5)
	require.Len(t, first, 4)
	for i, res := range first {
		assert.Equal(t, fmt.Sprintf("case-%d", i), res.OriginID)
	}
	assert.Equal(t, first, r.Retrieve("gas", entries, 5))
}

func TestRetrieveCapsTopN(t *testing.T) {
	r := NewRetriever()
	var entries []Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, Entry{Category: "water_system", SourceType: SourceStoredCase, OriginID: fmt.Sprintf("c%d", i), Content: fmt.Sprintf("pump case %d", i)})
	}
	assert.Len(t, r.Retrieve("pump", entries, 0), DefaultTopN)
	assert.Len(t, r.Retrieve("pump", entries, 3), 3)
}

func TestRetrieveGatesByCategory(t *testing.T) {
	r := NewRetriever()
	entries := []Entry{
		{Category: "gas", SourceType: SourceStoredCase, OriginID: "g1", Content: "The stove will not light, pump the igniter."},
		{Category: "water_system", SourceType: SourceStoredCase, OriginID: "w1", Content: "The water pump runs but nothing comes out."},
	}

	got := r.Retrieve("water pump", entries, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "w1", got[0].OriginID)
}

func TestRetrieveRawCategoryFallback(t *testing.T) {
	r := NewRetriever(WithKeywordMap(nil))
	entries := []Entry{
		{Category: "Awning", SourceType: SourceLocalText, OriginID: "awning.md", Content: "Awning motor jams when extended."},
		{Category: "Step", SourceType: SourceLocalText, OriginID: "step.md", Content: "Motor for the electric step."},
	}
	got := r.Retrieve("awning motor", entries, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "awning.md", got[0].OriginID)
}

func TestRetrieveScansEverythingWhenNothingGates(t *testing.T) {
	r := NewRetriever(WithKeywordMap(nil))
	entries := []Entry{
		{Category: "x", SourceType: SourceLocalText, OriginID: "one", Content: "squeaky hinge"},
		{Category: "y", SourceType: SourceLocalText, OriginID: "two", Content: "rattling window"},
	}
	got := r.Retrieve("hinge", entries, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].OriginID)
}

func TestRetrieveSplitsSegments(t *testing.T) {
	r := NewRetriever()
	content := strings.Join([]string{
		"# Battery notes",
		"General info about cells.",
		"## Case 1: sulfation",
		"The battery would not charge. Used 「Noco Genius」 desulfator, cost 12,000円.",
		"【ケース2】 inverter alarm",
		"Inverter beeps under load.",
	}, "\n")
	entries := []Entry{{Category: "battery", SourceType: SourceLocalText, OriginID: "battery.md", Content: content}}

	got := r.Retrieve("battery charge", entries, 5)
	require.NotEmpty(t, got)
	top := got[0]
	assert.Equal(t, "battery.md#2", top.OriginID)
	assert.Equal(t, "Case 1: sulfation", top.Title)
	assert.Equal(t, []string{"12,000円"}, top.Costs)
	assert.Equal(t, []string{"Noco Genius"}, top.Tools)
	for _, res := range got {
		assert.NotContains(t, res.Snippet, "Inverter beeps")
	}
}

func TestRetrieveMergesSameOrigin(t *testing.T) {
	r := NewRetriever()
	entries := []Entry{
		{Category: "solar", SourceType: SourceExternalLink, OriginID: "https://example.com/mppt", Content: "Solar controller reset, see https://example.com/mppt. About 8000円."},
		{Category: "solar", SourceType: SourceExternalLink, OriginID: "https://example.com/mppt", Content: "Solar panel solar wiring check costs 3万円."},
	}

	got := r.Retrieve("solar", entries, 5)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/mppt", got[0].OriginID)
	assert.Contains(t, got[0].Snippet, "panel")
	assert.ElementsMatch(t, []string{"8000円", "3万円"}, got[0].Costs)
	assert.Equal(t, []string{"https://example.com/mppt"}, got[0].Links)
}

func TestRetrieveDedupesAcrossSourceTypes(t *testing.T) {
	r := NewRetriever()
	text := "Fridge not cold: clean the fridge vents and check the fridge fan."

	t.Run("higher score wins", func(t *testing.T) {
		entries := []Entry{
			{Category: "refrigerator", SourceType: SourceStoredCase, OriginID: "case-9", Content: text},
			{Category: "refrigerator", SourceType: SourceExternalLink, OriginID: "https://fridge.example/fan", Title: "Fridge fan guide", Content: text},
		}
		got := r.Retrieve("fridge fan", entries, 5)
		require.Len(t, got, 1)
		assert.Equal(t, SourceExternalLink, got[0].SourceType)
		assert.Equal(t, "https://fridge.example/fan", got[0].OriginID)
	})

	t.Run("tie keeps first seen", func(t *testing.T) {
		entries := []Entry{
			{Category: "refrigerator", SourceType: SourceStoredCase, OriginID: "case-9", Content: text},
			{Category: "refrigerator", SourceType: SourceExternalLink, OriginID: "https://fridge.example/guide", Content: text},
		}
		got := r.Retrieve("fridge fan", entries, 5)
		require.Len(t, got, 1)
		assert.Equal(t, SourceStoredCase, got[0].SourceType)
	})
}

func TestRetrieveDropsNonMatching(t *testing.T) {
	r := NewRetriever()
	entries := []Entry{{Category: "toilet", SourceType: SourceLocalText, OriginID: "t", Content: "Cassette seal replaced."}}
	assert.Empty(t, r.Retrieve("toilet flush", entries, 5))
	assert.Empty(t, r.Retrieve("   ", entries, 5))
}

func TestRetrieveWeakPartialMatch(t *testing.T) {
	r := NewRetriever(WithKeywordMap(nil))
	entries := []Entry{{Category: "misc", SourceType: SourceLocalText, OriginID: "m", Content: "Heavy corrosion on the connector."}}
	got := r.Retrieve("corroded", entries, 5)
	require.Len(t, got, 1)
	assert.Greater(t, got[0].Score, 0.0)
}

func TestRetrieveUnspacedJapaneseQuery(t *testing.T) {
	r := NewRetriever()
	entries := []Entry{
		{Category: "battery", SourceType: SourceStoredCase, OriginID: "case-1", Content: "バッテリーが充電できない。端子を清掃した。"},
		{Category: "battery", SourceType: SourceStoredCase, OriginID: "case-2", Content: "バッテリーの電圧が低い。充電できない場合は端子を点検。"},
		{Category: "battery", SourceType: SourceStoredCase, OriginID: "case-3", Content: "インバーターの警告音。"},
	}

	got := r.Retrieve("バッテリーが充電できない", entries, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "case-1", got[0].OriginID)
	assert.Equal(t, "case-2", got[1].OriginID)
	assert.Equal(t, 3*WeightWholeToken, got[0].Score)
	assert.Equal(t, 2*WeightWholeToken, got[1].Score)
}

func TestRetrieveSnippetBounded(t *testing.T) {
	r := NewRetriever()
	entries := []Entry{{Category: "engine", SourceType: SourceLocalText, OriginID: "e", Content: "engine " + strings.Repeat("長", 3000)}}
	got := r.Retrieve("engine", entries, 5)
	require.Len(t, got, 1)
	assert.LessOrEqual(t, len([]rune(got[0].Snippet)), 1500)
}

func TestRelevantCategories(t *testing.T) {
	r := NewRetriever()
	got := r.RelevantCategories("サブバッテリーが充電されない")
	assert.Contains(t, got, "battery")

	got = r.RelevantCategories("fridge compressor")
	assert.Equal(t, "refrigerator", got[0])

	custom := NewRetriever(WithKeywordMap(KeywordMapFromCatalog(catalog.MustNew([]catalog.Category{
		{Name: "Awning", Keywords: []string{"awning motor"}},
		{Name: "other"},
	}))))
	assert.Equal(t, []string{"awning"}, custom.RelevantCategories("motor"))
}
