package knowledge

import (
	"strings"

	"github.com/zen-systems/repairdesk/pkg/catalog"
)

// KeywordRule maps one keyword or phrase to a category.
type KeywordRule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// KeywordMap is an ordered rule list used to gate categories for a query.
// Several rules may share a keyword.
type KeywordMap []KeywordRule

// KeywordMapFromCatalog turns every catalog keyword into a rule.
func KeywordMapFromCatalog(cat *catalog.Catalog) KeywordMap {
	var m KeywordMap
	for _, c := range cat.Categories() {
		for _, kw := range c.Keywords {
			m = append(m, KeywordRule{Keyword: kw, Category: c.Name})
		}
	}
	return m
}

// With returns a copy of m extended by synonyms, keyed by category.
func (m KeywordMap) With(synonyms map[string][]string, order ...string) KeywordMap {
	out := append(KeywordMap(nil), m...)
	for _, category := range order {
		for _, kw := range synonyms[category] {
			out = append(out, KeywordRule{Keyword: kw, Category: category})
		}
	}
	return out
}

func (m KeywordMap) lowered() KeywordMap {
	out := make(KeywordMap, 0, len(m))
	for _, r := range m {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" || r.Category == "" {
			continue
		}
		out = append(out, KeywordRule{Keyword: kw, Category: strings.ToLower(r.Category)})
	}
	return out
}

var synonymOrder = []string{
	"battery", "inverter", "solar", "refrigerator", "air_conditioner",
	"water_system", "toilet", "gas", "engine", "electrical",
}

var synonyms = map[string][]string{
	"battery": {
		"dead battery", "won't hold charge", "sub battery", "house battery", "lithium", "lifepo4",
		"battery monitor", "dc-dc", "サブバッテリー", "走行充電", "リチウム", "バッテリー上がり",
	},
	"inverter":        {"outlet", "ac power", "sine wave", "overload", "正弦波", "過負荷"},
	"solar":           {"controller", "photovoltaic", "pv", "チャージコントローラー", "発電しない"},
	"refrigerator":    {"not cold", "compressor", "absorption", "冷えない", "コンプレッサー"},
	"air_conditioner": {"not cooling", "thermostat", "ff heater", "ffヒーター", "冷房", "風が出ない"},
	"water_system":    {"no water", "drip", "plumbing", "grey water", "水が出ない", "配管", "給水", "排水"},
	"toilet":          {"blackwater", "seal", "汚物", "臭い"},
	"gas":             {"regulator", "smell gas", "cylinder", "ボンベ", "ガス臭い"},
	"engine":          {"cranking", "starter motor", "check engine", "オルタネーター", "かからない"},
	"electrical":      {"short circuit", "blown fuse", "12v", "relay", "ショート", "リレー", "点かない"},
}

// DefaultKeywordMap is the default catalog's keywords plus synonyms and phrases.
func DefaultKeywordMap() KeywordMap {
	return KeywordMapFromCatalog(catalog.Default()).With(synonyms, synonymOrder...)
}
