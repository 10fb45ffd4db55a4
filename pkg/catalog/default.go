package catalog

var defaultCatalog = MustNew([]Category{
	{
		Name:        "battery",
		Keywords:    []string{"battery", "charge", "charging", "voltage", "バッテリー", "充電", "電圧"},
		Description: "House or chassis battery, charging and state of charge problems",
		ClarificationQuestions: []string{
			"Is the problem with the house battery or the engine starting battery?",
			"What voltage does the battery monitor show at rest?",
		},
	},
	{
		Name:        "inverter",
		Keywords:    []string{"inverter", "100v", "ac outlet", "インバーター", "コンセント"},
		Description: "Inverter output, AC outlets and inverter fault alarms",
		ClarificationQuestions: []string{
			"Does the inverter show an error code or alarm light?",
			"Does the problem happen only when a large appliance is running?",
		},
	},
	{
		Name:        "solar",
		Keywords:    []string{"solar", "panel", "charge controller", "mppt", "ソーラー", "太陽光", "パネル"},
		Description: "Solar panels, wiring and charge controllers",
		ClarificationQuestions: []string{
			"Is the charge controller display showing any input current in full sun?",
		},
	},
	{
		Name:        "refrigerator",
		Keywords:    []string{"fridge", "refrigerator", "freezer", "cooling", "冷蔵庫", "冷凍"},
		Description: "Compressor and absorption refrigerators",
		ClarificationQuestions: []string{
			"Is the refrigerator running on 12V, AC or gas when it fails?",
			"Is the interior light working?",
		},
	},
	{
		Name:        "air_conditioner",
		Keywords:    []string{"air conditioner", "aircon", "a/c", "heater", "エアコン", "クーラー", "暖房"},
		Description: "Roof air conditioners and cabin heaters",
		ClarificationQuestions: []string{
			"Does the fan run even though it does not cool or heat?",
		},
	},
	{
		Name:        "water_system",
		Keywords:    []string{"water", "pump", "leak", "tank", "faucet", "水", "ポンプ", "水漏れ", "タンク"},
		Description: "Fresh and grey water tanks, pumps, plumbing and leaks",
		ClarificationQuestions: []string{
			"Can you hear the water pump running when a tap is opened?",
			"Is there water visible under the floor or around fittings?",
		},
	},
	{
		Name:        "toilet",
		Keywords:    []string{"toilet", "cassette", "flush", "トイレ", "カセット"},
		Description: "Cassette and fixed toilets, flush and seal problems",
	},
	{
		Name:        "gas",
		Keywords:    []string{"gas", "propane", "lpg", "stove", "burner", "ガス", "コンロ"},
		Description: "LPG supply, regulators, stoves and gas appliances",
		ClarificationQuestions: []string{
			"Do you smell gas near the bottle or the appliance?",
			"Do other gas appliances work normally?",
		},
	},
	{
		Name:        "engine",
		Keywords:    []string{"engine", "starter", "alternator", "won't start", "エンジン", "始動", "セルモーター"},
		Description: "Base vehicle engine, starting and alternator charging",
	},
	{
		Name:        "electrical",
		Keywords:    []string{"fuse", "breaker", "wiring", "light", "switch", "ヒューズ", "ブレーカー", "配線", "照明"},
		Description: "12V distribution, fuses, breakers, lighting and switches",
		ClarificationQuestions: []string{
			"Which circuits stopped working, and did they fail at the same time?",
		},
	},
	{
		Name:        "other",
		Description: "Anything that does not fit another category",
	},
})

// Default returns the built-in equipment catalog. The value is shared and read-only.
func Default() *Catalog {
	return defaultCatalog
}
