package yield

import "github.com/spf13/viper"

// Locale carries the language-specific vocabulary the extractor matches
// against log notes. The farm's stored history is Thai; the defaults below
// must keep parsing it byte-for-byte. Other deployments override these via
// configuration, not code.
type Locale struct {
	// FruitUnit, FromWord and ToWord build the explicit before/after
	// template: "<from> <N> <unit> <to> <N> <unit> (±N)".
	FruitUnit string
	FromWord  string
	ToWord    string

	IncreaseKeywords   []string
	DecreaseKeywords   []string
	HarvestKeywords    []string
	CorrectionKeywords []string

	// CandidateKeywords qualify a log for extraction when its activity type
	// is neither yield_update nor harvest.
	CandidateKeywords []string

	ReasonIncrease   string
	ReasonDecrease   string
	ReasonHarvest    string
	ReasonAdjustment string
	ReasonOther      string
}

// DefaultThaiLocale returns the vocabulary of the deployed farm's notes.
func DefaultThaiLocale() Locale {
	return Locale{
		FruitUnit:          "ลูก",
		FromWord:           "จาก",
		ToWord:             "เป็น",
		IncreaseKeywords:   []string{"เพิ่ม"},
		DecreaseKeywords:   []string{"ลด", "ร่วง", "เก็บ"},
		HarvestKeywords:    []string{"เก็บเกี่ยว", "เก็บ"},
		CorrectionKeywords: []string{"ปรับปรุง", "แก้ไข"},
		CandidateKeywords:  []string{"ลูก", "ผล"},
		ReasonIncrease:     "increase fruit",
		ReasonDecrease:     "decrease fruit",
		ReasonHarvest:      "harvest",
		ReasonAdjustment:   "adjustment",
		ReasonOther:        "other",
	}
}

// LocaleFromViper builds a Locale from configuration, falling back to the
// Thai defaults for any key left unset.
func LocaleFromViper(configViper *viper.Viper) Locale {
	locale := DefaultThaiLocale()
	if configViper == nil {
		return locale
	}

	if value := configViper.GetString("yield.fruit_unit"); value != "" {
		locale.FruitUnit = value
	}
	if value := configViper.GetString("yield.from_word"); value != "" {
		locale.FromWord = value
	}
	if value := configViper.GetString("yield.to_word"); value != "" {
		locale.ToWord = value
	}
	if values := configViper.GetStringSlice("yield.increase_keywords"); len(values) > 0 {
		locale.IncreaseKeywords = values
	}
	if values := configViper.GetStringSlice("yield.decrease_keywords"); len(values) > 0 {
		locale.DecreaseKeywords = values
	}
	if values := configViper.GetStringSlice("yield.harvest_keywords"); len(values) > 0 {
		locale.HarvestKeywords = values
	}
	if values := configViper.GetStringSlice("yield.correction_keywords"); len(values) > 0 {
		locale.CorrectionKeywords = values
	}
	if values := configViper.GetStringSlice("yield.candidate_keywords"); len(values) > 0 {
		locale.CandidateKeywords = values
	}
	return locale
}
