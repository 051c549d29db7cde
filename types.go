package packlate

// LocalizedString is one entry of a localization pack.
//
// Target-language fields are additive: once a field is populated it is never
// overwritten by a translation run.
type LocalizedString struct {
	Key              string  `json:"Key"`
	SimpleName       string  `json:"SimpleName"`
	ProcessTemplates bool    `json:"ProcessTemplates"`
	EnGB             *string `json:"enGB"`
	RuRU             *string `json:"ruRU"`
	DeDE             *string `json:"deDE"`
	FrFR             *string `json:"frFR"`
	ZhCN             *string `json:"zhCN"`
	EsES             *string `json:"esES"`
}

// Pack is an ordered collection of localized strings.
type Pack struct {
	LocalizedStrings []LocalizedString `json:"LocalizedStrings"`
}

// Len returns the number of entries in the pack.
func (p *Pack) Len() int {
	if p == nil {
		return 0
	}
	return len(p.LocalizedStrings)
}

// Translation is the decoded shape of one backend reply: one optional value
// per target language.
type Translation struct {
	RuRU *string `json:"ruRU"`
	DeDE *string `json:"deDE"`
	FrFR *string `json:"frFR"`
	ZhCN *string `json:"zhCN"`
	EsES *string `json:"esES"`
}

// Outcome describes what happened to a single entry during a run.
type Outcome int

const (
	// OutcomeTranslated means a backend reply was parsed and merged.
	OutcomeTranslated Outcome = iota
	// OutcomeCached means the translation came from the translation memory.
	OutcomeCached
	// OutcomeAlreadyTranslated means all five targets were already populated.
	OutcomeAlreadyTranslated
	// OutcomeTooLong means the source met or exceeded the backend's character limit.
	OutcomeTooLong
	// OutcomeRateLimited means the rate-limit gate was (or became) tripped.
	OutcomeRateLimited
	// OutcomeNoSource means the entry has no enGB text to translate.
	OutcomeNoSource
	// OutcomeFailed means the backend failed or the reply could not be parsed.
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeTranslated:        "translated",
	OutcomeCached:            "cached",
	OutcomeAlreadyTranslated: "already-translated",
	OutcomeTooLong:           "too-long",
	OutcomeRateLimited:       "rate-limited",
	OutcomeNoSource:          "no-source",
	OutcomeFailed:            "failed",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Stats aggregates entry outcomes for one run.
type Stats struct {
	Total             int `json:"total"`
	Translated        int `json:"translated"`
	Cached            int `json:"cached"`
	AlreadyTranslated int `json:"already_translated"`
	TooLong           int `json:"too_long"`
	RateLimited       int `json:"rate_limited"`
	NoSource          int `json:"no_source"`
	Failed            int `json:"failed"`
}

// Add records one outcome.
func (s *Stats) Add(o Outcome) {
	s.Total++
	switch o {
	case OutcomeTranslated:
		s.Translated++
	case OutcomeCached:
		s.Cached++
	case OutcomeAlreadyTranslated:
		s.AlreadyTranslated++
	case OutcomeTooLong:
		s.TooLong++
	case OutcomeRateLimited:
		s.RateLimited++
	case OutcomeNoSource:
		s.NoSource++
	case OutcomeFailed:
		s.Failed++
	}
}

// Skipped returns the number of entries that never reached the backend.
func (s Stats) Skipped() int {
	return s.AlreadyTranslated + s.TooLong + s.RateLimited + s.NoSource
}
