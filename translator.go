package packlate

import (
	"context"
	"encoding/json"
	"math"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/packlate/markup"
)

// Translator runs one localization pass over a pack.
//
// A Translator owns the rate-limit gate for its run; construct a new one per
// run so that a tripped gate does not leak into the next.
type Translator struct {
	backend          Backend
	gate             *Gate
	cache            TranslationCache
	logger           *zap.Logger
	context          string
	charLimit        int
	maxContinuations int
	concurrency      int
	checkMarkup      bool
	progress         func(done, total int)
}

// Backend is the capability interface implemented by translation backends.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// CharLimit is the source length at or above which entries are skipped.
	// Zero or negative means unlimited.
	CharLimit() int
	// OpenSession establishes a conversational context carrying the fixed
	// system instruction.
	OpenSession(ctx context.Context) (Session, error)
}

// Session is an open conversation with a backend.
type Session interface {
	// Send submits one message and returns the full reply.
	Send(ctx context.Context, text string) (Reply, error)
	// Close releases backend-side resources.
	Close(ctx context.Context) error
}

// Reply is one backend answer.
type Reply struct {
	Text      string
	Truncated bool // The reply was cut short by an output-length limit
}

// TranslationCache is the interface for the translation memory.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithCache sets the translation memory.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) TranslatorOption {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithContext describes where the strings come from. It is passed to the
// backend prompt and scopes translation memory keys.
func WithContext(ctx string) TranslatorOption {
	return func(t *Translator) {
		t.context = ctx
	}
}

// WithCharLimit overrides the backend's character limit.
func WithCharLimit(limit int) TranslatorOption {
	return func(t *Translator) {
		t.charLimit = limit
	}
}

// WithMaxContinuations caps how many "continue" messages are sent for one
// truncated reply.
func WithMaxContinuations(n int) TranslatorOption {
	return func(t *Translator) {
		if n >= 0 {
			t.maxContinuations = n
		}
	}
}

// WithConcurrency sets how many entries are translated at once. Values below
// 2 select the sequential model.
func WithConcurrency(n int) TranslatorOption {
	return func(t *Translator) {
		t.concurrency = n
	}
}

// WithMarkupCheck drops translated values whose markup tags differ from the
// source's.
func WithMarkupCheck(enabled bool) TranslatorOption {
	return func(t *Translator) {
		t.checkMarkup = enabled
	}
}

// WithProgress registers a callback invoked after each entry completes.
func WithProgress(fn func(done, total int)) TranslatorOption {
	return func(t *Translator) {
		t.progress = fn
	}
}

// WithGate shares an existing gate instead of creating a fresh one.
func WithGate(g *Gate) TranslatorOption {
	return func(t *Translator) {
		if g != nil {
			t.gate = g
		}
	}
}

// NewTranslator creates a Translator for one run against backend.
func NewTranslator(backend Backend, opts ...TranslatorOption) *Translator {
	t := &Translator{
		backend:          backend,
		gate:             NewGate(),
		logger:           zap.NewNop(),
		maxContinuations: DefaultMaxContinuations,
		concurrency:      1,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// TranslateEntry translates one entry. It never fails: on any problem the
// entry is returned unchanged and the outcome says why.
func (t *Translator) TranslateEntry(ctx context.Context, entry LocalizedString) (LocalizedString, Outcome) {
	log := t.logger.With(zap.String("simple_name", entry.SimpleName), zap.String("key", entry.Key))

	if outcome, skip := t.precheck(entry); skip {
		if outcome == OutcomeTooLong {
			log.Warn("source exceeds character limit; cannot translate",
				zap.Int("limit", t.CharLimit()),
				zap.Int("length", utf8.RuneCountInString(entry.Source())))
		}
		return entry, outcome
	}

	if tr, ok := t.lookupCache(entry, log); ok {
		return t.merge(entry, tr, log), OutcomeCached
	}

	tr, err := t.requestTranslation(ctx, entry.Source(), log)
	if err != nil {
		if IsRateLimited(err) {
			if t.gate.Trip() {
				log.Warn("backend rate limit reached; skipping remaining entries", zap.Error(err))
			}
			return entry, OutcomeRateLimited
		}
		log.Error("translation failed", zap.String("backend", t.backend.Name()), zap.Error(err))
		return entry, OutcomeFailed
	}

	t.storeCache(entry, tr, log)
	return t.merge(entry, tr, log), OutcomeTranslated
}

// TranslatePack translates every entry of pack and returns a new pack with the
// same length and order.
func (t *Translator) TranslatePack(ctx context.Context, pack *Pack) (*Pack, Stats) {
	if t.concurrency > 1 {
		return t.translatePackParallel(ctx, pack)
	}

	total := pack.Len()
	out := &Pack{LocalizedStrings: make([]LocalizedString, 0, total)}
	var stats Stats

	for i := 0; i < total; i++ {
		result, outcome := t.TranslateEntry(ctx, pack.LocalizedStrings[i])
		out.LocalizedStrings = append(out.LocalizedStrings, result)
		stats.Add(outcome)
		t.reportProgress(i+1, total)
	}

	t.logSummary(stats)
	return out, stats
}

// PlanResult describes what a run would do without contacting the backend.
type PlanResult struct {
	Stats   Stats
	Pending []LocalizedString // Entries that would be sent to the backend
}

// Plan applies the skip policies and translation memory to pack without any
// network calls.
func (t *Translator) Plan(pack *Pack) PlanResult {
	var res PlanResult
	for i := 0; i < pack.Len(); i++ {
		entry := pack.LocalizedStrings[i]
		if outcome, skip := t.precheck(entry); skip {
			res.Stats.Add(outcome)
			continue
		}
		if _, ok := t.lookupCache(entry, t.logger); ok {
			res.Stats.Add(OutcomeCached)
			continue
		}
		res.Stats.Total++
		res.Pending = append(res.Pending, entry)
	}
	return res
}

// Gate returns the run's rate-limit gate.
func (t *Translator) Gate() *Gate {
	return t.gate
}

// Backend returns the configured backend.
func (t *Translator) Backend() Backend {
	return t.backend
}

// CharLimit returns the effective source character limit.
func (t *Translator) CharLimit() int {
	limit := t.charLimit
	if limit <= 0 {
		limit = t.backend.CharLimit()
	}
	if limit <= 0 {
		return math.MaxInt
	}
	return limit
}

// precheck applies the checks that need no network call.
func (t *Translator) precheck(entry LocalizedString) (Outcome, bool) {
	switch {
	case t.gate.Tripped():
		return OutcomeRateLimited, true
	case entry.FullyTranslated():
		return OutcomeAlreadyTranslated, true
	case entry.Source() == "":
		return OutcomeNoSource, true
	case utf8.RuneCountInString(entry.Source()) >= t.CharLimit():
		return OutcomeTooLong, true
	}
	return OutcomeTranslated, false
}

func (t *Translator) cacheKey(entry LocalizedString) string {
	scope := t.context
	if scope == "" {
		scope = "general"
	}
	return CacheKey(HashText(entry.Source()), scope)
}

func (t *Translator) lookupCache(entry LocalizedString, log *zap.Logger) (Translation, bool) {
	if t.cache == nil {
		return Translation{}, false
	}

	cached, ok := t.cache.Get(t.cacheKey(entry))
	if !ok {
		return Translation{}, false
	}

	var tr Translation
	if err := json.Unmarshal([]byte(cached), &tr); err != nil {
		log.Warn("ignoring corrupt translation memory entry",
			zap.Error(&CacheError{Message: "decoding cached translation", Cause: err}))
		return Translation{}, false
	}
	return tr, true
}

func (t *Translator) storeCache(entry LocalizedString, tr Translation, log *zap.Logger) {
	if t.cache == nil {
		return
	}

	data, err := json.Marshal(tr)
	if err != nil {
		return
	}
	if err := t.cache.Set(t.cacheKey(entry), string(data)); err != nil {
		log.Warn("failed to store translation memory entry",
			zap.Error(&CacheError{Message: "storing translation", Cause: err}))
	}
}

func (t *Translator) merge(entry LocalizedString, tr Translation, log *zap.Logger) LocalizedString {
	if t.checkMarkup {
		for _, lang := range Languages {
			v := tr.Get(lang)
			if v != nil && !markup.Preserved(entry.Source(), *v) {
				log.Warn("dropping translation with altered markup", zap.String("lang", string(lang)))
				tr.Set(lang, nil)
			}
		}
	}
	return entry.Merge(tr)
}

func (t *Translator) reportProgress(done, total int) {
	if t.progress != nil {
		t.progress(done, total)
	}
}

func (t *Translator) logSummary(stats Stats) {
	t.logger.Info("pack translation finished",
		zap.String("backend", t.backend.Name()),
		zap.Int("total", stats.Total),
		zap.Int("translated", stats.Translated),
		zap.Int("cached", stats.Cached),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped_already_translated", stats.AlreadyTranslated),
		zap.Int("skipped_too_long", stats.TooLong),
		zap.Int("skipped_rate_limited", stats.RateLimited),
		zap.Int("skipped_no_source", stats.NoSource),
	)
}
