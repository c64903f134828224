package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/normalize"
)

// DefaultKeywords covers incentive, investment, sector, production and support
// vocabulary plus product nouns that showed up often in real enquiries.
var DefaultKeywords = []string{
	"teşvik", "yatırım", "destek", "hibe", "sektör", "üretim", "üretmek", "imalat",
	"fabrika", "tesis", "kapasite", "makine", "vergi indirimi", "sgk prim", "faiz desteği",
	"yatırım teşvik belgesi", "nace",
	"incentive", "investment", "subsidy", "manufactur", "production",
	"çorap", "tekstil", "konfeksiyon", "kumaş", "iplik", "mobilya", "gıda", "un fabrikası",
	"ambalaj", "plastik", "seramik", "otomotiv", "yedek parça", "güneş enerjisi",
	"hayvancılık", "otel",
}

// LocalRecognizer is a plain substring test over a keyword set. No scoring
// and no negation handling.
type LocalRecognizer struct {
	keywords []string
}

func NewLocalRecognizer(keywords ...string) *LocalRecognizer {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = normalize.Fold(strings.TrimSpace(k)); k != "" {
			folded = append(folded, k)
		}
	}
	return &LocalRecognizer{keywords: folded}
}

func (r *LocalRecognizer) ShouldStartCollection(ctx context.Context, utterance string) (bool, error) {
	return r.Match(utterance), nil
}

// Match reports whether the folded utterance contains any keyword.
func (r *LocalRecognizer) Match(utterance string) bool {
	folded := normalize.Fold(utterance)
	if strings.TrimSpace(folded) == "" {
		return false
	}
	for _, k := range r.keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

// FailbackRecognizer asks each recognizer in turn and stops at the first
// positive answer. A recognizer that errors is skipped; the last error is
// returned only if no recognizer answered at all.
type FailbackRecognizer struct {
	recognizers []Recognizer
}

func NewFailbackRecognizer(recognizers ...Recognizer) *FailbackRecognizer {
	return &FailbackRecognizer{recognizers: recognizers}
}

func (r *FailbackRecognizer) ShouldStartCollection(ctx context.Context, utterance string) (bool, error) {
	var lastErr error
	answered := false
	for _, rec := range r.recognizers {
		ok, err := rec.ShouldStartCollection(ctx, utterance)
		if err != nil {
			lastErr = err
			continue
		}
		answered = true
		if ok {
			return true, nil
		}
	}
	if !answered && lastErr != nil {
		return false, fmt.Errorf("all intent recognizers failed: %w", lastErr)
	}
	return false, nil
}
