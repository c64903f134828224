// Package normalize turns raw user utterances into canonical slot values.
// Every function here is pure.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

// provinceSuffixes are Turkish locative endings, checked in this order.
var provinceSuffixes = []string{"'da", "'de", " da", " de", " ta", " te", " ili"}

var (
	outsideMarkers = []string{"disinda", "disarida", "disari", "osb disi", "outside"}
	insideMarkers  = []string{
		"icinde", "icerisinde", "osb ici", "osb'de", "osbde", "osb de", "bolgesinde", "inside",
	}
	// Short answers only count as whole words so "sorun yok" after an
	// inside marker does not flip the answer.
	negationPrefix = "degil"
	yesWords       = []string{"evet"}
	noWords        = []string{"hayir", "yok"}
)

var dotlessI = strings.NewReplacer("İ", "i", "I", "i", "ı", "i")

// Fold lower-cases text and strips diacritics so that Turkish spellings and
// their romanised variants compare equal ("Dışında" and "disinda").
func Fold(text string) string {
	lowered := strings.ToLower(dotlessI.Replace(text))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, lowered)
	if err != nil {
		return lowered
	}
	return out
}

// Province strips at most one trailing locative suffix and capitalises the
// first letter: "Ankara'da" -> "Ankara", "izmir ili" -> "Izmir".
func Province(text string) string {
	trimmed := strings.TrimSpace(text)
	result := trimmed
	chars := []rune(trimmed)
	for _, suffix := range provinceSuffixes {
		n := utf8.RuneCountInString(suffix)
		if len(chars) < n {
			continue
		}
		// Fold the tail so "İLİ" matches " ili" despite its byte length.
		if Fold(string(chars[len(chars)-n:])) == suffix {
			result = strings.TrimSpace(string(chars[:len(chars)-n]))
			break
		}
	}
	if result == "" {
		result = trimmed
	}
	return capitalize(result)
}

func District(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}
	return capitalize(trimmed)
}

// Sector keeps the utterance as-is apart from surrounding whitespace.
func Sector(text string) string {
	return strings.TrimSpace(text)
}

// ZoneStatus classifies free text as inside or outside an organised
// industrial zone. A negation after an inside marker makes it OUTSIDE, so
// "içinde değil" is OUTSIDE. ZoneUnknown means the caller should ask again.
func ZoneStatus(text string) types.ZoneStatus {
	folded := Fold(text)
	if folded == "" {
		return types.ZoneUnknown
	}
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	negated := false
	for _, w := range words {
		if strings.HasPrefix(w, negationPrefix) {
			negated = true
			break
		}
	}
	switch {
	case containsAny(folded, outsideMarkers):
		return types.ZoneOutside
	case containsAny(folded, insideMarkers):
		if negated {
			return types.ZoneOutside
		}
		return types.ZoneInside
	case negated || hasWord(words, noWords):
		return types.ZoneOutside
	case hasWord(words, yesWords):
		return types.ZoneInside
	}
	return types.ZoneUnknown
}

// Slot applies the normaliser belonging to slot and reports whether the
// result is usable.
func Slot(slot types.SlotName, text string) (string, bool) {
	var v string
	switch slot {
	case types.SlotSector:
		v = Sector(text)
	case types.SlotProvince:
		v = Province(text)
	case types.SlotDistrict:
		v = District(text)
	case types.SlotOSBStatus:
		v = string(ZoneStatus(text))
	}
	return v, v != ""
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func hasWord(words, set []string) bool {
	for _, w := range words {
		for _, s := range set {
			if w == s {
				return true
			}
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
