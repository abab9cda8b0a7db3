// Package analysis holds the pure text statistics behind /summary and
// /mood: word frequency over recent group messages and a crude
// positive/negative tone score.
package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Cristinuc/telegram-weather-bot/internal/history"
)

var (
	urlRe     = regexp.MustCompile(`https?://\S+`)
	nonWordRe = regexp.MustCompile(`[^a-zA-ZăâîșțĂÂÎȘȚ ]`)
)

// Romanian-specific characters used to detect the message language.
const roChars = "ăâîșț"

// negative and positive token lists for MoodScore.
var (
	negativeWords = []string{"nu", "prost", "nasol", "fail", "stupid"}
	positiveWords = []string{"ok", "bine", "perfect", "super"}
)

// WordCount is one entry of a frequency table.
type WordCount struct {
	Word  string
	Count int
}

// CleanText strips URLs and non-letter characters and lowercases the rest.
func CleanText(text string) string {
	text = urlRe.ReplaceAllString(text, "")
	text = nonWordRe.ReplaceAllString(text, " ")
	return strings.ToLower(text)
}

// TopWords returns the n most frequent words longer than three characters
// across the given messages, most frequent first. Ties break alphabetically
// so the result is deterministic.
func TopWords(msgs []history.Message, n int) []WordCount {
	counts := make(map[string]int)
	for _, m := range msgs {
		for _, w := range strings.Fields(CleanText(m.Text)) {
			if len([]rune(w)) > 3 {
				counts[w]++
			}
		}
	}

	res := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		res = append(res, WordCount{Word: w, Count: c})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Word < res[j].Word
	})
	if len(res) > n {
		res = res[:n]
	}
	return res
}

// Mood labels returned by Mood.
const (
	MoodRelaxed = "Relaxat"
	MoodTense   = "Tensionat"
	MoodNeutral = "Neutru"
)

// MoodScore sums positive hits minus negative hits over the messages.
func MoodScore(msgs []history.Message) int {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(strings.ToLower(m.Text))
		b.WriteByte(' ')
	}
	text := b.String()

	score := 0
	for _, w := range negativeWords {
		score -= strings.Count(text, w)
	}
	for _, w := range positiveWords {
		score += strings.Count(text, w)
	}
	return score
}

// Mood maps a score to the group's tone label.
func Mood(score int) string {
	switch {
	case score > 2:
		return MoodRelaxed
	case score < -2:
		return MoodTense
	default:
		return MoodNeutral
	}
}

// DetectLang guesses ro/en by the presence of Romanian diacritics.
func DetectLang(text string) string {
	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, roChars) {
		return "ro"
	}
	return "en"
}
