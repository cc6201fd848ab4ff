// Package script drafts voiceover scripts sized to a target duration.
//
// The provider is deliberately forgiving: any failure — missing credential,
// transport error, bad status, malformed body — yields an empty script and a
// nil error. An empty result is the signal for the caller to ask the user
// for a manual script; it must never be treated as a failure.
package script

import (
	"context"
	"math"
	"strings"
	"time"
)

// defaultWordsPerSecond is the empirical speaking rate used to size scripts.
const defaultWordsPerSecond = 2.5

// defaultTruncateRatio caps generated scripts at ratio x the target word
// count. Observed behavior; no documented rationale beyond that.
const defaultTruncateRatio = 1.2

// Generator drafts a voiceover script for a topic and target duration.
type Generator interface {
	Generate(ctx context.Context, topic string, duration time.Duration) (string, error)
}

// TargetWords converts a duration into a word budget at the given speaking
// rate. rate <= 0 selects the default of 2.5 words per second.
func TargetWords(duration time.Duration, rate float64) int {
	if rate <= 0 {
		rate = defaultWordsPerSecond
	}
	return int(math.Round(duration.Seconds() * rate))
}

// truncateWords cuts text to at most max whole words. No ellipsis, no
// partial words.
func truncateWords(text string, max int) string {
	if max <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

// wordCap returns the hard ceiling for a given target word count.
func wordCap(target int, ratio float64) int {
	if ratio <= 0 {
		ratio = defaultTruncateRatio
	}
	return int(math.Floor(float64(target) * ratio))
}
