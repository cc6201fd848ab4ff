// Package voice converts a script into a speech-audio file, trying a premium
// provider first and falling back to a free one. The fallback chain is an
// explicit ordered list of named attempts, each classified as
// continue-to-next or propagate, so the policy is data instead of nested
// error handling.
package voice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"storyshort/internal/domain"
)

// Preference selects which providers may be tried and in what order.
type Preference string

const (
	// PreferenceAuto tries the premium provider and silently falls through
	// to the free one on any failure.
	PreferenceAuto Preference = "auto"
	// PreferenceElevenLabs uses the premium provider only; failures
	// propagate unchanged.
	PreferenceElevenLabs Preference = "elevenlabs"
	// PreferenceGTTS uses the free provider directly.
	PreferenceGTTS Preference = "gtts"
)

// Provider produces speech audio bytes for a script.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// DurationProber measures the duration of an audio file by decoding its
// container, never by estimating from text length.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type SynthesizerOptions struct {
	Premium Provider
	Free    Provider
	Prober  DurationProber
	Logger  zerolog.Logger
}

// Synthesizer renders a voiceover file and reports its measured duration.
type Synthesizer struct {
	premium Provider
	free    Provider
	prober  DurationProber
	log     zerolog.Logger
}

func NewSynthesizer(opts SynthesizerOptions) *Synthesizer {
	return &Synthesizer{
		premium: opts.Premium,
		free:    opts.Free,
		prober:  opts.Prober,
		log:     opts.Logger,
	}
}

// attempt is one step of the fallback chain.
type attempt struct {
	provider Provider
	// propagate marks a terminal step: its failure surfaces to the caller
	// instead of continuing down the chain.
	propagate bool
}

func (s *Synthesizer) chain(pref Preference) ([]attempt, error) {
	switch pref {
	case PreferenceAuto, "":
		return []attempt{
			{provider: s.premium, propagate: false},
			{provider: s.free, propagate: true},
		}, nil
	case PreferenceElevenLabs:
		return []attempt{{provider: s.premium, propagate: true}}, nil
	case PreferenceGTTS:
		return []attempt{{provider: s.free, propagate: true}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown voice preference %q", domain.ErrInvalidInput, pref)
	}
}

// Synthesize renders script into an MP3 inside dir (a fresh temporary
// directory when dir is empty) and returns the file path together with the
// probed duration in seconds. The file is not deleted; the caller owns it.
func (s *Synthesizer) Synthesize(ctx context.Context, script string, pref Preference, dir string) (string, float64, error) {
	steps, err := s.chain(pref)
	if err != nil {
		return "", 0, err
	}

	var audio []byte
	for _, step := range steps {
		audio, err = step.provider.Synthesize(ctx, script)
		if err == nil {
			break
		}
		if step.propagate {
			return "", 0, err
		}
		s.log.Debug().Err(err).Str("provider", step.provider.Name()).Msg("voice provider failed, falling back")
	}
	if err != nil {
		return "", 0, err
	}

	if dir == "" {
		dir, err = os.MkdirTemp("", "voice-")
		if err != nil {
			return "", 0, fmt.Errorf("create voice dir: %w", err)
		}
	}
	path := filepath.Join(dir, "voiceover.mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", 0, fmt.Errorf("write voiceover: %w", err)
	}

	duration, err := s.prober.Duration(ctx, path)
	if err != nil {
		return "", 0, fmt.Errorf("probe voiceover duration: %w", err)
	}
	return path, duration, nil
}
