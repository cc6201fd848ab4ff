package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"storyshort/internal/domain"
	"storyshort/internal/providers/voice"
)

type fakeWriter struct {
	script string
	topic  string
}

func (f *fakeWriter) Generate(_ context.Context, topic string, _ time.Duration) (string, error) {
	f.topic = topic
	return f.script, nil
}

type fakeSearcher struct {
	urls  []string
	query string
	count int
}

func (f *fakeSearcher) Search(_ context.Context, query string, count int) ([]string, error) {
	f.query = query
	f.count = count
	return f.urls, nil
}

type fakeFetcher struct {
	images [][]byte
	urls   []string
}

func (f *fakeFetcher) FetchAll(_ context.Context, urls []string) ([][]byte, error) {
	f.urls = urls
	return f.images, nil
}

type fakeVoice struct {
	duration float64
	script   string
	pref     voice.Preference
}

func (f *fakeVoice) Synthesize(_ context.Context, script string, pref voice.Preference, dir string) (string, float64, error) {
	f.script = script
	f.pref = pref
	p := filepath.Join(dir, "voiceover.mp3")
	if err := os.WriteFile(p, []byte("mp3"), 0o644); err != nil {
		return "", 0, err
	}
	return p, f.duration, nil
}

type fakeAssembler struct {
	images    [][]byte
	audioPath string
}

func (f *fakeAssembler) Assemble(_ context.Context, images [][]byte, audioPath, dir string) (string, error) {
	f.images = images
	f.audioPath = audioPath
	p := filepath.Join(dir, "output.mp4")
	if err := os.WriteFile(p, []byte("mp4"), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

func TestRunEndToEnd(t *testing.T) {
	script := strings.Repeat("word ", 100)
	urls := []string{"u1", "u2", "u3", "u4", "u5"}
	images := [][]byte{{1}, {2}, {3}, {4}, {5}}

	writer := &fakeWriter{script: script}
	searcher := &fakeSearcher{urls: urls}
	fetcher := &fakeFetcher{images: images}
	voiceSynth := &fakeVoice{duration: 40}
	assembler := &fakeAssembler{}

	p := New(Options{
		Scripts: writer,
		Images:  searcher,
		Fetcher: fetcher,
		Voice:   voiceSynth,
		Video:   assembler,
		WorkDir: t.TempDir(),
		Logger:  zerolog.Nop(),
	})

	res, err := p.Run(context.Background(), Request{
		Topic:      "deep sea creatures",
		Duration:   40,
		ImageCount: 5,
		Voice:      voice.PreferenceAuto,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if writer.topic != "deep sea creatures" {
		t.Errorf("drafted topic = %q", writer.topic)
	}
	if searcher.count != 5 {
		t.Errorf("search count = %d, want 5", searcher.count)
	}
	if len(fetcher.urls) != 5 {
		t.Errorf("fetched %d urls, want 5", len(fetcher.urls))
	}
	if got := len(strings.Fields(voiceSynth.script)); got != 100 {
		t.Errorf("narrated %d words, want 100", got)
	}
	if voiceSynth.pref != voice.PreferenceAuto {
		t.Errorf("voice preference = %q", voiceSynth.pref)
	}
	if len(assembler.images) != 5 {
		t.Errorf("assembled %d images, want 5", len(assembler.images))
	}
	if assembler.audioPath != res.AudioPath {
		t.Errorf("assembler audio = %q, want %q", assembler.audioPath, res.AudioPath)
	}
	if res.AudioDuration != 40 {
		t.Errorf("audio duration = %v, want 40", res.AudioDuration)
	}
	if res.RunID == "" {
		t.Error("run id is empty")
	}
	for _, p := range []string{res.AudioPath, res.VideoPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("artifact %s missing: %v", p, err)
		}
	}
}

func TestRunProvidedScriptSkipsDrafting(t *testing.T) {
	writer := &fakeWriter{script: "must not be used"}
	voiceSynth := &fakeVoice{duration: 10}
	p := New(Options{
		Scripts: writer,
		Images:  &fakeSearcher{urls: []string{"u1"}},
		Fetcher: &fakeFetcher{images: [][]byte{{1}}},
		Voice:   voiceSynth,
		Video:   &fakeAssembler{},
		WorkDir: t.TempDir(),
		Logger:  zerolog.Nop(),
	})

	res, err := p.Run(context.Background(), Request{
		Topic:      "volcanoes",
		Duration:   10,
		ImageCount: 1,
		Script:     "my own narration",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if writer.topic != "" {
		t.Error("drafting ran despite a provided script")
	}
	if res.Script != "my own narration" {
		t.Errorf("script = %q", res.Script)
	}
	if voiceSynth.script != "my own narration" {
		t.Errorf("narrated = %q", voiceSynth.script)
	}
}

func TestRunNoScriptAvailable(t *testing.T) {
	p := New(Options{
		Scripts: &fakeWriter{script: ""}, // drafting unavailable
		Images:  &fakeSearcher{urls: []string{"u1"}},
		Fetcher: &fakeFetcher{images: [][]byte{{1}}},
		Voice:   &fakeVoice{duration: 10},
		Video:   &fakeAssembler{},
		WorkDir: t.TempDir(),
		Logger:  zerolog.Nop(),
	})

	_, err := p.Run(context.Background(), Request{Topic: "volcanoes", Duration: 10, ImageCount: 1})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRunRejectsBadRequest(t *testing.T) {
	p := New(Options{Logger: zerolog.Nop()})
	tests := []struct {
		name string
		req  Request
	}{
		{"empty topic", Request{Topic: "  ", Duration: 10, ImageCount: 1}},
		{"zero duration", Request{Topic: "x", Duration: 0, ImageCount: 1}},
		{"zero images", Request{Topic: "x", Duration: 10, ImageCount: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Run(context.Background(), tt.req); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
