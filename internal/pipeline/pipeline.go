// Package pipeline drives the end-to-end topic-to-video flow: draft a
// script, find and download imagery, synthesize a voiceover, and render the
// assembled vertical video.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storyshort/internal/domain"
	"storyshort/internal/providers/voice"
	"storyshort/internal/storage"
)

// ScriptWriter drafts narration text for a topic. An empty string with a nil
// error means drafting was unavailable and the caller must supply a script.
type ScriptWriter interface {
	Generate(ctx context.Context, topic string, duration time.Duration) (string, error)
}

// ImageSearcher resolves a query into downloadable image URLs.
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
}

// ImageFetcher downloads a batch of URLs, preserving input order.
type ImageFetcher interface {
	FetchAll(ctx context.Context, urls []string) ([][]byte, error)
}

// VoiceSynthesizer turns a script into an audio file and reports its duration.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, script string, pref voice.Preference, dir string) (string, float64, error)
}

// VideoAssembler renders images plus an audio track into a video file.
type VideoAssembler interface {
	Assemble(ctx context.Context, images [][]byte, audioPath, dir string) (string, error)
}

type Options struct {
	Scripts ScriptWriter
	Images  ImageSearcher
	Fetcher ImageFetcher
	Voice   VoiceSynthesizer
	Video   VideoAssembler

	// Store receives the finished artifacts. Optional; when nil the files
	// stay in the run workspace only.
	Store *storage.FileStore

	// WorkDir hosts per-run workspaces. Empty means the system temp dir.
	WorkDir string

	Logger zerolog.Logger
}

type Pipeline struct {
	scripts ScriptWriter
	images  ImageSearcher
	fetcher ImageFetcher
	voice   VoiceSynthesizer
	video   VideoAssembler
	store   *storage.FileStore
	workDir string
	log     zerolog.Logger
}

func New(opts Options) *Pipeline {
	return &Pipeline{
		scripts: opts.Scripts,
		images:  opts.Images,
		fetcher: opts.Fetcher,
		voice:   opts.Voice,
		video:   opts.Video,
		store:   opts.Store,
		workDir: opts.WorkDir,
		log:     opts.Logger,
	}
}

type Request struct {
	Topic      string
	Duration   int
	ImageCount int
	Voice      voice.Preference

	// Script, when non-empty, skips drafting and is narrated as-is.
	Script string
}

type Result struct {
	RunID         string
	Script        string
	ImageURLs     []string
	AudioPath     string
	AudioDuration float64
	VideoPath     string

	// StoredAudioKey and StoredVideoKey are set when a store is configured.
	StoredAudioKey string
	StoredVideoKey string
}

// Run executes the full flow. The per-run workspace keeps the voiceover and
// the rendered video; intermediate staging files are cleaned up before
// returning.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", domain.ErrInvalidInput)
	}
	if req.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidInput)
	}
	if req.ImageCount <= 0 {
		return nil, fmt.Errorf("%w: image count must be positive", domain.ErrInvalidInput)
	}

	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Str("topic", topic).Logger()

	dir, err := p.runDir(runID)
	if err != nil {
		return nil, err
	}

	script := strings.TrimSpace(req.Script)
	if script == "" && p.scripts != nil {
		script, err = p.scripts.Generate(ctx, topic, time.Duration(req.Duration)*time.Second)
		if err != nil {
			return nil, err
		}
		script = strings.TrimSpace(script)
	}
	if script == "" {
		return nil, fmt.Errorf("%w: no script available; drafting is disabled or failed and none was supplied", domain.ErrInvalidInput)
	}
	log.Info().Int("words", len(strings.Fields(script))).Msg("script ready")

	urls, err := p.images.Search(ctx, topic, req.ImageCount)
	if err != nil {
		return nil, err
	}
	imgs, err := p.fetcher.FetchAll(ctx, urls)
	if err != nil {
		return nil, err
	}
	log.Info().Int("requested", req.ImageCount).Int("downloaded", len(imgs)).Msg("images fetched")

	audioPath, audioDuration, err := p.voice.Synthesize(ctx, script, req.Voice, dir)
	if err != nil {
		return nil, err
	}
	log.Info().Float64("seconds", audioDuration).Msg("voiceover synthesized")

	videoPath, err := p.video.Assemble(ctx, imgs, audioPath, dir)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", videoPath).Msg("video rendered")

	res := &Result{
		RunID:         runID,
		Script:        script,
		ImageURLs:     urls,
		AudioPath:     audioPath,
		AudioDuration: audioDuration,
		VideoPath:     videoPath,
	}
	if p.store != nil {
		if err := p.publish(ctx, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (p *Pipeline) runDir(runID string) (string, error) {
	base := p.workDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "run-"+runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create run workspace: %v", domain.ErrRenderFailure, err)
	}
	return dir, nil
}

func (p *Pipeline) publish(ctx context.Context, res *Result) error {
	audio, err := os.ReadFile(res.AudioPath)
	if err != nil {
		return fmt.Errorf("%w: read voiceover for publish: %v", domain.ErrRenderFailure, err)
	}
	video, err := os.ReadFile(res.VideoPath)
	if err != nil {
		return fmt.Errorf("%w: read video for publish: %v", domain.ErrRenderFailure, err)
	}
	audioKey, err := p.store.Write(ctx, path(res.RunID, "voiceover.mp3"), audio)
	if err != nil {
		return err
	}
	videoKey, err := p.store.Write(ctx, path(res.RunID, "output.mp4"), video)
	if err != nil {
		return err
	}
	res.StoredAudioKey = audioKey
	res.StoredVideoKey = videoKey
	return nil
}

func path(runID, name string) string {
	return runID + "/" + name
}
