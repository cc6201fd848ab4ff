// Command storyshort renders one vertical video from a topic in a single
// run: draft (or read) a script, search and download imagery, synthesize a
// voiceover, assemble the video.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storyshort/internal/credentials"
	"storyshort/internal/fetch"
	"storyshort/internal/infra"
	"storyshort/internal/media"
	"storyshort/internal/pipeline"
	"storyshort/internal/providers/imagesearch"
	"storyshort/internal/providers/script"
	"storyshort/internal/providers/voice"
	"storyshort/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	topic := flag.String("topic", "", "topic to narrate (required)")
	duration := flag.Int("duration", 40, "target video length in seconds")
	imageCount := flag.Int("images", 5, "number of background images")
	voicePref := flag.String("voice", "auto", "voice provider: auto, elevenlabs or gtts")
	scriptFile := flag.String("script-file", "", "narrate this file instead of drafting a script")
	outPath := flag.String("out", "", "copy the finished video here")
	flag.Parse()

	if *topic == "" {
		flag.Usage()
		return fmt.Errorf("-topic is required")
	}

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger := infra.NewLogger(cfg.AppEnv)

	var manualScript string
	if *scriptFile != "" {
		data, err := os.ReadFile(*scriptFile)
		if err != nil {
			return fmt.Errorf("read script file: %w", err)
		}
		manualScript = string(data)
	}

	creds := credentials.NewStore(
		credentials.Static{
			credentials.KeyOpenAI:     cfg.OpenAIAPIKey,
			credentials.KeyPexels:     cfg.PexelsAPIKey,
			credentials.KeyElevenLabs: cfg.ElevenLabsAPIKey,
		},
		credentials.NewFileSource(cfg.SecretsFile),
	)

	prober := media.NewFFProbe()

	var store *storage.FileStore
	if cfg.OutputDir != "" {
		store, err = storage.NewFileStore(cfg.OutputDir)
		if err != nil {
			return err
		}
	}

	pipe := pipeline.New(pipeline.Options{
		Scripts: script.NewOpenAIWriter(script.OpenAIOptions{
			Credentials:    creds,
			Model:          cfg.OpenAIModel,
			BaseURL:        cfg.OpenAIBaseURL,
			WordsPerSecond: cfg.WordsPerSecond,
			TruncateRatio:  cfg.TruncateRatio,
			OnFallback: func(reason string, err error) {
				logger.Warn().Err(err).Str("reason", reason).Msg("script drafting unavailable")
			},
		}),
		Images: imagesearch.NewPexelsClient(imagesearch.PexelsOptions{
			Credentials: creds,
			BaseURL:     cfg.PexelsBaseURL,
			MaxPages:    cfg.MaxSearchPages,
		}),
		Fetcher: fetch.NewDownloader(fetch.DownloaderOptions{
			Timeout:     cfg.FetchTimeout,
			Parallelism: cfg.FetchParallel,
			Logger:      logger,
		}),
		Voice: voice.NewSynthesizer(voice.SynthesizerOptions{
			Premium: voice.NewElevenLabs(voice.ElevenLabsOptions{
				Credentials: creds,
				VoiceID:     cfg.ElevenLabsVoiceID,
				BaseURL:     cfg.ElevenLabsBaseURL,
			}),
			Free: voice.NewGoogleTranslate(voice.GoogleTranslateOptions{
				BaseURL: cfg.TranslateTTSURL,
			}),
			Prober: prober,
			Logger: logger,
		}),
		Video: media.NewAssembler(media.AssemblerOptions{
			Prober:       prober,
			Width:        cfg.TargetWidth,
			Height:       cfg.TargetHeight,
			Crossfade:    cfg.CrossfadeSec,
			FrameRate:    cfg.FrameRate,
			VideoBitrate: cfg.VideoBitrate,
			AudioBitrate: cfg.AudioBitrate,
			Logger:       logger,
		}),
		Store:   store,
		WorkDir: cfg.WorkDir,
		Logger:  logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := pipe.Run(ctx, pipeline.Request{
		Topic:      *topic,
		Duration:   *duration,
		ImageCount: *imageCount,
		Voice:      voice.Preference(*voicePref),
		Script:     manualScript,
	})
	if err != nil {
		return err
	}

	if *outPath != "" {
		if err := copyFile(res.VideoPath, *outPath); err != nil {
			return err
		}
		fmt.Println(*outPath)
		return nil
	}
	fmt.Println(res.VideoPath)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
