package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"storyshort/internal/credentials"
	"storyshort/internal/fetch"
	"storyshort/internal/http/handlers"
	httpapi "storyshort/internal/http/httpapi"
	"storyshort/internal/infra"
	"storyshort/internal/media"
	"storyshort/internal/pipeline"
	"storyshort/internal/providers/imagesearch"
	"storyshort/internal/providers/script"
	"storyshort/internal/providers/voice"
	"storyshort/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	creds := credentials.NewStore(
		credentials.Static{
			credentials.KeyOpenAI:     cfg.OpenAIAPIKey,
			credentials.KeyPexels:     cfg.PexelsAPIKey,
			credentials.KeyElevenLabs: cfg.ElevenLabsAPIKey,
		},
		credentials.NewFileSource(cfg.SecretsFile),
	)

	scripts := script.NewOpenAIWriter(script.OpenAIOptions{
		Credentials:    creds,
		Model:          cfg.OpenAIModel,
		BaseURL:        cfg.OpenAIBaseURL,
		WordsPerSecond: cfg.WordsPerSecond,
		TruncateRatio:  cfg.TruncateRatio,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("script drafting unavailable")
		},
	})

	images := imagesearch.NewPexelsClient(imagesearch.PexelsOptions{
		Credentials: creds,
		BaseURL:     cfg.PexelsBaseURL,
		MaxPages:    cfg.MaxSearchPages,
	})

	fetcher := fetch.NewDownloader(fetch.DownloaderOptions{
		Timeout:     cfg.FetchTimeout,
		Parallelism: cfg.FetchParallel,
		Logger:      logger,
	})

	prober := media.NewFFProbe()
	voiceSynth := voice.NewSynthesizer(voice.SynthesizerOptions{
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
	})

	assembler := media.NewAssembler(media.AssemblerOptions{
		Prober:       prober,
		Width:        cfg.TargetWidth,
		Height:       cfg.TargetHeight,
		Crossfade:    cfg.CrossfadeSec,
		FrameRate:    cfg.FrameRate,
		VideoBitrate: cfg.VideoBitrate,
		AudioBitrate: cfg.AudioBitrate,
		Logger:       logger,
	})

	var store *storage.FileStore
	if cfg.OutputDir != "" {
		store, err = storage.NewFileStore(cfg.OutputDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize output store")
		}
	}

	pipe := pipeline.New(pipeline.Options{
		Scripts: scripts,
		Images:  images,
		Fetcher: fetcher,
		Voice:   voiceSynth,
		Video:   assembler,
		Store:   store,
		WorkDir: cfg.WorkDir,
		Logger:  logger,
	})

	app := &handlers.App{
		Scripts:   scripts,
		Images:    images,
		Downloads: fetcher,
		Voice:     voiceSynth,
		Pipe:      pipe,
		Logger:    logger,
		VoiceDir:  cfg.WorkDir,
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		AllowedOrigins:  splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func splitOrigins(v string) []string {
	var origins []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
