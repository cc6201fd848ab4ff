// Package media renders the final vertical video: N still images spread
// across an audio-determined timeline, cross-faded pairwise, with the
// voiceover attached.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"storyshort/internal/domain"
)

type AssemblerOptions struct {
	Prober DurationProber

	// Geometry and encode settings. Zero values select the 1080x1920
	// 30fps H.264/AAC defaults.
	Width        int
	Height       int
	Crossfade    float64
	FrameRate    int
	VideoBitrate string
	AudioBitrate string

	Logger zerolog.Logger
}

// DurationProber reports a media file's duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type Assembler struct {
	prober       DurationProber
	width        int
	height       int
	crossfade    float64
	frameRate    int
	videoBitrate string
	audioBitrate string
	log          zerolog.Logger
}

func NewAssembler(opts AssemblerOptions) *Assembler {
	a := &Assembler{
		prober:       opts.Prober,
		width:        opts.Width,
		height:       opts.Height,
		crossfade:    opts.Crossfade,
		frameRate:    opts.FrameRate,
		videoBitrate: opts.VideoBitrate,
		audioBitrate: opts.AudioBitrate,
		log:          opts.Logger,
	}
	if a.width <= 0 {
		a.width = 1080
	}
	if a.height <= 0 {
		a.height = 1920
	}
	if a.crossfade < 0 {
		a.crossfade = 0
	}
	if a.frameRate <= 0 {
		a.frameRate = 30
	}
	if a.videoBitrate == "" {
		a.videoBitrate = "2000k"
	}
	if a.audioBitrate == "" {
		a.audioBitrate = "192k"
	}
	return a
}

// timeline is the per-clip schedule for a render. With crossfades of length
// cf between each adjacent pair, the assembled length is n*per - (n-1)*cf,
// so per is inflated to make that product equal the audio duration exactly.
type timeline struct {
	per       float64
	crossfade float64
	// offsets[k] is where the k-th crossfade begins in the accumulated
	// stream: (k+1)*(per-cf).
	offsets []float64
}

func (t timeline) total(n int) float64 {
	return float64(n)*t.per - float64(n-1)*t.crossfade
}

func planTimeline(n int, audioDuration, crossfade float64) (timeline, error) {
	if n < 1 {
		return timeline{}, fmt.Errorf("%w: need at least 1 image", domain.ErrInvalidInput)
	}
	if audioDuration <= 0 {
		return timeline{}, fmt.Errorf("%w: audio duration %.3fs", domain.ErrInvalidInput, audioDuration)
	}
	if n == 1 {
		return timeline{per: audioDuration, crossfade: 0}, nil
	}
	per := (audioDuration + float64(n-1)*crossfade) / float64(n)
	// A crossfade longer than the resulting clip is a configuration error,
	// reported rather than clamped.
	if per <= 0 || per <= crossfade {
		return timeline{}, fmt.Errorf("%w: per-image duration %.3fs with %.3fs crossfade over %d images", domain.ErrInvalidInput, per, crossfade, n)
	}
	offsets := make([]float64, n-1)
	for k := range offsets {
		offsets[k] = float64(k+1) * (per - crossfade)
	}
	return timeline{per: per, crossfade: crossfade, offsets: offsets}, nil
}

// Assemble renders images and the audio file into an MP4 inside dir (a
// fresh temporary directory when dir is empty) and returns the output path.
// The audio duration is probed here rather than trusted from the caller.
func (a *Assembler) Assemble(ctx context.Context, images [][]byte, audioPath, dir string) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("%w: need at least 1 image", domain.ErrInvalidInput)
	}

	audioDuration, err := a.prober.Duration(ctx, audioPath)
	if err != nil {
		return "", err
	}
	plan, err := planTimeline(len(images), audioDuration, a.crossfade)
	if err != nil {
		return "", err
	}
	a.log.Debug().
		Int("images", len(images)).
		Float64("audio_seconds", audioDuration).
		Float64("per_image_seconds", plan.per).
		Msg("planned video timeline")

	if dir == "" {
		dir, err = os.MkdirTemp("", "video-")
		if err != nil {
			return "", fmt.Errorf("%w: create video dir: %v", domain.ErrRenderFailure, err)
		}
	}
	staging, err := os.MkdirTemp(dir, "frames-")
	if err != nil {
		return "", fmt.Errorf("%w: create staging dir: %v", domain.ErrRenderFailure, err)
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = filepath.Join(staging, fmt.Sprintf("img_%03d.jpg", i))
		if err := os.WriteFile(paths[i], img, 0o644); err != nil {
			return "", fmt.Errorf("%w: stage image %d: %v", domain.ErrRenderFailure, i, err)
		}
	}

	outPath := filepath.Join(dir, "output.mp4")
	if err := a.render(paths, audioPath, outPath, plan); err != nil {
		return "", err
	}
	return outPath, nil
}

func (a *Assembler) render(imagePaths []string, audioPath, outPath string, plan timeline) error {
	video := a.clip(imagePaths[0], plan.per)
	for i := 1; i < len(imagePaths); i++ {
		video = ffmpeg.Filter(
			[]*ffmpeg.Stream{video, a.clip(imagePaths[i], plan.per)},
			"xfade", ffmpeg.Args{},
			ffmpeg.KwArgs{
				"transition": "fade",
				"duration":   formatSeconds(plan.crossfade),
				"offset":     formatSeconds(plan.offsets[i-1]),
			},
		)
	}

	audio := ffmpeg.Input(audioPath).Audio()

	var stderr bytes.Buffer
	err := ffmpeg.Output(
		[]*ffmpeg.Stream{video, audio},
		outPath,
		ffmpeg.KwArgs{
			"c:v":     "libx264",
			"c:a":     "aac",
			"b:v":     a.videoBitrate,
			"b:a":     a.audioBitrate,
			"r":       strconv.Itoa(a.frameRate),
			"pix_fmt": "yuv420p",
		},
	).OverWriteOutput().Silent(true).WithErrorOutput(&stderr).Run()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: ffmpeg: %s", domain.ErrRenderFailure, detail)
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("%w: no output file produced: %v", domain.ErrRenderFailure, err)
	}
	return nil
}

// clip turns one still image into a video stream of the planned duration:
// scaled to cover the target frame (by height, or by width when the scaled
// width falls short), center-cropped to exactly width x height.
func (a *Assembler) clip(path string, per float64) *ffmpeg.Stream {
	size := fmt.Sprintf("%d:%d", a.width, a.height)
	return ffmpeg.Input(path, ffmpeg.KwArgs{"loop": 1, "t": formatSeconds(per)}).
		Filter("scale", ffmpeg.Args{size}, ffmpeg.KwArgs{"force_original_aspect_ratio": "increase"}).
		Filter("crop", ffmpeg.Args{size}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{strconv.Itoa(a.frameRate)}).
		Filter("format", ffmpeg.Args{"yuv420p"})
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
