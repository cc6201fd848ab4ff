package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"storyshort/internal/domain"
)

// FFProbe measures media durations by decoding container metadata with
// ffprobe. This is the authoritative duration used everywhere downstream;
// nothing in the pipeline estimates duration from text length.
type FFProbe struct{}

func NewFFProbe() FFProbe { return FFProbe{} }

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the duration of the media file at path in seconds.
func (FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("%w: probe %s: %v", domain.ErrRenderFailure, path, err)
	}
	var out probeFormat
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return 0, fmt.Errorf("%w: decode probe output: %v", domain.ErrRenderFailure, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil || dur <= 0 {
		return 0, fmt.Errorf("%w: no duration in probe output for %s", domain.ErrRenderFailure, path)
	}
	return dur, nil
}
