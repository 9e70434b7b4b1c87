package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"soapbatch/app/client/whisper"

	"github.com/samber/do"
)

type Service struct {
	whisperClient *whisper.Client
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		whisperClient: do.MustInvoke[*whisper.Client](di),
	}, nil
}

// Transcribe re-encodes a voice note to wav and sends it to the
// transcription endpoint. Any failure returns an empty transcript;
// callers treat that as "couldn't understand".
func (s *Service) Transcribe(ctx context.Context, oggPath string) string {
	wavPath, err := convertToWav(ctx, oggPath)
	if err != nil {
		slog.Error("Failed to convert voice note", "error", err)
		return ""
	}
	defer os.Remove(wavPath)

	text, err := s.whisperClient.Transcribe(ctx, wavPath)
	if err != nil {
		slog.Error("Transcription failed", "error", err)
		return ""
	}

	return strings.TrimSpace(text)
}

// convertToWav shells out to ffmpeg to produce 16kHz mono pcm, the
// format the transcription endpoint expects.
func convertToWav(ctx context.Context, oggPath string) (string, error) {
	wavPath := strings.TrimSuffix(oggPath, ".ogg") + ".wav"

	args := []string{
		"-y",
		"-loglevel", "warning",
		"-i", oggPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		wavPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	slog.Debug("Running ffmpeg", "cmd", "ffmpeg "+strings.Join(args, " "))

	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, output)
	}

	return wavPath, nil
}
