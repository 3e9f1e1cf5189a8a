package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voice-qa-go/internal/media"
	"voice-qa-go/internal/media/mediatest"
)

func writeFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckOrder(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name  string
		path  string
		gate  Gate
		want  error
		probe bool
	}{
		{"missing", filepath.Join(dir, "nope.wav"), Gate{}, media.ErrFileNotFound, false},
		{"directory", dir, Gate{}, media.ErrNotRegularFile, false},
		{"too large", writeFile(t, 2048), Gate{MaxBytes: 1024}, media.ErrLargeFile, false},
		{"format", writeFile(t, 10), Gate{}, media.ErrUnsupportedFormat, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := mediatest.Probe("pcm_s16le", "avi")
			tc.gate.Prober = media.NewTools(runner, "", "", nil)
			err := tc.gate.Check(context.Background(), tc.path)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if probed := runner.CallsTo("ffprobe") > 0; probed != tc.probe {
				t.Fatalf("probe called = %v, want %v", probed, tc.probe)
			}
		})
	}
}

func TestCheckCodecAllowList(t *testing.T) {
	g := Gate{Prober: media.NewTools(mediatest.Probe("vorbis", "ogg"), "", "", nil)}
	err := g.Check(context.Background(), writeFile(t, 10))
	if !errors.Is(err, media.ErrUnsupportedCodec) {
		t.Fatalf("expected unsupported codec, got %v", err)
	}
	if !strings.Contains(err.Error(), "vorbis") {
		t.Fatalf("message should name the codec: %q", err.Error())
	}
}

func TestCheckAcceptsFormatLists(t *testing.T) {
	g := Gate{Prober: media.NewTools(mediatest.Probe("aac", "mov,mp4,m4a,3gp,3g2,mj2"), "", "", nil)}
	if err := g.Check(context.Background(), writeFile(t, 10)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCheckCorruptProbe(t *testing.T) {
	runner := &mediatest.Runner{Func: func(string, []string) (media.CommandResult, error) {
		return media.CommandResult{Stdout: "\n"}, nil
	}}
	g := Gate{Prober: media.NewTools(runner, "", "", nil)}
	if err := g.Check(context.Background(), writeFile(t, 10)); !errors.Is(err, media.ErrCorruptAudio) {
		t.Fatalf("expected corrupt audio, got %v", err)
	}
}
