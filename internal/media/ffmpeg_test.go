package media_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"voice-qa-go/internal/media"
	"voice-qa-go/internal/media/mediatest"
)

func TestProbeParsesCodecAndFormat(t *testing.T) {
	runner := mediatest.Probe("pcm_s16le", "wav")
	tools := media.NewTools(runner, "", "", nil)

	got, err := tools.Probe(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got.Codec != "pcm_s16le" || got.Format != "wav" {
		t.Fatalf("unexpected probe %+v", got)
	}
	calls := runner.Calls()
	want := []string{"-v", "error", "-select_streams", "a:0", "-show_entries", "stream=codec_name:format=format_name", "-of", "default=noprint_wrappers=1:nokey=1", "a.wav"}
	if len(calls) != 1 || calls[0].Name != "ffprobe" || !reflect.DeepEqual(calls[0].Args, want) {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestProbeCorruptSignals(t *testing.T) {
	cases := map[string]*mediatest.Runner{
		"single line": {Func: func(string, []string) (media.CommandResult, error) {
			return media.CommandResult{Stdout: "mp3\n"}, nil
		}},
		"non-zero exit": {Func: func(string, []string) (media.CommandResult, error) {
			return media.CommandResult{Stderr: "Invalid data found", ExitCode: 1}, errors.New("exit status 1")
		}},
	}
	for name, runner := range cases {
		_, err := media.NewTools(runner, "", "", nil).Probe(context.Background(), "bad.mp3")
		if !errors.Is(err, media.ErrCorruptAudio) {
			t.Errorf("%s: expected corrupt audio, got %v", name, err)
		}
	}
}

func TestProbeResultFormats(t *testing.T) {
	p := media.ProbeResult{Format: "mov,mp4,m4a,3gp,3g2,mj2"}
	if got := p.Formats(); len(got) != 6 || got[2] != "m4a" {
		t.Fatalf("unexpected formats %v", got)
	}
}

func TestEnhanceWritesSuffixedFile(t *testing.T) {
	runner := &mediatest.Runner{}
	dir := t.TempDir()
	out := media.NewTools(runner, "", "", nil).Enhance(context.Background(), "/in/talk.mp3", dir)
	if out != filepath.Join(dir, "talk_enhanced.mp3") {
		t.Fatalf("unexpected output %q", out)
	}
	args := runner.Calls()[0].Args
	if args[2] != "-af" || args[3] != media.EnhanceFilter || args[4] != "-y" {
		t.Fatalf("unexpected ffmpeg args %v", args)
	}
}

func TestEnhanceFallsBackToInput(t *testing.T) {
	runner := &mediatest.Runner{Func: func(string, []string) (media.CommandResult, error) {
		return media.CommandResult{ExitCode: -1}, errors.New("executable file not found")
	}}
	if out := media.NewTools(runner, "", "", nil).Enhance(context.Background(), "/in/talk.mp3", t.TempDir()); out != "/in/talk.mp3" {
		t.Fatalf("expected original path, got %q", out)
	}
}

func TestCheckDecodable(t *testing.T) {
	ok := media.NewTools(&mediatest.Runner{}, "", "", nil)
	if err := ok.CheckDecodable(context.Background(), "a.wav"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	noisy := media.NewTools(&mediatest.Runner{Func: func(string, []string) (media.CommandResult, error) {
		return media.CommandResult{Stderr: "Header missing"}, nil
	}}, "", "", nil)
	err := noisy.CheckDecodable(context.Background(), "a.mp3")
	if !errors.Is(err, media.ErrCorruptAudio) || !media.IsValidationError(err) {
		t.Fatalf("expected corrupt audio, got %v", err)
	}
}

func TestClipRejectsEmptyRange(t *testing.T) {
	runner := &mediatest.Runner{}
	tools := media.NewTools(runner, "", "", nil)
	if err := tools.Clip(context.Background(), "a.wav", 2, 2, "out.wav"); err == nil {
		t.Fatal("expected error")
	}
	if err := tools.Clip(context.Background(), "a.wav", 1.5, 3, "out.wav"); err != nil {
		t.Fatalf("clip: %v", err)
	}
	if got := runner.Calls()[0].Args[2]; got != "1.500" {
		t.Fatalf("unexpected start arg %q", got)
	}
}
