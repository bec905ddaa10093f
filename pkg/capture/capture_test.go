package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

func TestFileSource_Capture(t *testing.T) {
	dir := t.TempDir()

	t.Run("WAV ファイルを音声として読み込むこと", func(t *testing.T) {
		path := filepath.Join(dir, "voice.wav")
		if err := os.WriteFile(path, []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00"), 0o644); err != nil {
			t.Fatal(err)
		}
		clip, err := FileSource{Path: path}.Capture(context.Background())
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if clip.MimeType != "audio/wav" || clip.Empty() {
			t.Errorf("予期しない音声: %s (%d bytes)", clip.MimeType, len(clip.Data))
		}
	})

	t.Run("存在しないファイルは ErrAudioReadFailed になること", func(t *testing.T) {
		_, err := FileSource{Path: filepath.Join(dir, "missing.wav")}.Capture(context.Background())
		if !errors.Is(err, domain.ErrAudioReadFailed) {
			t.Errorf("ErrAudioReadFailed が期待されましたが %v でした", err)
		}
	})

	t.Run("音声でないファイルは ErrAudioReadFailed になること", func(t *testing.T) {
		path := filepath.Join(dir, "note.txt")
		if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := FileSource{Path: path}.Capture(context.Background())
		if !errors.Is(err, domain.ErrAudioReadFailed) {
			t.Errorf("ErrAudioReadFailed が期待されましたが %v でした", err)
		}
	})
}

func TestNewFFmpegRecorder(t *testing.T) {
	t.Run("上限を超える録音時間は切り詰められること", func(t *testing.T) {
		r := NewFFmpegRecorder(RecorderConfig{Duration: time.Hour})
		if r.cfg.Duration != MaxDuration {
			t.Errorf("期待値 %s, 実際の値 %s", MaxDuration, r.cfg.Duration)
		}
	})

	t.Run("引数に入力デバイスと録音時間が含まれること", func(t *testing.T) {
		r := NewFFmpegRecorder(RecorderConfig{InputFormat: "alsa", InputDevice: "hw:0", Duration: 5 * time.Second})
		args := r.args()
		for _, want := range []string{"alsa", "hw:0", "5.00", "libopus"} {
			if !slices.Contains(args, want) {
				t.Errorf("%q が含まれていません: %v", want, args)
			}
		}
	})

	t.Run("起動できないコマンドは ErrMicrophoneAccessDenied になること", func(t *testing.T) {
		r := NewFFmpegRecorder(RecorderConfig{Command: filepath.Join(t.TempDir(), "no-such-ffmpeg"), Duration: time.Second})
		_, err := r.Capture(context.Background())
		if !errors.Is(err, domain.ErrMicrophoneAccessDenied) {
			t.Errorf("ErrMicrophoneAccessDenied が期待されましたが %v でした", err)
		}
	})
}
