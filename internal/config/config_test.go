package config

import (
	"os"
	"testing"
	"time"

	kitcfg "github.com/shouni/go-persona-kit/pkg/config"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Second},
		{"10s", 10 * time.Second},
		{"0", 0},
		{"abc", time.Second},
		{"-5s", time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.raw, time.Second); got != tt.want {
			t.Errorf("parseDuration(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("環境変数が読み込まれること", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("IMAGE_BACKEND", "openai")
		t.Setenv("RATE_INTERVAL", "500ms")
		t.Setenv("AUDIO_INPUT_DEVICE", "hw:1")

		cfg := LoadConfig()
		if cfg.Kit.GeminiAPIKey != "test-key" {
			t.Errorf("GeminiAPIKey = %q", cfg.Kit.GeminiAPIKey)
		}
		if cfg.Kit.ImageBackend != kitcfg.BackendOpenAI {
			t.Errorf("ImageBackend = %q", cfg.Kit.ImageBackend)
		}
		if cfg.Kit.RateInterval != 500*time.Millisecond {
			t.Errorf("RateInterval = %s", cfg.Kit.RateInterval)
		}
		if cfg.AudioDevice != "hw:1" {
			t.Errorf("AudioDevice = %q", cfg.AudioDevice)
		}
	})

	t.Run("未設定ならデフォルト値になること", func(t *testing.T) {
		for _, key := range []string{"GEMINI_MODEL", "FFMPEG_COMMAND"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		cfg := LoadConfig()
		if cfg.Kit.GeminiModel != kitcfg.DefaultGeminiModel {
			t.Errorf("GeminiModel = %q", cfg.Kit.GeminiModel)
		}
		if cfg.FFmpegCommand != DefaultFFmpegCommand {
			t.Errorf("FFmpegCommand = %q", cfg.FFmpegCommand)
		}
	})
}

func TestApplyOptions(t *testing.T) {
	cfg := &Config{Kit: kitcfg.DefaultConfig()}
	cfg.ApplyOptions(GenerateOptions{FailurePolicy: "retain_on_image_failure", ImageBackend: "gemini"})

	if cfg.Kit.FailurePolicy != "retain_on_image_failure" {
		t.Errorf("FailurePolicy = %q", cfg.Kit.FailurePolicy)
	}
	if cfg.Kit.ImageBackend != kitcfg.BackendGemini {
		t.Errorf("ImageBackend = %q", cfg.Kit.ImageBackend)
	}

	cfg.ApplyOptions(GenerateOptions{})
	if cfg.Kit.ImageBackend != kitcfg.BackendGemini {
		t.Error("空のフラグで設定が上書きされています")
	}
}

func TestDefaultRecordingOutput(t *testing.T) {
	if DefaultRecordingOutput != "output/recording.webm" {
		t.Errorf("期待値 output/recording.webm, 実際の値 %s", DefaultRecordingOutput)
	}
}
