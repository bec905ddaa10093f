package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-persona-kit/pkg/asset"
	kitcfg "github.com/shouni/go-persona-kit/pkg/config"
)

// デフォルト値の定義なのだ
const (
	DefaultOutputDir       = asset.DefaultOutputDir
	DefaultRecordDuration  = 20 * time.Second
	DefaultRequestTimeout  = 5 * time.Minute
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultFFmpegCommand   = "ffmpeg"
	DefaultAudioFormat     = "pulse"
	DefaultAudioDevice     = "default"
	DefaultRecordingOutput = asset.DefaultOutputDir + "/" + asset.DefaultRecordingFileName
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	Kit kitcfg.Config

	FFmpegCommand string
	AudioFormat   string
	AudioDevice   string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	kit := kitcfg.DefaultConfig()
	kit.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	kit.GeminiModel = envutil.GetEnv("GEMINI_MODEL", kitcfg.DefaultGeminiModel)
	kit.ImageModel = envutil.GetEnv("IMAGE_GEMINI_MODEL", kitcfg.DefaultImageModel)
	kit.ImagenModel = envutil.GetEnv("IMAGEN_MODEL", kitcfg.DefaultImagenModel)
	kit.ImageBackend = kitcfg.ImageBackend(envutil.GetEnv("IMAGE_BACKEND", string(kitcfg.DefaultImageBackend)))
	kit.OpenAIAPIKey = envutil.GetEnv("OPENAI_API_KEY", "")
	kit.OpenAIImageModel = envutil.GetEnv("OPENAI_IMAGE_MODEL", kitcfg.DefaultOpenAIImageModel)
	kit.RateInterval = parseDuration(envutil.GetEnv("RATE_INTERVAL", ""), kitcfg.DefaultRateInterval)

	return &Config{
		Kit:           kit,
		FFmpegCommand: envutil.GetEnv("FFMPEG_COMMAND", DefaultFFmpegCommand),
		AudioFormat:   envutil.GetEnv("AUDIO_INPUT_FORMAT", DefaultAudioFormat),
		AudioDevice:   envutil.GetEnv("AUDIO_INPUT_DEVICE", DefaultAudioDevice),
	}
}

// parseDuration は "10s" のような値を解釈し、空や不正な値ならデフォルトを返すのだ。
func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 音声入力関連
	AudioFile      string        // --audio
	RecordDuration time.Duration // --record

	// スタイル関連
	StyleIDs    []string // --style
	CustomStyle string   // --custom-style
	StyleImage  string   // --style-image
	CatalogFile string   // --catalog

	// 出力関連
	OutputDir  string // --output-dir
	OutputFile string // record -o

	// 生成挙動
	FailurePolicy  string        // --failure-policy
	ImageBackend   string        // --image-backend
	RequestTimeout time.Duration // --timeout
	Verbose        bool          // --verbose
}

// ApplyOptions はフラグで指定された値を環境変数由来の設定に上書きするのだ。
func (c *Config) ApplyOptions(opts GenerateOptions) {
	c.Options = opts
	if opts.FailurePolicy != "" {
		c.Kit.FailurePolicy = opts.FailurePolicy
	}
	if opts.ImageBackend != "" {
		c.Kit.ImageBackend = kitcfg.ImageBackend(opts.ImageBackend)
	}
}
