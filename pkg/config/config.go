package config

import (
	"fmt"
	"time"
)

// デフォルト値の定義
const (
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultImageModel       = "gemini-2.5-flash-image"
	DefaultImagenModel      = "imagen-4.0-generate-001"
	DefaultOpenAIImageModel = "dall-e-3"
	DefaultOpenAIImageSize  = "1024x1792"
	DefaultAspectRatio      = "3:4"
	DefaultRateInterval     = 2 * time.Second
	DefaultImageBackend     = BackendImagen
	DefaultFailurePolicy    = "discard_all"
)

// ImageBackend は参照画像なしの生成に使うバックエンドです。
type ImageBackend string

const (
	// BackendImagen は Imagen (GenerateImages) を使います。
	BackendImagen ImageBackend = "imagen"
	// BackendGemini は画像出力対応の Gemini モデル (GenerateContent) を使います。
	BackendGemini ImageBackend = "gemini"
	// BackendOpenAI は OpenAI Images API を使います。
	BackendOpenAI ImageBackend = "openai"
)

// ParseImageBackend は文字列をバックエンド種別に変換します。
func ParseImageBackend(s string) (ImageBackend, error) {
	switch b := ImageBackend(s); b {
	case "":
		return DefaultImageBackend, nil
	case BackendImagen, BackendGemini, BackendOpenAI:
		return b, nil
	default:
		return "", fmt.Errorf("不明な画像バックエンドです: '%s' (imagen | gemini | openai)", s)
	}
}

// Config は Go Persona Kit のセッションを動作させるための基本設定です。
type Config struct {
	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string
	GeminiModel  string // 音声解析用
	ImageModel   string // 参照画像付き生成用
	ImagenModel  string // テキストのみの生成用

	// --- Text-to-Image Backend ---
	ImageBackend     ImageBackend
	OpenAIAPIKey     string
	OpenAIImageModel string
	OpenAIImageSize  string

	// --- Generation Settings ---
	AspectRatio   string
	RateInterval  time.Duration
	FailurePolicy string
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:      DefaultGeminiModel,
		ImageModel:       DefaultImageModel,
		ImagenModel:      DefaultImagenModel,
		ImageBackend:     DefaultImageBackend,
		OpenAIImageModel: DefaultOpenAIImageModel,
		OpenAIImageSize:  DefaultOpenAIImageSize,
		AspectRatio:      DefaultAspectRatio,
		RateInterval:     DefaultRateInterval,
		FailurePolicy:    DefaultFailurePolicy,
	}
}

// NewConfig はデフォルト値に API キーだけをセットした Config を返します。
func NewConfig(apiKey string) Config {
	cfg := DefaultConfig()
	cfg.GeminiAPIKey = apiKey
	return cfg
}
