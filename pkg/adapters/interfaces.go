package adapters

import (
	"context"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// ContentGenerator は genai の GenerateContent 呼び出しを抽象化します。
// *genai.Models がそのまま実装になり、テストでは固定レスポンスを返す偽物を使います。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// PartsGenerator はマルチモーダルのパーツから生成する呼び出しを抽象化します。
// *gemini.Client が実装し、一時的な失敗の再試行はクライアント側で行われます。
type PartsGenerator interface {
	GenerateWithParts(ctx context.Context, modelName string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ImagesGenerator は Imagen の GenerateImages 呼び出しを抽象化します。
type ImagesGenerator interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// TextImageBackend はテキストのみのプロンプトから画像を生成するバックエンドです。
// 返り値は画像探索のために Part 列へ正規化されます。
type TextImageBackend interface {
	Name() string
	GenerateFromText(ctx context.Context, prompt string) ([]Part, error)
}
