package adapters

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ImagenBackend は Imagen の GenerateImages を使うテキスト画像生成バックエンドです。
type ImagenBackend struct {
	gen         ImagesGenerator
	model       string
	aspectRatio string
}

// NewImagenBackend は ImagenBackend を生成します。
func NewImagenBackend(gen ImagesGenerator, model, aspectRatio string) *ImagenBackend {
	return &ImagenBackend{gen: gen, model: model, aspectRatio: aspectRatio}
}

func (b *ImagenBackend) Name() string { return b.model }

// GenerateFromText は1枚の PNG を要求し、typed な generatedImages フィールドから読み出します。
func (b *ImagenBackend) GenerateFromText(ctx context.Context, prompt string) ([]Part, error) {
	resp, err := b.gen.GenerateImages(ctx, b.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
		AspectRatio:    b.aspectRatio,
	})
	if err != nil {
		return nil, err
	}
	return PartsFromImages(resp), nil
}

// GeminiTextBackend は画像出力対応の Gemini モデルにテキストだけを送るバックエンドです。
type GeminiTextBackend struct {
	gen   ContentGenerator
	model string
}

// NewGeminiTextBackend は GeminiTextBackend を生成します。
func NewGeminiTextBackend(gen ContentGenerator, model string) *GeminiTextBackend {
	return &GeminiTextBackend{gen: gen, model: model}
}

func (b *GeminiTextBackend) Name() string { return b.model }

// GenerateFromText は応答のマルチパートをそのまま Part 列にします。
func (b *GeminiTextBackend) GenerateFromText(ctx context.Context, prompt string) ([]Part, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := b.gen.GenerateContent(ctx, b.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	})
	if err != nil {
		return nil, err
	}
	return PartsFromContent(resp), nil
}

// OpenAIImageCreator は go-openai の CreateImage を抽象化します。
type OpenAIImageCreator interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// OpenAIBackend は OpenAI Images API を使うテキスト画像生成バックエンドです。
type OpenAIBackend struct {
	client OpenAIImageCreator
	model  string
	size   string
}

// NewOpenAIBackend は OpenAIBackend を生成します。
func NewOpenAIBackend(client OpenAIImageCreator, model, size string) *OpenAIBackend {
	if size == "" {
		size = openai.CreateImageSize1024x1792
	}
	return &OpenAIBackend{client: client, model: model, size: size}
}

func (b *OpenAIBackend) Name() string { return "openai:" + b.model }

// GenerateFromText は b64_json 形式で1枚要求し、デコードした画像を返します。
func (b *OpenAIBackend) GenerateFromText(ctx context.Context, prompt string) ([]Part, error) {
	resp, err := b.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          b.model,
		N:              1,
		Size:           b.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}

	var parts []Part
	for _, d := range resp.Data {
		if d.RevisedPrompt != "" {
			parts = append(parts, TextPart{Text: d.RevisedPrompt})
		}
		if d.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("画像データのデコードに失敗しました: %w", err)
		}
		parts = append(parts, ImagePart{Data: data, MimeType: "image/png"})
	}
	return parts, nil
}
