package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-persona-kit/pkg/domain"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// conditionedAspectRatio は参照画像付き生成で指定する縦横比です。
const conditionedAspectRatio = "3:4"

// ImageAdapter は合成済みプロンプトから画像を1枚生成します。
// 参照画像があればマルチモーダルの画像条件付き生成、無ければテキスト画像生成バックエンドを使います。
type ImageAdapter struct {
	conditioned      PartsGenerator
	conditionedModel string
	textBackend      TextImageBackend
	limiter          *rate.Limiter
}

// NewImageAdapter は ImageAdapter を生成します。
func NewImageAdapter(conditioned PartsGenerator, conditionedModel string, textBackend TextImageBackend, limiter *rate.Limiter) *ImageAdapter {
	return &ImageAdapter{
		conditioned:      conditioned,
		conditionedModel: conditionedModel,
		textBackend:      textBackend,
		limiter:          limiter,
	}
}

// GenerateImage は prompt と参照画像から画像を生成します。
// 通信失敗は ErrBackendUnavailable、応答に画像が無い場合は ErrNoImageProduced を返します。
func (a *ImageAdapter) GenerateImage(ctx context.Context, prompt string, refs []domain.ReferenceImage) (*ports.ImageResponse, error) {
	if err := wait(ctx, a.limiter); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}

	var (
		parts   []Part
		backend string
		err     error
	)
	if len(refs) > 0 {
		backend = a.conditionedModel
		parts, err = a.generateConditioned(ctx, prompt, refs)
	} else {
		backend = a.textBackend.Name()
		parts, err = a.textBackend.GenerateFromText(ctx, prompt)
	}
	if err != nil {
		slog.ErrorContext(ctx, "画像生成バックエンドの呼び出しに失敗しました", "backend", backend, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, backend, err)
	}

	img, ok := FirstImage(parts)
	if !ok {
		slog.ErrorContext(ctx, "バックエンドの応答に画像が含まれていません",
			"backend", backend,
			"references", len(refs),
			"prompt", prompt,
			"response", describeParts(parts),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrNoImageProduced, backend)
	}

	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	slog.InfoContext(ctx, "画像を生成しました", "backend", backend, "mime_type", mimeType, "bytes", len(img.Data))
	return &ports.ImageResponse{Data: img.Data, MimeType: mimeType}, nil
}

func (a *ImageAdapter) generateConditioned(ctx context.Context, prompt string, refs []domain.ReferenceImage) ([]Part, error) {
	parts := make([]*genai.Part, 0, len(refs)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, ref := range refs {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: ref.Data, MIMEType: ref.MimeType}})
	}
	opts := gemini.GenerateOptions{AspectRatio: conditionedAspectRatio}

	slog.DebugContext(ctx, "参照画像付きで画像生成を要求します", "model", a.conditionedModel, "references", len(refs))
	resp, err := a.conditioned.GenerateWithParts(ctx, a.conditionedModel, parts, opts)
	if err != nil {
		// ブロックや空応答は通信失敗ではなく、画像が得られなかった扱いにする
		if apiErr, ok := errors.AsType[*gemini.APIResponseError](err); ok {
			return []Part{StatusPart{Source: "finish", Reason: "blocked", Message: apiErr.Error()}}, nil
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return PartsFromContent(resp.RawResponse), nil
}
