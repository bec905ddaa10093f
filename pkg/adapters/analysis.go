package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-persona-kit/pkg/domain"
	"github.com/shouni/go-persona-kit/pkg/prompts"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// personaSchema は AnalysisResult のフィールドだけを持つ応答スキーマです。
var personaSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"characterProfile":     {Type: genai.TypeString},
		"vocalCharacteristics": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"isProfileRich":        {Type: genai.TypeBoolean},
	},
	Required: []string{"characterProfile", "vocalCharacteristics", "isProfileRich"},
}

var spouseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"userProfile":          {Type: genai.TypeString},
		"vocalCharacteristics": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"requestedSpouseGender": {
			Type: genai.TypeString,
			Enum: []string{
				string(domain.SpouseGenderMan),
				string(domain.SpouseGenderWoman),
				string(domain.SpouseGenderUnspecified),
			},
		},
		"isUserProfileRich": {Type: genai.TypeBoolean},
	},
	Required: []string{"userProfile", "vocalCharacteristics", "requestedSpouseGender", "isUserProfileRich"},
}

// AnalysisAdapter は音声と指示文を解析モデルへ送り、構造化された結果に変換します。
// 自動リトライは行いません。
type AnalysisAdapter struct {
	gen     ContentGenerator
	model   string
	limiter *rate.Limiter
}

// NewAnalysisAdapter は AnalysisAdapter を生成します。
func NewAnalysisAdapter(gen ContentGenerator, model string, limiter *rate.Limiter) *AnalysisAdapter {
	return &AnalysisAdapter{gen: gen, model: model, limiter: limiter}
}

// AnalyzeVoice はペルソナモードの音声解析を行います。
func (a *AnalysisAdapter) AnalyzeVoice(ctx context.Context, clip domain.AudioClip) (domain.AnalysisResult, error) {
	raw, err := a.analyze(ctx, domain.ModePersona, clip, personaSchema)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	result, err := domain.ParseAnalysisResult(raw)
	if err != nil {
		slog.ErrorContext(ctx, "解析結果のパースに失敗しました", "error", err, "raw", raw)
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}
	slog.InfoContext(ctx, "音声解析が完了しました",
		"rich", result.IsProfileRich,
		"vocal_tags", len(result.VocalCharacteristics),
	)
	return result, nil
}

// AnalyzeSpouse は配偶者モードの音声解析を行います。
func (a *AnalysisAdapter) AnalyzeSpouse(ctx context.Context, clip domain.AudioClip) (domain.SpouseAnalysisResult, error) {
	raw, err := a.analyze(ctx, domain.ModeSpouse, clip, spouseSchema)
	if err != nil {
		return domain.SpouseAnalysisResult{}, err
	}
	result, err := domain.ParseSpouseAnalysisResult(raw)
	if err != nil {
		slog.ErrorContext(ctx, "解析結果のパースに失敗しました", "error", err, "raw", raw)
		return domain.SpouseAnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}
	slog.InfoContext(ctx, "音声解析が完了しました",
		"rich", result.IsUserProfileRich,
		"requested_gender", string(result.RequestedSpouseGender),
	)
	return result, nil
}

func (a *AnalysisAdapter) analyze(ctx context.Context, mode domain.Mode, clip domain.AudioClip, schema *genai.Schema) (string, error) {
	if clip.Empty() {
		return "", fmt.Errorf("%w: 音声データが空です", domain.ErrAudioReadFailed)
	}
	instruction, err := prompts.GetAnalysisPrompt(mode)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(instruction),
		genai.NewPartFromBytes(clip.Data, clip.MimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	if err := wait(ctx, a.limiter); err != nil {
		return "", fmt.Errorf("%w: %w: %w", domain.ErrAnalysisFailed, domain.ErrBackendUnavailable, err)
	}

	slog.DebugContext(ctx, "音声解析を要求します", "model", a.model, "mode", string(mode), "mime_type", clip.MimeType, "bytes", len(clip.Data))
	resp, err := a.gen.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		slog.ErrorContext(ctx, "解析バックエンドの呼び出しに失敗しました", "error", err)
		return "", fmt.Errorf("%w: %w: %w", domain.ErrAnalysisFailed, domain.ErrBackendUnavailable, err)
	}
	return TextOf(PartsFromContent(resp)), nil
}
