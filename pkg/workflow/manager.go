package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-persona-kit/pkg/adapters"
	"github.com/shouni/go-persona-kit/pkg/asset"
	"github.com/shouni/go-persona-kit/pkg/catalog"
	"github.com/shouni/go-persona-kit/pkg/config"
	"github.com/shouni/go-persona-kit/pkg/domain"
	"github.com/shouni/go-persona-kit/pkg/prompts"
	"github.com/shouni/go-persona-kit/pkg/session"
	"google.golang.org/genai"
)

// ManagerArgs は Manager の構築に使う引数です。
// Content / Images / Conditioned / OpenAI を省略すると、Config の API キーから実クライアントを生成します。
type ManagerArgs struct {
	Config   config.Config
	Catalog  *catalog.Catalog
	Loader   *asset.Loader
	Composer *prompts.Composer

	Content     adapters.ContentGenerator
	Images      adapters.ImagesGenerator
	Conditioned adapters.PartsGenerator
	OpenAI      adapters.OpenAIImageCreator
}

// Manager は、解析・画像生成のアダプターとカタログを保持し、セッションを生成します。
type Manager struct {
	cfg      config.Config
	policy   session.FailurePolicy
	catalog  *catalog.Catalog
	loader   *asset.Loader
	composer *prompts.Composer
	analysis *adapters.AnalysisAdapter
	images   *adapters.ImageAdapter
}

// New は、設定を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	cfg := args.Config
	policy, err := session.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return nil, err
	}
	backendKind, err := config.ParseImageBackend(string(cfg.ImageBackend))
	if err != nil {
		return nil, err
	}

	cat := args.Catalog
	if cat == nil {
		cat, err = catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("カタログの読み込みに失敗しました: %w", err)
		}
	}
	loader := args.Loader
	if loader == nil {
		loader = asset.NewLoader(nil)
	}
	composer := args.Composer
	if composer == nil {
		composer = prompts.NewComposer(nil)
	}

	content, imagesGen := args.Content, args.Images
	if content == nil || (imagesGen == nil && backendKind == config.BackendImagen) {
		client, err := initializeAIClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		if content == nil {
			content = client.Models
		}
		if imagesGen == nil {
			imagesGen = client.Models
		}
	}

	textBackend, err := initializeTextBackend(backendKind, cfg, content, imagesGen, args.OpenAI)
	if err != nil {
		return nil, err
	}

	conditioned := args.Conditioned
	if conditioned == nil {
		conditioned, err = initializeConditionedClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
	}

	limiter := adapters.NewLimiter(cfg.RateInterval)
	slog.Debug("Manager を初期化しました",
		"analysis_model", cfg.GeminiModel,
		"image_model", cfg.ImageModel,
		"text_backend", textBackend.Name(),
		"failure_policy", string(policy),
	)

	return &Manager{
		cfg:      cfg,
		policy:   policy,
		catalog:  cat,
		loader:   loader,
		composer: composer,
		analysis: adapters.NewAnalysisAdapter(content, cfg.GeminiModel, limiter),
		images:   adapters.NewImageAdapter(conditioned, cfg.ImageModel, textBackend, limiter),
	}, nil
}

// initializeAIClient は genai クライアントを初期化します。
func initializeAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// initializeConditionedClient は参照画像付き生成に使う Gemini クライアントを初期化します。
func initializeConditionedClient(ctx context.Context, apiKey string) (*gemini.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	client, err := gemini.NewClient(ctx, gemini.Config{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// initializeTextBackend は参照画像なしの生成に使うバックエンドを選びます。
func initializeTextBackend(
	kind config.ImageBackend,
	cfg config.Config,
	content adapters.ContentGenerator,
	imagesGen adapters.ImagesGenerator,
	openaiClient adapters.OpenAIImageCreator,
) (adapters.TextImageBackend, error) {
	switch kind {
	case config.BackendGemini:
		return adapters.NewGeminiTextBackend(content, cfg.ImageModel), nil
	case config.BackendOpenAI:
		if openaiClient == nil {
			if cfg.OpenAIAPIKey == "" {
				return nil, fmt.Errorf("IMAGE_BACKEND=openai には OPENAI_API_KEY が必要です")
			}
			openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
		}
		return adapters.NewOpenAIBackend(openaiClient, cfg.OpenAIImageModel, cfg.OpenAIImageSize), nil
	default:
		return adapters.NewImagenBackend(imagesGen, cfg.ImagenModel, cfg.AspectRatio), nil
	}
}

// Catalog はスタイルカタログを返します。
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// ResolveStyle はカタログの ID を参照画像込みの選択値に変換します。
func (m *Manager) ResolveStyle(ctx context.Context, id string) (domain.CatalogStyle, error) {
	return m.catalog.Resolve(ctx, id, m.loader)
}

// NewSession は指定モードのセッションを生成します。
func (m *Manager) NewSession(mode domain.Mode, sink session.EventSink) (*session.Orchestrator, error) {
	return session.NewOrchestrator(mode, m.policy, session.Dependencies{
		Persona:  m.analysis,
		Spouse:   m.analysis,
		Images:   m.images,
		Composer: m.composer,
		Sink:     sink,
	})
}
