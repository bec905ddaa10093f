package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-persona-kit/pkg/config"
	"github.com/shouni/go-persona-kit/pkg/domain"
	"github.com/shouni/go-persona-kit/pkg/prompts"
	"google.golang.org/genai"
)

// fakeGenAI は解析には JSON を、画像生成には PNG を返す偽の genai です。
type fakeGenAI struct {
	contentCalls     int
	imageCalls       int
	conditionedCalls int
}

func (f *fakeGenAI) GenerateContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contentCalls++
	var part *genai.Part
	if cfg != nil && cfg.ResponseMIMEType == "application/json" {
		part = genai.NewPartFromText(`{"characterProfile":"hello","vocalCharacteristics":["calm","low-pitched"],"isProfileRich":false}`)
	} else {
		part = &genai.Part{InlineData: &genai.Blob{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}}
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{part}}}},
	}, nil
}

func (f *fakeGenAI) GenerateWithParts(_ context.Context, _ string, _ []*genai.Part, _ gemini.GenerateOptions) (*gemini.Response, error) {
	f.conditionedCalls++
	png := []byte{0x89, 'P', 'N', 'G'}
	return &gemini.Response{
		Images: [][]byte{png},
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: png, MIMEType: "image/png"}}}}}},
		},
	}, nil
}

func (f *fakeGenAI) GenerateImages(_ context.Context, _ string, _ string, _ *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.imageCalls++
	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}}},
	}, nil
}

func newTestManager(t *testing.T, cfg config.Config, fake *fakeGenAI) *Manager {
	t.Helper()
	cfg.RateInterval = 0
	m, err := New(context.Background(), ManagerArgs{
		Config:      cfg,
		Composer:    prompts.NewComposer(func(int) int { return 0 }),
		Content:     fake,
		Images:      fake,
		Conditioned: fake,
	})
	if err != nil {
		t.Fatalf("Manager の初期化に失敗しました: %v", err)
	}
	return m
}

func TestManager_PersonaSession(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGenAI{}
	m := newTestManager(t, config.DefaultConfig(), fake)

	style, err := m.ResolveStyle(ctx, "watercolor")
	if err != nil {
		t.Fatalf("スタイルの解決に失敗しました: %v", err)
	}

	sess, err := m.NewSession(domain.ModePersona, nil)
	if err != nil {
		t.Fatalf("セッションの生成に失敗しました: %v", err)
	}
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sess.RecordingComplete(ctx, domain.AudioClip{Data: []byte("voice"), MimeType: "audio/webm"}); err != nil {
		t.Fatalf("RecordingComplete: %v", err)
	}

	res, err := sess.StyleChosen(ctx, style)
	if err != nil {
		t.Fatalf("生成に失敗しました: %v", err)
	}
	if res.Image == nil || res.StyleID != "watercolor" {
		t.Errorf("予期しない結果: %+v", res)
	}
	if fake.contentCalls != 1 || fake.imageCalls != 1 {
		t.Errorf("呼び出し回数: content=%d images=%d", fake.contentCalls, fake.imageCalls)
	}
}

func TestManager_GeminiBackend(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.ImageBackend = config.BackendGemini
	fake := &fakeGenAI{}
	m := newTestManager(t, cfg, fake)

	sess, err := m.NewSession(domain.ModePersona, nil)
	if err != nil {
		t.Fatalf("セッションの生成に失敗しました: %v", err)
	}
	_ = sess.Start()
	_ = sess.RecordingComplete(ctx, domain.AudioClip{Data: []byte("voice"), MimeType: "audio/webm"})

	if _, err := sess.StyleChosen(ctx, domain.CustomTextStyle{Description: "pixel art"}); err != nil {
		t.Fatalf("生成に失敗しました: %v", err)
	}
	if fake.imageCalls != 0 || fake.contentCalls != 2 {
		t.Errorf("呼び出し回数: content=%d images=%d", fake.contentCalls, fake.imageCalls)
	}
}

func TestManager_ReferenceStyleUsesConditionedClient(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGenAI{}
	m := newTestManager(t, config.DefaultConfig(), fake)

	sess, err := m.NewSession(domain.ModePersona, nil)
	if err != nil {
		t.Fatalf("セッションの生成に失敗しました: %v", err)
	}
	_ = sess.Start()
	_ = sess.RecordingComplete(ctx, domain.AudioClip{Data: []byte("voice"), MimeType: "audio/webm"})

	style := domain.UserUploadedStyle{Reference: domain.ReferenceImage{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}}
	res, err := sess.StyleChosen(ctx, style)
	if err != nil {
		t.Fatalf("生成に失敗しました: %v", err)
	}
	if res.Image == nil {
		t.Fatal("画像が返りませんでした")
	}
	if fake.conditionedCalls != 1 || fake.imageCalls != 0 {
		t.Errorf("呼び出し回数: conditioned=%d images=%d", fake.conditionedCalls, fake.imageCalls)
	}
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("不明な失敗ポリシーはエラーになること", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.FailurePolicy = "keep_everything"
		if _, err := New(ctx, ManagerArgs{Config: cfg, Content: &fakeGenAI{}, Images: &fakeGenAI{}}); err == nil {
			t.Error("エラーが返りませんでした")
		}
	})

	t.Run("OpenAI バックエンドで API キーが無ければエラーになること", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.ImageBackend = config.BackendOpenAI
		if _, err := New(ctx, ManagerArgs{Config: cfg, Content: &fakeGenAI{}, Images: &fakeGenAI{}}); err == nil {
			t.Error("エラーが返りませんでした")
		}
	})

	t.Run("クライアントも API キーも無ければエラーになること", func(t *testing.T) {
		if _, err := New(ctx, ManagerArgs{Config: config.DefaultConfig()}); err == nil {
			t.Error("エラーが返りませんでした")
		}
	})

	t.Run("未登録のスタイルは ErrInvalidSelection になること", func(t *testing.T) {
		m := newTestManager(t, config.DefaultConfig(), &fakeGenAI{})
		if _, err := m.ResolveStyle(ctx, "unknown"); !errors.Is(err, domain.ErrInvalidSelection) {
			t.Errorf("ErrInvalidSelection が期待されましたが %v でした", err)
		}
	})
}
