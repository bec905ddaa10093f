package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shouni/go-persona-kit/pkg/asset"
	"github.com/shouni/go-persona-kit/pkg/domain"
	"github.com/shouni/go-persona-kit/pkg/session"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// Index が 1 以上なら、ファイル名に連番を付けます (複数スタイルを続けて生成した場合)。
	Index int
}

// PublishResult は保存したファイルのパスです。
type PublishResult struct {
	ImagePath   string
	ProfilePath string
}

// profileSidecar は画像と一緒に保存する解析結果とプロンプトです。
type profileSidecar struct {
	SessionID      string                       `json:"session_id"`
	Mode           domain.Mode                  `json:"mode"`
	StyleID        string                       `json:"style_id"`
	Prompt         string                       `json:"prompt"`
	MimeType       string                       `json:"mime_type"`
	Analysis       *domain.AnalysisResult       `json:"analysis,omitempty"`
	SpouseAnalysis *domain.SpouseAnalysisResult `json:"spouse_analysis,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
}

// Publisher は生成結果を画像とプロフィールのサイドカーとして保存します。
type Publisher struct {
	writer OutputWriter
	now    func() time.Time
}

// NewPublisher は Publisher を生成します。writer が nil の場合は LocalWriter を使います。
func NewPublisher(writer OutputWriter) *Publisher {
	if writer == nil {
		writer = LocalWriter{}
	}
	return &Publisher{writer: writer, now: time.Now}
}

// Publish は結果の画像と profile.json を保存します。
func (p *Publisher) Publish(ctx context.Context, result session.Result, opts Options) (PublishResult, error) {
	if result.Image == nil || len(result.Image.Data) == 0 {
		return PublishResult{}, fmt.Errorf("保存する画像データがありません")
	}
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = asset.DefaultOutputDir
	}

	imageName := replaceExt(asset.DefaultImageFileName, preferredExtension(result.Image.MimeType))
	imagePath, err := p.resolve(outDir, imageName, opts.Index)
	if err != nil {
		return PublishResult{}, err
	}
	profilePath, err := p.resolve(outDir, asset.DefaultProfileFileName, opts.Index)
	if err != nil {
		return PublishResult{}, err
	}

	if err := p.writer.Write(ctx, imagePath, bytes.NewReader(result.Image.Data), result.Image.MimeType); err != nil {
		return PublishResult{}, fmt.Errorf("画像の保存に失敗しました: %w", err)
	}

	sidecar := profileSidecar{
		SessionID:      result.SessionID,
		Mode:           result.Mode,
		StyleID:        result.StyleID,
		Prompt:         result.Prompt,
		MimeType:       result.Image.MimeType,
		Analysis:       result.Analysis,
		SpouseAnalysis: result.SpouseAnalysis,
		CreatedAt:      p.now().UTC(),
	}
	body, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return PublishResult{}, fmt.Errorf("プロフィールのエンコードに失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, profilePath, bytes.NewReader(body), "application/json"); err != nil {
		return PublishResult{}, fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "生成結果を保存しました", "image", imagePath, "profile", profilePath)
	return PublishResult{ImagePath: imagePath, ProfilePath: profilePath}, nil
}

func (p *Publisher) resolve(dir, name string, index int) (string, error) {
	path, err := asset.ResolveOutputPath(dir, name)
	if err != nil {
		return "", fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	if index < 1 {
		return path, nil
	}
	return asset.GenerateIndexedPath(path, index)
}

// preferredExtension は MIME タイプから拡張子を決めます。判定できなければ .png です。
func preferredExtension(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ".png"
	}
	for _, preferred := range []string{".png", ".jpg", ".webp"} {
		if slices.Contains(exts, preferred) {
			return preferred
		}
	}
	return exts[0]
}

func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
