package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-http-kit/httpkit"

	"github.com/shouni/go-persona-kit/internal/config"

	"github.com/shouni/go-persona-kit/pkg/asset"
	"github.com/shouni/go-persona-kit/pkg/capture"
	"github.com/shouni/go-persona-kit/pkg/catalog"
	"github.com/shouni/go-persona-kit/pkg/publisher"
	"github.com/shouni/go-persona-kit/pkg/workflow"
)

// BuildAppContext は設定からアプリケーションコンテキストを組み立てるのだ。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	manager, err := BuildManager(ctx, cfg)
	if err != nil {
		return nil, err
	}
	appCtx := NewAppContext(cfg, manager, BuildSource(cfg), publisher.NewPublisher(publisher.LocalWriter{}))
	return &appCtx, nil
}

// BuildManager はカタログを解決して workflow.Manager を構築するのだ。
func BuildManager(ctx context.Context, cfg *config.Config) (*workflow.Manager, error) {
	cat, err := LoadCatalog(cfg.Options.CatalogFile)
	if err != nil {
		return nil, err
	}
	httpClient := httpkit.New(config.DefaultHTTPTimeout)
	manager, err := workflow.New(ctx, workflow.ManagerArgs{
		Config:  cfg.Kit,
		Catalog: cat,
		Loader:  asset.NewLoader(asset.NewDefaultFetcher(httpClient)),
	})
	if err != nil {
		return nil, fmt.Errorf("Managerの初期化に失敗したのだ: %w", err)
	}
	return manager, nil
}

// LoadCatalog は --catalog が指定されていればそのファイルを、無ければ埋め込みのカタログを返すのだ。
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("カタログ '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	slog.Info("カスタムカタログを読み込んだのだ", "path", path, "styles", len(cat.All()))
	return cat, nil
}

// BuildSource は --audio があればファイル、無ければマイク録音を音声の供給元にするのだ。
func BuildSource(cfg *config.Config) capture.Source {
	if cfg.Options.AudioFile != "" {
		return capture.FileSource{Path: cfg.Options.AudioFile}
	}
	return BuildRecorder(cfg)
}

// BuildRecorder は ffmpeg の録音器を構築するのだ。
func BuildRecorder(cfg *config.Config) *capture.FFmpegRecorder {
	return capture.NewFFmpegRecorder(capture.RecorderConfig{
		Command:     cfg.FFmpegCommand,
		InputFormat: cfg.AudioFormat,
		InputDevice: cfg.AudioDevice,
		Duration:    cfg.Options.RecordDuration,
	})
}
