package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-persona-kit/internal/builder"
	"github.com/shouni/go-persona-kit/internal/config"

	"github.com/shouni/go-persona-kit/pkg/domain"
	"github.com/shouni/go-persona-kit/pkg/publisher"
	"github.com/shouni/go-persona-kit/pkg/session"
)

// ExecuteGenerate は、録音（またはファイル）を解析し、指定スタイルごとにキャラクター画像を生成するのだ。
// 複数スタイルを指定した場合は、同じ解析結果を使い回して順番に生成するのだ。
func ExecuteGenerate(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	orch, err := appCtx.Manager.NewSession(domain.ModePersona, newConsoleSink(os.Stdout, appCtx.Manager.Catalog()))
	if err != nil {
		return fmt.Errorf("セッションの生成に失敗したのだ: %w", err)
	}

	selections, err := buildSelections(ctx, appCtx)
	if err != nil {
		return err
	}

	if err := recordInto(ctx, appCtx, orch); err != nil {
		return err
	}

	var (
		published int
		errs      []error
	)
	for i, sel := range selections {
		var res *session.Result
		if sel.imagePath != "" {
			var data []byte
			data, err = os.ReadFile(sel.imagePath)
			if err != nil {
				err = fmt.Errorf("%w: %w", domain.ErrInvalidSelection, err)
			} else {
				res, err = orch.StyleImageChosen(ctx, data)
			}
		} else {
			res, err = orch.StyleChosen(ctx, sel.selection)
		}
		if err != nil {
			slog.Error("スタイルの生成に失敗したのだ", "style", sel.label, "message", domain.UserMessage(err))
			errs = append(errs, fmt.Errorf("%s: %w", sel.label, err))
			continue
		}

		index := 0
		if len(selections) > 1 {
			index = i + 1
		}
		if _, err := appCtx.Publisher.Publish(ctx, *res, publisher.Options{OutputDir: appCtx.Options.OutputDir, Index: index}); err != nil {
			return err
		}
		published++
	}

	if published == 0 {
		return errors.Join(errs...)
	}
	if len(errs) > 0 {
		slog.Warn("一部のスタイルで生成に失敗したのだ", "succeeded", published, "failed", len(errs))
	}
	return nil
}

// ExecuteSpouse は、録音から理想のパートナー像を生成するのだ。スタイルは固定なのだ。
func ExecuteSpouse(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	orch, err := appCtx.Manager.NewSession(domain.ModeSpouse, newConsoleSink(os.Stdout, appCtx.Manager.Catalog()))
	if err != nil {
		return fmt.Errorf("セッションの生成に失敗したのだ: %w", err)
	}

	if err := recordInto(ctx, appCtx, orch); err != nil {
		return err
	}

	snap := orch.Snapshot()
	if snap.Result == nil {
		return fmt.Errorf("パートナー像の生成に失敗したのだ: %s", snap.LastError)
	}
	_, err = appCtx.Publisher.Publish(ctx, *snap.Result, publisher.Options{OutputDir: appCtx.Options.OutputDir})
	return err
}

// ExecuteRecord は、マイクから録音してファイルに保存するだけなのだ。
func ExecuteRecord(ctx context.Context, cfg *config.Config) error {
	recorder := builder.BuildRecorder(cfg)
	clip, err := recorder.Capture(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}

	out := cfg.Options.OutputFile
	if out == "" {
		out = config.DefaultRecordingOutput
	}
	if err := (publisher.LocalWriter{}).Write(ctx, out, bytes.NewReader(clip.Data), clip.MimeType); err != nil {
		return fmt.Errorf("録音の保存に失敗したのだ: %w", err)
	}
	slog.Info("録音を保存したのだ", "path", out, "bytes", len(clip.Data))
	return nil
}

// recordInto はセッションを開始して音声を取得し、録音完了を通知するのだ。
// マイクが使えない場合はその場で報告し、セッションの状態には触れないのだ。
func recordInto(ctx context.Context, appCtx *builder.AppContext, orch *session.Orchestrator) error {
	if err := orch.Start(); err != nil {
		return err
	}
	clip, err := appCtx.Source.Capture(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrMicrophoneAccessDenied) {
			slog.Error("マイクを開けなかったのだ", "error", err, "phase", orch.Snapshot().Phase.String())
		}
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}
	if err := orch.RecordingComplete(ctx, clip); err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}
	return nil
}

type styleRequest struct {
	label     string
	selection domain.StyleSelection
	imagePath string
}

// buildSelections はフラグからスタイル選択の一覧を組み立てるのだ。
func buildSelections(ctx context.Context, appCtx *builder.AppContext) ([]styleRequest, error) {
	opts := appCtx.Options
	var reqs []styleRequest

	for _, id := range opts.StyleIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		sel, err := appCtx.Manager.ResolveStyle(ctx, id)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, styleRequest{label: id, selection: sel})
	}
	if opts.CustomStyle != "" {
		reqs = append(reqs, styleRequest{label: "custom", selection: domain.CustomTextStyle{Description: opts.CustomStyle}})
	}
	if opts.StyleImage != "" {
		reqs = append(reqs, styleRequest{label: "uploaded", imagePath: opts.StyleImage})
	}

	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: --style, --custom-style, --style-image のいずれかを指定してほしいのだ", domain.ErrInvalidSelection)
	}
	return reqs, nil
}

func withTimeout(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.Options.RequestTimeout > 0 {
		return context.WithTimeout(ctx, cfg.Options.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
