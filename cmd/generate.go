package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-persona-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、声の解析結果からキャラクター画像を生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "声からキャラクター画像を生成するのだ。",
	Long: `録音（または --audio の音声ファイル）を解析し、指定した画風でキャラクター画像を生成するのだ。
--style に複数のIDをカンマ区切りで渡すと、同じ解析結果を使い回して順番に生成するのだよ。`,
	PreRunE: requireAPIKey,
	RunE:    generateCommand,
}

func init() {
	addAudioFlags(generateCmd)
	generateCmd.Flags().StringSliceVarP(&opts.StyleIDs, "style", "s", nil, "カタログのスタイルIDなのだ（カンマ区切りで複数可）。")
	generateCmd.Flags().StringVar(&opts.CustomStyle, "custom-style", "", "自由記述の画風なのだ。")
	generateCmd.Flags().StringVar(&opts.StyleImage, "style-image", "", "画風の参照にする画像ファイルなのだ。")
	generateCmd.Flags().StringVar(&opts.FailurePolicy, "failure-policy", "", "失敗時の解析結果の扱いなのだ（discard_all | retain_on_image_failure）。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	slog.Info("キャラクター生成を起動するのだ！",
		"styles", opts.StyleIDs,
		"analysis_model", cfg.Kit.GeminiModel,
		"image_backend", string(cfg.Kit.ImageBackend),
		"output", opts.OutputDir)

	if err := pipeline.ExecuteGenerate(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("生成中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
