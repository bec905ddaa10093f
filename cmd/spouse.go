package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-persona-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// spouseCmd は、自己紹介の声から理想のパートナー像を生成するのだ。
var spouseCmd = &cobra.Command{
	Use:     "spouse",
	Short:   "声から理想のパートナー像を生成するのだ。",
	Long:    `自己紹介と希望を解析して、写実的なセルフィー風のパートナー像を生成するのだ。画風は固定なのだ。`,
	PreRunE: requireAPIKey,
	RunE:    spouseCommand,
}

func init() {
	addAudioFlags(spouseCmd)
}

func spouseCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	slog.Info("パートナー像の生成を起動するのだ！", "analysis_model", cfg.Kit.GeminiModel, "output", opts.OutputDir)
	if err := pipeline.ExecuteSpouse(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("生成中にエラーが発生したのだ: %w", err)
	}
	return nil
}
