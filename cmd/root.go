package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shouni/go-persona-kit/internal/config"
)

// opts は各サブコマンドのフラグが書き込む実行時パラメータなのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   "persona-kit",
	Short: "声からキャラクター画像を生成するのだ。",
	Long: `自己紹介の録音を Gemini で解析し、選んだ画風でキャラクター画像を生成するのだ。
配偶者モードでは、声と話した内容から理想のパートナー像を描くのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.CatalogFile, "catalog", "", "スタイルカタログの JSON パスなのだ（省略時は組み込みカタログ）。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成結果を保存するディレクトリなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageBackend, "image-backend", "", "参照画像なしの生成に使うバックエンドなのだ（imagen | gemini | openai）。")
	rootCmd.PersistentFlags().DurationVar(&opts.RequestTimeout, "timeout", config.DefaultRequestTimeout, "1回の実行全体のタイムアウトなのだ。")
}

// addAudioFlags は、音声入力を受け取るサブコマンド共通のフラグを定義するのだ。
func addAudioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&opts.AudioFile, "audio", "a", "", "録音済みの音声ファイルのパスなのだ。")
	cmd.Flags().DurationVarP(&opts.RecordDuration, "record", "r", config.DefaultRecordDuration, "--audio が無いときにマイクから録音する時間なのだ。")
}

// preRunAppE は、コマンド実行前に .env の読み込みとログ設定を行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn(".env の読み込みに失敗したのだ", "error", err)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// requireAPIKey は Gemini API を使うコマンドの前提条件を確認するのだ。
func requireAPIKey(cmd *cobra.Command, args []string) error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// loadConfig は環境変数の設定にフラグの値を反映して返すのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.ApplyOptions(opts)
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(
		generateCmd,
		spouseCmd,
		stylesCmd,
		recordCmd,
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
