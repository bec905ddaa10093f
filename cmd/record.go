package cmd

import (
	"github.com/shouni/go-persona-kit/internal/config"
	"github.com/shouni/go-persona-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// recordCmd は、マイクから録音して音声ファイルに保存するだけのサブコマンドなのだ。
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "マイクから録音して保存するのだ。",
	Long:  `ffmpeg でマイクから録音し、webm/opus のファイルに保存するのだ。保存したファイルは generate --audio に渡せるのだよ。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.ExecuteRecord(cmd.Context(), loadConfig())
	},
}

func init() {
	recordCmd.Flags().DurationVarP(&opts.RecordDuration, "duration", "d", config.DefaultRecordDuration, "録音時間なのだ。")
	recordCmd.Flags().StringVarP(&opts.OutputFile, "file", "f", config.DefaultRecordingOutput, "保存先のパスなのだ。")
}
