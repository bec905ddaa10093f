package builder

import (
	"github.com/shouni/go-persona-kit/internal/config"

	"github.com/shouni/go-persona-kit/pkg/capture"
	"github.com/shouni/go-persona-kit/pkg/publisher"
	"github.com/shouni/go-persona-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各 Execute 関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options   config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Manager   *workflow.Manager      // Managerは、解析・画像生成アダプターとカタログを保持します。
	Source    capture.Source         // Sourceは、録音またはファイルからの音声の供給元です。
	Publisher *publisher.Publisher   // Publisherは、生成結果の保存先です。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	manager *workflow.Manager,
	source capture.Source,
	pub *publisher.Publisher,
) AppContext {
	return AppContext{
		Config:    cfg,
		Options:   cfg.Options,
		Manager:   manager,
		Source:    source,
		Publisher: pub,
	}
}
