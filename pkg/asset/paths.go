package asset

import (
	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir は生成結果を保存するデフォルトのディレクトリ名です。
	DefaultOutputDir = "output"
	// DefaultImageFileName は生成画像の共通のベースファイル名です。拡張子は MIME タイプで置き換えます。
	DefaultImageFileName = "persona.png"
	// DefaultProfileFileName は解析結果とプロンプトを保存するサイドカーのファイル名です。
	DefaultProfileFileName = "profile.json"
	// DefaultRecordingFileName は録音のみ行った場合のデフォルトファイル名です。
	DefaultRecordingFileName = "recording.webm"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// GenerateIndexedPath は、拡張子の前に連番を挿入したパスを生成します。
// 例: "out/persona.png", 2 -> "out/persona_2.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}
