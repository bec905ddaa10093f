package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-persona-kit/pkg/asset"
	"github.com/shouni/go-persona-kit/pkg/domain"
)

// Source は確定した録音を1件返す音声の供給元です。
type Source interface {
	Capture(ctx context.Context) (domain.AudioClip, error)
}

// FileSource は録音済みのファイルを音声として読み込みます。
type FileSource struct {
	Path string
}

// Capture はファイルを読み込み、中身から MIME タイプを判定します。
func (s FileSource) Capture(ctx context.Context) (domain.AudioClip, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("%w: %w", domain.ErrAudioReadFailed, err)
	}
	clip, err := asset.SniffAudio(data)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("%s: %w", s.Path, err)
	}
	slog.DebugContext(ctx, "音声ファイルを読み込みました", "path", s.Path, "mime_type", clip.MimeType, "bytes", len(clip.Data))
	return clip, nil
}
