package asset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

var (
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	wavData = []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00")
)

// countingFetcher は呼び出し回数を数える Fetcher です。
type countingFetcher struct {
	calls atomic.Int32
	data  map[string][]byte
}

func (f *countingFetcher) Fetch(_ context.Context, source string) ([]byte, error) {
	f.calls.Add(1)
	data, ok := f.data[source]
	if !ok {
		return nil, fmt.Errorf("not found: %s", source)
	}
	return data, nil
}

func TestSniffImage(t *testing.T) {
	t.Run("PNG を image/png と判定すること", func(t *testing.T) {
		img, err := SniffImage(pngData)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if img.MimeType != "image/png" {
			t.Errorf("期待値 image/png, 実際の値 %s", img.MimeType)
		}
	})

	tests := map[string][]byte{
		"空データ":   nil,
		"テキスト":   []byte("hello, world"),
		"音声データ":  wavData,
		"上限超過":   make([]byte, maxImageBytes+1),
	}
	for name, data := range tests {
		t.Run(name+"は ErrInvalidSelection になること", func(t *testing.T) {
			if _, err := SniffImage(data); !errors.Is(err, domain.ErrInvalidSelection) {
				t.Errorf("ErrInvalidSelection が期待されましたが %v でした", err)
			}
		})
	}
}

func TestSniffAudio(t *testing.T) {
	t.Run("WAV を音声と判定すること", func(t *testing.T) {
		clip, err := SniffAudio(wavData)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if clip.MimeType != "audio/wav" {
			t.Errorf("期待値 audio/wav, 実際の値 %s", clip.MimeType)
		}
	})

	for name, data := range map[string][]byte{"空データ": nil, "画像": pngData, "テキスト": []byte("not audio")} {
		t.Run(name+"は ErrAudioReadFailed になること", func(t *testing.T) {
			if _, err := SniffAudio(data); !errors.Is(err, domain.ErrAudioReadFailed) {
				t.Errorf("ErrAudioReadFailed が期待されましたが %v でした", err)
			}
		})
	}
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("同じソースは一度だけ取得されること", func(t *testing.T) {
		f := &countingFetcher{data: map[string][]byte{"a.png": pngData}}
		l := NewLoader(f)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := l.Load(ctx, "a.png"); err != nil {
					t.Errorf("予期しないエラー: %v", err)
				}
			}()
		}
		wg.Wait()
		if _, err := l.Load(ctx, "a.png"); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}

		if got := f.calls.Load(); got != 1 {
			t.Errorf("取得回数: 期待値 1, 実際の値 %d", got)
		}
	})

	t.Run("画像でないソースはキャッシュされずエラーになること", func(t *testing.T) {
		f := &countingFetcher{data: map[string][]byte{"note.txt": []byte("plain text")}}
		l := NewLoader(f)

		for range 2 {
			if _, err := l.Load(ctx, "note.txt"); !errors.Is(err, domain.ErrInvalidSelection) {
				t.Errorf("ErrInvalidSelection が期待されましたが %v でした", err)
			}
		}
		if got := f.calls.Load(); got != 2 {
			t.Errorf("取得回数: 期待値 2, 実際の値 %d", got)
		}
	})

	t.Run("LoadAll は入力と同じ順序で返すこと", func(t *testing.T) {
		jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
		f := &countingFetcher{data: map[string][]byte{"a.png": pngData, "b.jpg": jpeg}}
		l := NewLoader(f)

		imgs, err := l.LoadAll(ctx, []string{"b.jpg", "a.png"})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if imgs[0].MimeType != "image/jpeg" || imgs[1].MimeType != "image/png" {
			t.Errorf("順序が保たれていません: %s, %s", imgs[0].MimeType, imgs[1].MimeType)
		}
	})

	t.Run("LoadAll は1つでも失敗すればエラーを返すこと", func(t *testing.T) {
		l := NewLoader(&countingFetcher{data: map[string][]byte{"a.png": pngData}})
		if _, err := l.LoadAll(ctx, []string{"a.png", "missing.png"}); err == nil {
			t.Error("エラーが返りませんでした")
		}
	})
}

func TestResolveOutputPath(t *testing.T) {
	got, err := ResolveOutputPath("output", DefaultImageFileName)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if got == "" {
		t.Error("パスが空です")
	}
}

// recordingClient は要求された URL を記録する URLFetcher です。
type recordingClient struct {
	urls []string
	data []byte
}

func (c *recordingClient) FetchBytes(_ context.Context, url string) ([]byte, error) {
	c.urls = append(c.urls, url)
	return c.data, nil
}

func TestDefaultFetcher_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("URL は HTTP クライアントで取得すること", func(t *testing.T) {
		client := &recordingClient{data: pngData}
		l := NewLoader(NewDefaultFetcher(client))

		img, err := l.Load(ctx, "https://example.com/style.png")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if img.MimeType != "image/png" {
			t.Errorf("期待値 image/png, 実際の値 %s", img.MimeType)
		}
		if len(client.urls) != 1 || client.urls[0] != "https://example.com/style.png" {
			t.Errorf("クライアントへの要求: %v", client.urls)
		}
	})

	t.Run("ローカルパスはクライアントを使わずに読み込むこと", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "style.png")
		if err := os.WriteFile(path, pngData, 0o644); err != nil {
			t.Fatal(err)
		}
		client := &recordingClient{}
		data, err := NewDefaultFetcher(client).Fetch(ctx, path)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(data) != len(pngData) || len(client.urls) != 0 {
			t.Errorf("予期しない読み込み: bytes=%d urls=%v", len(data), client.urls)
		}
	})
}
