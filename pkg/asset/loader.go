package asset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-persona-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
	// DefaultHTTPTimeout は参照画像を URL から取得するときのタイムアウトです。
	DefaultHTTPTimeout = 30 * time.Second
	// maxImageBytes は1枚の参照画像として受け付ける上限です。
	maxImageBytes = 20 << 20
)

// Fetcher は参照画像のソース (ローカルパスまたは URL) からバイト列を取得します。
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// URLFetcher は URL からバイト列を取得する HTTP クライアントです。*httpkit.Client が実装します。
type URLFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// DefaultFetcher は http(s) の URL を HTTP クライアントで、それ以外をローカルファイルとして読み込みます。
type DefaultFetcher struct {
	client URLFetcher
}

// NewDefaultFetcher は DefaultFetcher を生成します。client が nil の場合は httpkit のクライアントを生成します。
func NewDefaultFetcher(client URLFetcher) DefaultFetcher {
	if client == nil {
		client = httpkit.New(DefaultHTTPTimeout)
	}
	return DefaultFetcher{client: client}
}

// Fetch はソースを読み込みます。
func (f DefaultFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := f.client
		if client == nil {
			client = httpkit.New(DefaultHTTPTimeout)
		}
		data, err := client.FetchBytes(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("画像の取得に失敗しました (%s): %w", source, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("ファイルの読み込みに失敗しました (%s): %w", source, err)
	}
	return data, nil
}

// Loader は参照画像をキャッシュ付きで読み込みます。
// 同じソースへの同時要求は1回の読み込みに集約されます。
type Loader struct {
	fetcher Fetcher
	cache   *cache.Cache
	group   singleflight.Group
}

// NewLoader は Loader を生成します。fetcher が nil の場合は NewDefaultFetcher(nil) を使います。
func NewLoader(fetcher Fetcher) *Loader {
	if fetcher == nil {
		fetcher = NewDefaultFetcher(nil)
	}
	return &Loader{
		fetcher: fetcher,
		cache:   cache.New(defaultCacheExpiration, cacheCleanupInterval),
	}
}

// Load はソースを読み込み、画像であることを確認した参照画像を返します。
func (l *Loader) Load(ctx context.Context, source string) (domain.ReferenceImage, error) {
	if cached, ok := l.cache.Get(source); ok {
		if img, ok := cached.(domain.ReferenceImage); ok {
			return img, nil
		}
	}

	val, err, shared := l.group.Do(source, func() (interface{}, error) {
		if cached, ok := l.cache.Get(source); ok {
			return cached, nil
		}

		data, err := l.fetcher.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		img, err := SniffImage(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}

		l.cache.Set(source, img, cache.DefaultExpiration)
		return img, nil
	})
	if err != nil {
		return domain.ReferenceImage{}, err
	}

	img, ok := val.(domain.ReferenceImage)
	if !ok {
		return domain.ReferenceImage{}, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	slog.DebugContext(ctx, "参照画像を読み込みました", "source", source, "mime_type", img.MimeType, "shared", shared)
	return img, nil
}

// LoadAll は複数のソースを並列に読み込みます。戻り値の順序は sources と同じです。
func (l *Loader) LoadAll(ctx context.Context, sources []string) ([]domain.ReferenceImage, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	images := make([]domain.ReferenceImage, len(sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range sources {
		eg.Go(func() error {
			img, err := l.Load(egCtx, src)
			if err != nil {
				return fmt.Errorf("参照画像 %d の読み込みに失敗しました: %w", i+1, err)
			}
			images[i] = img
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// SniffImage はバイト列の中身から MIME タイプを判定し、画像でなければ ErrInvalidSelection を返します。
// 宣言された拡張子や Content-Type は信用しません。
func SniffImage(data []byte) (domain.ReferenceImage, error) {
	if len(data) == 0 {
		return domain.ReferenceImage{}, fmt.Errorf("%w: 画像データが空です", domain.ErrInvalidSelection)
	}
	if len(data) > maxImageBytes {
		return domain.ReferenceImage{}, fmt.Errorf("%w: 画像サイズが上限 (%d bytes) を超えています", domain.ErrInvalidSelection, maxImageBytes)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return domain.ReferenceImage{}, fmt.Errorf("%w: 画像ではありません (%s)", domain.ErrInvalidSelection, mt.String())
	}
	return domain.ReferenceImage{Data: data, MimeType: baseMIME(mt.String())}, nil
}

// SniffAudio は録音データの MIME タイプを判定します。音声 (またはコンテナ) として認識できなければ ErrAudioReadFailed です。
func SniffAudio(data []byte) (domain.AudioClip, error) {
	if len(data) == 0 {
		return domain.AudioClip{}, fmt.Errorf("%w: 音声データが空です", domain.ErrAudioReadFailed)
	}
	mt := mimetype.Detect(data)
	mime := baseMIME(mt.String())
	switch {
	case strings.HasPrefix(mime, "audio/"):
	case mime == "video/webm":
		mime = "audio/webm"
	case mime == "video/mp4":
		mime = "audio/mp4"
	case mime == "video/ogg":
		mime = "audio/ogg"
	default:
		return domain.AudioClip{}, fmt.Errorf("%w: 音声として認識できません (%s)", domain.ErrAudioReadFailed, mime)
	}
	return domain.AudioClip{Data: data, MimeType: mime}, nil
}

// baseMIME は "; charset=..." などのパラメータを取り除きます。
func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		return strings.TrimSpace(m[:i])
	}
	return m
}
