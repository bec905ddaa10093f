package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

//go:embed styles.json
var defaultCatalogJSON []byte

// Style はカタログに登録された画風の定義です。
type Style struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	ThumbnailURL   string                 `json:"thumbnail_url"`
	PromptFragment string                 `json:"prompt_fragment"`
	Constraint     domain.StyleConstraint `json:"constraint,omitempty"`
	// ReferenceImages は参照画像のソース (ローカルパスまたは URL) です。
	ReferenceImages []string `json:"reference_images,omitempty"`
}

// GalleryEntry は配偶者モードの作例です。表示専用でプロンプト断片は持ちません。
type GalleryEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Caption      string `json:"caption"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type catalogFile struct {
	Styles          []Style        `json:"styles"`
	SpouseGallery   []GalleryEntry `json:"spouse_gallery"`
	LoadingMessages []string       `json:"loading_messages"`
}

// ImageLoader は参照画像のソースを画像データに解決します。
type ImageLoader interface {
	LoadAll(ctx context.Context, sources []string) ([]domain.ReferenceImage, error)
}

// Catalog は起動時に一度だけ構築される読み取り専用のスタイル表です。
// 構築後は変更されないため、並行読み取りにロックは不要です。
type Catalog struct {
	styles   []Style
	index    map[string]int
	gallery  []GalleryEntry
	messages []string
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultCatalogJSON)
})

// Default は埋め込みのカタログを返します。
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// Load は指定パスの JSON からカタログを構築します。
// 相対パスの参照画像は JSON ファイルのディレクトリを基準に解決します。
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("カタログファイルの読み込みに失敗しました: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.resolveRelative(filepath.Dir(path))
	return c, nil
}

// Parse は JSON バイト列からカタログを構築し、内容を検証します。
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("カタログのデコードに失敗しました: %w", err)
	}
	if len(f.Styles) == 0 {
		return nil, fmt.Errorf("カタログにスタイルが1件もありません")
	}

	c := &Catalog{
		styles:   f.Styles,
		index:    make(map[string]int, len(f.Styles)),
		gallery:  f.SpouseGallery,
		messages: f.LoadingMessages,
	}
	for i, s := range f.Styles {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("スタイル %d の id が空です", i+1)
		}
		if _, dup := c.index[s.ID]; dup {
			return nil, fmt.Errorf("スタイル id '%s' が重複しています", s.ID)
		}
		if strings.TrimSpace(s.PromptFragment) == "" && len(s.ReferenceImages) == 0 {
			return nil, fmt.Errorf("スタイル '%s' には prompt_fragment か reference_images が必要です", s.ID)
		}
		c.index[s.ID] = i
	}
	return c, nil
}

// Lookup は ID に対応するスタイルを返します。
func (c *Catalog) Lookup(id string) (Style, bool) {
	i, ok := c.index[id]
	if !ok {
		return Style{}, false
	}
	return c.styles[i], true
}

// All は表示順のスタイル一覧を返します。
func (c *Catalog) All() []Style {
	out := make([]Style, len(c.styles))
	copy(out, c.styles)
	return out
}

// Gallery は配偶者モードの作例一覧を返します。
func (c *Catalog) Gallery() []GalleryEntry {
	out := make([]GalleryEntry, len(c.gallery))
	copy(out, c.gallery)
	return out
}

// LoadingMessage は生成中に表示する一文を pick で選びます。
func (c *Catalog) LoadingMessage(pick func(n int) int) string {
	if len(c.messages) == 0 {
		return "Generating..."
	}
	i := 0
	if pick != nil {
		i = pick(len(c.messages))
	}
	if i < 0 || i >= len(c.messages) {
		i = 0
	}
	return c.messages[i]
}

// Resolve は ID のスタイルを参照画像込みの選択値に変換します。
// 未登録の ID は ErrInvalidSelection です。
func (c *Catalog) Resolve(ctx context.Context, id string, loader ImageLoader) (domain.CatalogStyle, error) {
	s, ok := c.Lookup(id)
	if !ok {
		return domain.CatalogStyle{}, fmt.Errorf("%w: 未登録のスタイルです: %s", domain.ErrInvalidSelection, id)
	}

	sel := domain.CatalogStyle{
		ID:             s.ID,
		PromptFragment: s.PromptFragment,
		Constraint:     s.Constraint,
	}
	if len(s.ReferenceImages) > 0 {
		if loader == nil {
			return domain.CatalogStyle{}, fmt.Errorf("スタイル '%s' の参照画像を読み込むローダーがありません", id)
		}
		refs, err := loader.LoadAll(ctx, s.ReferenceImages)
		if err != nil {
			return domain.CatalogStyle{}, fmt.Errorf("スタイル '%s' の参照画像の読み込みに失敗しました: %w", id, err)
		}
		sel.ReferenceImages = refs
	}
	return sel, nil
}

func (c *Catalog) resolveRelative(base string) {
	for i := range c.styles {
		for j, src := range c.styles[i].ReferenceImages {
			if strings.Contains(src, "://") || filepath.IsAbs(src) {
				continue
			}
			c.styles[i].ReferenceImages[j] = filepath.Join(base, src)
		}
	}
}
