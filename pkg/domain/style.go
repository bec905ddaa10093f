package domain

import (
	"fmt"
	"strings"
)

// StyleConstraint はプロンプト構築時に特殊な制約が必要なスタイルを示します。
type StyleConstraint string

const (
	// ConstraintNone は追加制約なしです。
	ConstraintNone StyleConstraint = ""
	// ConstraintIdolStage はステージ衣装・アイドルメイクを強制し、スーツ等を禁止します。
	ConstraintIdolStage StyleConstraint = "idol_stage"
)

// ReferenceImage はスタイル参照用の画像データです。
type ReferenceImage struct {
	Data     []byte
	MimeType string
}

// StyleSelection はユーザーが選んだスタイルです。
// CatalogStyle, CustomTextStyle, UserUploadedStyle のいずれかになります。
type StyleSelection interface {
	// StyleID はログや出力ファイル名に使う識別子です。
	StyleID() string
	isStyleSelection()
}

// CatalogStyle はカタログに登録済みのスタイルです。
type CatalogStyle struct {
	ID              string
	PromptFragment  string
	Constraint      StyleConstraint
	ReferenceImages []ReferenceImage
}

// CustomTextStyle は自由記述のスタイルです。
type CustomTextStyle struct {
	Description string
}

// UserUploadedStyle はユーザーがアップロードした参照画像によるスタイルです。
type UserUploadedStyle struct {
	Reference ReferenceImage
}

func (s CatalogStyle) StyleID() string      { return s.ID }
func (s CustomTextStyle) StyleID() string   { return "custom" }
func (s UserUploadedStyle) StyleID() string { return "uploaded" }

func (CatalogStyle) isStyleSelection()      {}
func (CustomTextStyle) isStyleSelection()   {}
func (UserUploadedStyle) isStyleSelection() {}

// ReferenceImagesOf は選択に含まれる参照画像を返します。参照画像のないスタイルでは nil です。
func ReferenceImagesOf(sel StyleSelection) []ReferenceImage {
	switch s := sel.(type) {
	case CatalogStyle:
		return s.ReferenceImages
	case UserUploadedStyle:
		return []ReferenceImage{s.Reference}
	default:
		return nil
	}
}

// ValidateSelection はバックエンド呼び出し前に選択内容を検証します。
// 不正な場合は ErrInvalidSelection をラップしたエラーを返します。
func ValidateSelection(sel StyleSelection) error {
	switch s := sel.(type) {
	case nil:
		return fmt.Errorf("%w: スタイルが指定されていません", ErrInvalidSelection)
	case CatalogStyle:
		if s.ID == "" {
			return fmt.Errorf("%w: スタイルIDが空です", ErrInvalidSelection)
		}
		if len(s.ReferenceImages) == 0 && strings.TrimSpace(s.PromptFragment) == "" {
			return fmt.Errorf("%w: スタイル '%s' にプロンプトも参照画像もありません", ErrInvalidSelection, s.ID)
		}
		for i, img := range s.ReferenceImages {
			if err := validateImage(img); err != nil {
				return fmt.Errorf("%w: スタイル '%s' の参照画像 %d: %v", ErrInvalidSelection, s.ID, i+1, err)
			}
		}
	case CustomTextStyle:
		if strings.TrimSpace(s.Description) == "" {
			return fmt.Errorf("%w: カスタムスタイルの説明が空です", ErrInvalidSelection)
		}
	case UserUploadedStyle:
		if err := validateImage(s.Reference); err != nil {
			return fmt.Errorf("%w: アップロード画像: %v", ErrInvalidSelection, err)
		}
	default:
		return fmt.Errorf("%w: 未知のスタイル種別 %T", ErrInvalidSelection, sel)
	}
	return nil
}

func validateImage(img ReferenceImage) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("画像データが空です")
	}
	if !strings.HasPrefix(img.MimeType, "image/") {
		return fmt.Errorf("画像ではないMIMEタイプです: %q", img.MimeType)
	}
	return nil
}
