package domain

import (
	"errors"
	"testing"
)

func TestValidateSelection(t *testing.T) {
	png := ReferenceImage{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}

	valid := []StyleSelection{
		CatalogStyle{ID: "watercolor", PromptFragment: "watercolor painting"},
		CatalogStyle{ID: "ref_only", ReferenceImages: []ReferenceImage{png}},
		CustomTextStyle{Description: "pixel art"},
		UserUploadedStyle{Reference: png},
	}
	for _, sel := range valid {
		if err := ValidateSelection(sel); err != nil {
			t.Errorf("%s: 予期しないエラー: %v", sel.StyleID(), err)
		}
	}

	invalid := map[string]StyleSelection{
		"nil":               nil,
		"IDが空":              CatalogStyle{PromptFragment: "x"},
		"断片も参照画像も無い":        CatalogStyle{ID: "empty"},
		"空白だけのカスタム":         CustomTextStyle{Description: " \t\n"},
		"空のアップロード":          UserUploadedStyle{},
		"画像でないアップロード":       UserUploadedStyle{Reference: ReferenceImage{Data: []byte("hello"), MimeType: "text/plain"}},
		"カタログの参照画像が壊れている": CatalogStyle{ID: "broken", ReferenceImages: []ReferenceImage{{MimeType: "image/png"}}},
	}
	for name, sel := range invalid {
		t.Run(name, func(t *testing.T) {
			err := ValidateSelection(sel)
			if !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("ErrInvalidSelection が返りませんでした: %v", err)
			}
		})
	}
}

func TestReferenceImagesOf(t *testing.T) {
	img := ReferenceImage{Data: []byte{1}, MimeType: "image/png"}

	if got := ReferenceImagesOf(UserUploadedStyle{Reference: img}); len(got) != 1 {
		t.Errorf("アップロード画像は1枚のはずです: %d", len(got))
	}
	if got := ReferenceImagesOf(CatalogStyle{ID: "a", ReferenceImages: []ReferenceImage{img, img}}); len(got) != 2 {
		t.Errorf("カタログの参照画像は2枚のはずです: %d", len(got))
	}
	if got := ReferenceImagesOf(CustomTextStyle{Description: "x"}); got != nil {
		t.Errorf("カスタムスタイルに参照画像はありません: %v", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrAnalysisFailed, "Failed to analyze voice. Please try again."},
		{errors.Join(ErrNoImageProduced, errors.New("detail")), "No image was generated. Please try another style or try again."},
		{errors.New("boom"), "An unknown error occurred."},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseGenerating.String() != "Generating" {
		t.Errorf("PhaseGenerating.String() = %q", PhaseGenerating.String())
	}
	if Phase(99).String() != "Unknown" {
		t.Errorf("Phase(99).String() = %q", Phase(99).String())
	}
}
