package adapters

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Part はバックエンド応答の1要素です。TextPart、ImagePart、StatusPart のいずれかです。
type Part interface {
	isPart()
}

// TextPart はテキスト要素です。
type TextPart struct {
	Text string
}

// ImagePart はインライン画像要素です。
type ImagePart struct {
	Data     []byte
	MimeType string
}

// StatusPart は画像が返らなかった理由など、応答に付随する状態です。
// Source は prompt_feedback、finish、rai_filter のいずれかです。
type StatusPart struct {
	Source  string
	Reason  string
	Message string
}

func (TextPart) isPart()   {}
func (ImagePart) isPart()  {}
func (StatusPart) isPart() {}

// FirstImage は parts の中で最初に現れる空でない画像要素を返します。
// 画像の探索はすべての呼び出し元でこの関数を使います。
func FirstImage(parts []Part) (ImagePart, bool) {
	for _, p := range parts {
		if img, ok := p.(ImagePart); ok && len(img.Data) > 0 {
			return img, true
		}
	}
	return ImagePart{}, false
}

// PartsFromContent は GenerateContent の応答の先頭候補を Part 列に変換します。
// ブロック理由や終了理由は StatusPart として末尾に付けます。
func PartsFromContent(resp *genai.GenerateContentResponse) []Part {
	if resp == nil {
		return nil
	}
	var parts []Part
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		parts = append(parts, StatusPart{Source: "prompt_feedback", Reason: string(fb.BlockReason), Message: fb.BlockReasonMessage})
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return parts
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			if p.InlineData != nil {
				parts = append(parts, ImagePart{Data: p.InlineData.Data, MimeType: p.InlineData.MIMEType})
				continue
			}
			if p.Text != "" {
				parts = append(parts, TextPart{Text: p.Text})
			}
		}
	}
	if (cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop) || cand.FinishMessage != "" {
		parts = append(parts, StatusPart{Source: "finish", Reason: string(cand.FinishReason), Message: cand.FinishMessage})
	}
	return parts
}

// PartsFromImages は GenerateImages の応答を Part 列に変換します。
// フィルタで除外された画像は StatusPart になります。
func PartsFromImages(resp *genai.GenerateImagesResponse) []Part {
	if resp == nil {
		return nil
	}
	var parts []Part
	for _, img := range resp.GeneratedImages {
		if img == nil {
			continue
		}
		if img.Image != nil {
			parts = append(parts, ImagePart{Data: img.Image.ImageBytes, MimeType: img.Image.MIMEType})
		}
		if img.RAIFilteredReason != "" {
			parts = append(parts, StatusPart{Source: "rai_filter", Reason: img.RAIFilteredReason})
		}
	}
	return parts
}

// TextOf は Part 列のテキスト要素を連結します。
func TextOf(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if t, ok := p.(TextPart); ok {
			sb.WriteString(t.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// describeParts は診断ログ用に応答の中身を要約します。
func describeParts(parts []Part) []string {
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case TextPart:
			out = append(out, fmt.Sprintf("#%d text: %s", i, v.Text))
		case ImagePart:
			out = append(out, fmt.Sprintf("#%d image: %s (%d bytes)", i, v.MimeType, len(v.Data)))
		case StatusPart:
			out = append(out, fmt.Sprintf("#%d %s: %s %s", i, v.Source, v.Reason, v.Message))
		}
	}
	return out
}
