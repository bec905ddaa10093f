package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

const (
	// promptTemplate はすべての分岐が最終的に使う画像生成プロンプトです。
	promptTemplate = "Generate an image based on this description: %s. The art style is %s. High quality, detailed, character focus."
	// referencePromptTemplate は参照画像付き生成用で、画風の文を参照画像への準拠指示に置き換えます。
	referencePromptTemplate = "Generate an image based on this description: %s. %s. High quality, detailed, character focus, 3:4 aspect ratio."

	// ReferenceStyleClause は参照画像の画風に従わせる指示です。
	ReferenceStyleClause = "Strictly adhere to the artistic style of the provided image(s)."

	idolStageInstruction = "The character MUST be wearing a glamorous and trendy K-pop stage outfit. " +
		"CRITICAL: Strictly avoid generating suits, business attire, formal wear, or plain casual clothing. " +
		"The outfit must be suitable for a stage performance. " +
		"They must have professional idol-style makeup and hairstyles. " +
		"IMPORTANT: Any mentioned jobs or hobbies from the description should only inform their subtle personality, " +
		"not be depicted literally with objects or backgrounds. " +
		"The final image must be a glamorous, professional photoshoot of a K-pop idol."
)

// Composer は解析結果とスタイルから画像生成プロンプトを組み立てます。
// 乱数源以外の状態を持たず、同じ入力と同じ乱数値からは同じ文字列を返します。
type Composer struct {
	pick RandomSource
}

// NewComposer は Composer を生成します。pick が nil の場合は既定の乱数源を使います。
func NewComposer(pick RandomSource) *Composer {
	if pick == nil {
		pick = DefaultRandomSource()
	}
	return &Composer{pick: pick}
}

// DiversityHint は source に対する多様性ヒントを返します。
func (c *Composer) DiversityHint(source string) string {
	return SelectDiversityHint(source, c.pick)
}

// ComposeImagePrompt は画像生成バックエンドへ送るプロンプトを返します。
//
// 参照画像を持つスタイルでは、スタイルのテキスト断片は使わず画像の画風に従わせます。
// アイドル系の制約付きスタイルでは衣装やポーズの制約を加え、
// それ以外ではキャラクター描写にスタイルの断片を連結します。
func (c *Composer) ComposeImagePrompt(analysis domain.AnalysisResult, style domain.StyleSelection) string {
	hint := c.DiversityHint(analysis.CharacterProfile)

	if refs := domain.ReferenceImagesOf(style); len(refs) > 0 {
		description := joinSentences(ComposeCharacterDescription(analysis), hint)
		return fillTemplate(referencePromptTemplate, description, ReferenceStyleClause)
	}

	fragment := styleFragment(style)
	if constraintOf(style) == domain.ConstraintIdolStage {
		return fillTemplate(promptTemplate, composeIdolDescription(analysis, hint), fragment)
	}

	description := joinSentences(ComposeCharacterDescription(analysis), hint)
	return fillTemplate(promptTemplate, description, fragment)
}

// fillTemplate は描写と画風をテンプレートに埋め込みます。
// テンプレート側が句点を持つため、描写と画風の末尾の句点は取り除きます。
func fillTemplate(template, description, style string) string {
	return fmt.Sprintf(template, trimPeriod(description), trimPeriod(style))
}

func trimPeriod(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ". ")
}

// composeIdolDescription はステージ衣装などの制約付き描写を組み立てます。
func composeIdolDescription(analysis domain.AnalysisResult, hint string) string {
	var base string
	if analysis.IsProfileRich {
		base = analysis.CharacterProfile
	} else if len(analysis.VocalCharacteristics) > 0 {
		base = fmt.Sprintf("A character whose personality and aura embodies these traits: %s.", JoinVocalTags(analysis.VocalCharacteristics))
	} else {
		base = "A character whose personality and aura embodies the feeling of their voice."
	}
	return joinSentences(
		fmt.Sprintf(`A K-pop idol inspired by this description: "%s".`, base),
		hint,
		idolStageInstruction,
	)
}

func styleFragment(style domain.StyleSelection) string {
	switch s := style.(type) {
	case domain.CatalogStyle:
		return s.PromptFragment
	case domain.CustomTextStyle:
		return strings.TrimSpace(s.Description)
	default:
		return ""
	}
}

func constraintOf(style domain.StyleSelection) domain.StyleConstraint {
	if s, ok := style.(domain.CatalogStyle); ok {
		return s.Constraint
	}
	return domain.ConstraintNone
}
