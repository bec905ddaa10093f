package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

// SpouseStyleFragment は配偶者モードで固定される画風です。
const SpouseStyleFragment = "realistic selfie style, taken from a phone camera angle, casual and warm expression, " +
	"natural lighting, modern background, photorealistic, attractive, well-proportioned features"

// ComposeSpouseDescription はユーザー自身のプロフィールと声からパートナー像を組み立てます。
func ComposeSpouseDescription(analysis domain.SpouseAnalysisResult, hint string) string {
	var about string
	if analysis.IsUserProfileRich {
		about = fmt.Sprintf(`The ideal life partner for a person who describes themselves like this: "%s".`, analysis.UserProfile)
	} else {
		voice := "their voice"
		if len(analysis.VocalCharacteristics) > 0 {
			voice = fmt.Sprintf("a voice that is %s", JoinVocalTags(analysis.VocalCharacteristics))
		}
		about = fmt.Sprintf("The ideal life partner for a person with %s. Their self-introduction was brief, so let the feeling of the voice guide the partner's personality.", voice)
		if spoken := strings.TrimSpace(analysis.UserProfile); spoken != "" {
			about += fmt.Sprintf(` For context, they said: "%s".`, spoken)
		}
	}

	return joinSentences(
		about,
		"The partner's personality should complement the user's.",
		genderClause(analysis.RequestedSpouseGender),
		hint,
	)
}

func genderClause(g domain.SpouseGender) string {
	switch g {
	case domain.SpouseGenderMan:
		return "The partner is a man."
	case domain.SpouseGenderWoman:
		return "The partner is a woman."
	default:
		return "The user did not specify a gender, so use creative latitude; an androgynous presentation is welcome."
	}
}

// ComposeSpousePrompt は配偶者モードの画像生成プロンプトを返します。
// 多様性ヒントはユーザー自身のプロフィールに対して判定します。
func (c *Composer) ComposeSpousePrompt(analysis domain.SpouseAnalysisResult) string {
	hint := c.DiversityHint(analysis.UserProfile)
	return fillTemplate(promptTemplate, ComposeSpouseDescription(analysis, hint), SpouseStyleFragment)
}
