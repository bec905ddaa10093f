package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

// vocalTagDelimiter は声の特徴タグを連結する区切りです。
const vocalTagDelimiter = ", "

// JoinVocalTags は声の特徴タグを区切り文字で連結します。
func JoinVocalTags(tags []string) string {
	return strings.Join(tags, vocalTagDelimiter)
}

// ComposeCharacterDescription はキャラクター描写文を組み立てます。
// プロフィールが十分なら CharacterProfile をそのまま返し、
// 乏しい場合は声の特徴を主役にして、発話内容は引用として補足に回します。
func ComposeCharacterDescription(analysis domain.AnalysisResult) string {
	if analysis.IsProfileRich {
		return analysis.CharacterProfile
	}
	return composeVoiceDrivenDescription(analysis.VocalCharacteristics, analysis.CharacterProfile)
}

func composeVoiceDrivenDescription(tags []string, spoken string) string {
	var voice string
	if len(tags) > 0 {
		voice = fmt.Sprintf("A character whose personality and vibe is based on their voice, which is %s.", JoinVocalTags(tags))
	} else {
		voice = "A character whose personality and vibe is based on the overall feeling of their voice."
	}
	voice += " The user's speech was brief, so focus on the feeling of the voice."
	if spoken = strings.TrimSpace(spoken); spoken == "" {
		return voice
	}
	return fmt.Sprintf(`%s For context, they also said: "%s".`, voice, spoken)
}

// joinSentences は空でない文だけを半角スペースで連結します。
func joinSentences(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			clean = append(clean, s)
		}
	}
	return strings.Join(clean, " ")
}
