package prompts

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// RandomSource は [0, n) の整数を返す乱数源です。テストでは固定値を返す関数を注入します。
type RandomSource func(n int) int

// DefaultRandomSource は math/rand/v2 を使う乱数源です。
func DefaultRandomSource() RandomSource {
	return rand.IntN
}

// ethnicityKeywords は、ユーザーが人種・民族を明示したかどうかの判定に使う語のリストです。
// 小文字で保持し、大文字小文字を無視して語頭からの一致で判定します。
var ethnicityKeywords = []string{
	// East / Southeast / South Asian
	"asian", "korean", "japanese", "chinese", "taiwanese", "mongolian",
	"vietnamese", "thai", "filipino", "filipina", "indonesian", "malaysian",
	"cambodian", "burmese", "indian", "pakistani", "bangladeshi", "sri lankan", "nepali",
	// African / Black
	"black", "african", "nigerian", "kenyan", "ethiopian", "ghanaian", "somali", "caribbean", "jamaican",
	// European / White
	"white", "caucasian", "european", "nordic", "slavic", "irish", "italian", "german", "french", "russian",
	// Hispanic / Latino
	"hispanic", "latino", "latina", "latinx", "mexican", "brazilian", "colombian", "argentinian", "cuban",
	// Middle Eastern / North African
	"arab", "middle eastern", "persian", "iranian", "turkish", "egyptian", "moroccan", "jewish",
	// Indigenous / Pacific
	"native american", "indigenous", "aboriginal", "pacific islander", "hawaiian", "maori", "polynesian",
	// Mixed
	"mixed race", "mixed-race", "biracial", "multiracial",
}

// ethnicityPattern は ethnicityKeywords のいずれかが語頭に現れることに一致します。
// "parable" の "arab" のような語中の一致は拾いません。
var ethnicityPattern = compileKeywordPattern(ethnicityKeywords)

func compileKeywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)`)
}

// diverseEthnicities は、未指定時に注入する候補のリストです。
var diverseEthnicities = []string{
	"East Asian",
	"South Asian",
	"Southeast Asian",
	"Black",
	"Hispanic or Latino",
	"Middle Eastern",
	"White",
	"Indigenous",
	"Pacific Islander",
	"mixed-race",
}

// DiverseEthnicities は注入候補の複製を返します。
func DiverseEthnicities() []string {
	out := make([]string, len(diverseEthnicities))
	copy(out, diverseEthnicities)
	return out
}

// MentionsEthnicity は source に人種・民族を示す語が含まれるかを返します。
func MentionsEthnicity(source string) bool {
	return ethnicityPattern.MatchString(strings.ToLower(source))
}

// SelectDiversityHint は、source に人種・民族の指定がなければ候補から1つ選んだ一文を返します。
// 指定があれば空文字を返し、ユーザーの明示を上書きしません。
func SelectDiversityHint(source string, pick RandomSource) string {
	if MentionsEthnicity(source) {
		return ""
	}
	if pick == nil {
		pick = DefaultRandomSource()
	}
	idx := pick(len(diverseEthnicities))
	if idx < 0 || idx >= len(diverseEthnicities) {
		idx = 0
	}
	return fmt.Sprintf("The character is of %s descent.", diverseEthnicities[idx])
}
