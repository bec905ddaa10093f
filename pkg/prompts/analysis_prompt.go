package prompts

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

//go:embed templates/persona_analysis.md
var PersonaAnalysisPrompt string

//go:embed templates/spouse_analysis.md
var SpouseAnalysisPrompt string

// analysisPrompts はモードと音声解析用の指示文を紐づけます。
var analysisPrompts = map[domain.Mode]string{
	domain.ModePersona: PersonaAnalysisPrompt,
	domain.ModeSpouse:  SpouseAnalysisPrompt,
}

// GetAnalysisPrompt は指定モードの音声解析指示文を返します。
func GetAnalysisPrompt(mode domain.Mode) (string, error) {
	content, ok := analysisPrompts[mode]
	if !ok {
		supported := make([]string, 0, len(analysisPrompts))
		for _, m := range slices.Sorted(maps.Keys(analysisPrompts)) {
			supported = append(supported, string(m))
		}
		return "", fmt.Errorf("サポートされていないモード: '%s'。サポートされているモードは [%s] です",
			mode, strings.Join(supported, ", "))
	}

	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("モード '%s' の解析プロンプトが空です。embed設定を確認してください", mode)
	}

	return content, nil
}
