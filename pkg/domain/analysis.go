package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisResult はペルソナモードで音声解析から得られるプロフィールです。
// 録音1件につき1度だけ生成され、以後は変更されません。
type AnalysisResult struct {
	CharacterProfile     string   `json:"characterProfile"`
	VocalCharacteristics []string `json:"vocalCharacteristics"`
	IsProfileRich        bool     `json:"isProfileRich"`
}

// SpouseGender は配偶者モードでユーザーが希望した性別です。
type SpouseGender string

const (
	SpouseGenderMan         SpouseGender = "man"
	SpouseGenderWoman       SpouseGender = "woman"
	SpouseGenderUnspecified SpouseGender = "unspecified"
)

// Valid は既知の値かどうかを返します。
func (g SpouseGender) Valid() bool {
	switch g {
	case SpouseGenderMan, SpouseGenderWoman, SpouseGenderUnspecified:
		return true
	default:
		return false
	}
}

// SpouseAnalysisResult は配偶者モードで音声解析から得られるプロフィールです。
type SpouseAnalysisResult struct {
	UserProfile           string       `json:"userProfile"`
	VocalCharacteristics  []string     `json:"vocalCharacteristics"`
	RequestedSpouseGender SpouseGender `json:"requestedSpouseGender"`
	IsUserProfileRich     bool         `json:"isUserProfileRich"`
}

// wire 形式。欠落フィールドを検出するためにポインタで受けます。
type analysisWire struct {
	CharacterProfile     *string   `json:"characterProfile"`
	VocalCharacteristics *[]string `json:"vocalCharacteristics"`
	IsProfileRich        *bool     `json:"isProfileRich"`
}

type spouseAnalysisWire struct {
	UserProfile           *string   `json:"userProfile"`
	VocalCharacteristics  *[]string `json:"vocalCharacteristics"`
	RequestedSpouseGender *string   `json:"requestedSpouseGender"`
	IsUserProfileRich     *bool     `json:"isUserProfileRich"`
}

// ParseAnalysisResult はモデルが返した JSON テキストを厳密に AnalysisResult へ変換します。
// フィールドの欠落や型の不一致はすべてエラーです。
func ParseAnalysisResult(raw string) (AnalysisResult, error) {
	var w analysisWire
	if err := decodeStrict(raw, &w); err != nil {
		return AnalysisResult{}, err
	}
	if w.CharacterProfile == nil || w.VocalCharacteristics == nil || w.IsProfileRich == nil {
		return AnalysisResult{}, fmt.Errorf("必須フィールドが欠落しています: characterProfile, vocalCharacteristics, isProfileRich")
	}
	return AnalysisResult{
		CharacterProfile:     strings.TrimSpace(*w.CharacterProfile),
		VocalCharacteristics: cleanTags(*w.VocalCharacteristics),
		IsProfileRich:        *w.IsProfileRich,
	}, nil
}

// ParseSpouseAnalysisResult はモデルが返した JSON テキストを厳密に SpouseAnalysisResult へ変換します。
func ParseSpouseAnalysisResult(raw string) (SpouseAnalysisResult, error) {
	var w spouseAnalysisWire
	if err := decodeStrict(raw, &w); err != nil {
		return SpouseAnalysisResult{}, err
	}
	if w.UserProfile == nil || w.VocalCharacteristics == nil || w.RequestedSpouseGender == nil || w.IsUserProfileRich == nil {
		return SpouseAnalysisResult{}, fmt.Errorf("必須フィールドが欠落しています: userProfile, vocalCharacteristics, requestedSpouseGender, isUserProfileRich")
	}
	gender := SpouseGender(strings.ToLower(strings.TrimSpace(*w.RequestedSpouseGender)))
	if !gender.Valid() {
		return SpouseAnalysisResult{}, fmt.Errorf("requestedSpouseGender の値が不正です: %q", *w.RequestedSpouseGender)
	}
	return SpouseAnalysisResult{
		UserProfile:           strings.TrimSpace(*w.UserProfile),
		VocalCharacteristics:  cleanTags(*w.VocalCharacteristics),
		RequestedSpouseGender: gender,
		IsUserProfileRich:     *w.IsUserProfileRich,
	}, nil
}

func decodeStrict(raw string, v any) error {
	// スキーマを指定していても ```json で囲まれて返ることがあります
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("レスポンスが空です")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("JSONのパースに失敗しました: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("JSONオブジェクトの後に余分なデータがあります")
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
