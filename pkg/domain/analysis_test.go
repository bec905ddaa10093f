package domain

import (
	"slices"
	"testing"
)

func TestParseAnalysisResult(t *testing.T) {
	t.Run("正常なJSONをパースできること", func(t *testing.T) {
		raw := `{"characterProfile":" 32-year-old, ENTJ, software developer ","vocalCharacteristics":["calm"," low-pitched ",""],"isProfileRich":true}`
		got, err := ParseAnalysisResult(raw)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got.CharacterProfile != "32-year-old, ENTJ, software developer" {
			t.Errorf("CharacterProfile = %q", got.CharacterProfile)
		}
		if !slices.Equal(got.VocalCharacteristics, []string{"calm", "low-pitched"}) {
			t.Errorf("VocalCharacteristics = %v", got.VocalCharacteristics)
		}
		if !got.IsProfileRich {
			t.Error("IsProfileRich が false です")
		}
	})

	t.Run("コードフェンスで囲まれていてもパースできること", func(t *testing.T) {
		raw := "```json\n{\"characterProfile\":\"\",\"vocalCharacteristics\":[],\"isProfileRich\":false}\n```"
		got, err := ParseAnalysisResult(raw)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got.IsProfileRich || len(got.VocalCharacteristics) != 0 {
			t.Errorf("予期しない結果: %+v", got)
		}
	})

	errorCases := map[string]string{
		"空文字":       "",
		"不正なJSON":   `{ invalid json }`,
		"フィールド欠落":   `{"characterProfile":"x","isProfileRich":true}`,
		"型の不一致":     `{"characterProfile":"x","vocalCharacteristics":"calm","isProfileRich":true}`,
		"未知のフィールド":  `{"characterProfile":"x","vocalCharacteristics":[],"isProfileRich":true,"extra":1}`,
		"後ろに余分なデータ": `{"characterProfile":"x","vocalCharacteristics":[],"isProfileRich":true} {}`,
	}
	for name, raw := range errorCases {
		t.Run("異常系: "+name, func(t *testing.T) {
			if _, err := ParseAnalysisResult(raw); err == nil {
				t.Error("エラーが返りませんでした")
			}
		})
	}
}

func TestParseSpouseAnalysisResult(t *testing.T) {
	t.Run("性別は大文字小文字を無視して正規化されること", func(t *testing.T) {
		raw := `{"userProfile":"I love hiking","vocalCharacteristics":["warm"],"requestedSpouseGender":"Woman","isUserProfileRich":false}`
		got, err := ParseSpouseAnalysisResult(raw)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got.RequestedSpouseGender != SpouseGenderWoman {
			t.Errorf("RequestedSpouseGender = %q", got.RequestedSpouseGender)
		}
	})

	t.Run("未知の性別はエラーになること", func(t *testing.T) {
		raw := `{"userProfile":"x","vocalCharacteristics":[],"requestedSpouseGender":"robot","isUserProfileRich":true}`
		if _, err := ParseSpouseAnalysisResult(raw); err == nil {
			t.Error("エラーが返りませんでした")
		}
	})

	t.Run("フィールド欠落はエラーになること", func(t *testing.T) {
		raw := `{"userProfile":"x","vocalCharacteristics":[],"isUserProfileRich":true}`
		if _, err := ParseSpouseAnalysisResult(raw); err == nil {
			t.Error("エラーが返りませんでした")
		}
	})
}
