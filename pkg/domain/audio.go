package domain

// AudioClip は録音が確定した音声データです。
type AudioClip struct {
	Data     []byte
	MimeType string
}

// Empty は音声データが無いかどうかを返します。
func (c AudioClip) Empty() bool {
	return len(c.Data) == 0
}

// Mode は生成モードです。
type Mode string

const (
	// ModePersona は話者自身のキャラクターを描くモードです。
	ModePersona Mode = "persona"
	// ModeSpouse は話者に合う理想のパートナーを描くモードです。
	ModeSpouse Mode = "spouse"
)

// Phase は生成セッションのフェーズです。
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseStyleSelection
	PhaseGenerating
	PhaseResult
	PhaseError
)

// String はフェーズの表示名を返します。
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRecording:
		return "Recording"
	case PhaseStyleSelection:
		return "StyleSelection"
	case PhaseGenerating:
		return "Generating"
	case PhaseResult:
		return "Result"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}
