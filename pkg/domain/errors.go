package domain

import (
	"errors"
)

var (
	// ErrMicrophoneAccessDenied はマイクの取得に失敗したことを示します。生成フェーズには影響しません。
	ErrMicrophoneAccessDenied = errors.New("microphone access denied")
	// ErrAudioReadFailed は録音データの読み込みに失敗したことを示します。
	ErrAudioReadFailed = errors.New("audio read failed")
	// ErrAnalysisFailed は音声解析の呼び出し、またはレスポンスのパースに失敗したことを示します。
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrNoImageProduced はバックエンドが応答したものの画像が含まれていなかったことを示します。
	ErrNoImageProduced = errors.New("no image produced")
	// ErrBackendUnavailable はバックエンドとの通信自体が失敗したことを示します。
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrInvalidSelection はスタイル選択が不正であることを示します。バックエンドは呼ばれません。
	ErrInvalidSelection = errors.New("invalid style selection")

	// ErrInvalidTransition は現在のフェーズで受け付けられないコマンドです。
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrGenerationInFlight は生成中に新しい生成要求が来たことを示します。
	ErrGenerationInFlight = errors.New("generation already in flight")
)

// UserMessage はエラーを画面表示用の1文に変換します。
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMicrophoneAccessDenied):
		return "Microphone access denied. Please allow microphone access and try again."
	case errors.Is(err, ErrAudioReadFailed):
		return "Failed to read the recorded audio. Please record again."
	case errors.Is(err, ErrAnalysisFailed):
		return "Failed to analyze voice. Please try again."
	case errors.Is(err, ErrNoImageProduced):
		return "No image was generated. Please try another style or try again."
	case errors.Is(err, ErrBackendUnavailable):
		return "The generation service is unavailable. Please try again."
	case errors.Is(err, ErrInvalidSelection):
		return "That style selection is not valid. Please choose another style."
	case errors.Is(err, ErrGenerationInFlight):
		return "A character is already being generated. Please wait."
	default:
		return "An unknown error occurred."
	}
}
