package session

import (
	"errors"
	"fmt"

	"github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-persona-kit/pkg/domain"
)

// ErrStaleEvent は reset 後や別の生成に属する完了通知です。状態は変わりません。
var ErrStaleEvent = errors.New("generation discarded by reset")

// FailurePolicy は生成失敗時にキャッシュ済みの解析結果をどう扱うかです。
type FailurePolicy string

const (
	// PolicyDiscardAll はどの段階の失敗でも解析結果を破棄し、次の試行で再解析します。
	PolicyDiscardAll FailurePolicy = "discard_all"
	// PolicyRetainOnImageFailure は解析段階の失敗のときだけ解析結果を破棄します。
	PolicyRetainOnImageFailure FailurePolicy = "retain_on_image_failure"
)

// ParseFailurePolicy は文字列をポリシーに変換します。空文字は PolicyDiscardAll です。
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", PolicyDiscardAll:
		return PolicyDiscardAll, nil
	case PolicyRetainOnImageFailure:
		return PolicyRetainOnImageFailure, nil
	default:
		return "", fmt.Errorf("不明な失敗ポリシーです: '%s' (%s | %s)", s, PolicyDiscardAll, PolicyRetainOnImageFailure)
	}
}

// Stage は失敗が起きたパイプラインの段階です。
type Stage int

const (
	StageAnalysis Stage = iota + 1
	StageImage
)

func (s Stage) String() string {
	switch s {
	case StageAnalysis:
		return "analysis"
	case StageImage:
		return "image"
	default:
		return "unknown"
	}
}

// EffectKind は遷移の結果として実行すべき外部呼び出しです。
type EffectKind int

const (
	EffectCallAnalysis EffectKind = iota + 1
	EffectCallImage
)

func (k EffectKind) String() string {
	switch k {
	case EffectCallAnalysis:
		return "callAnalysis"
	case EffectCallImage:
		return "callImage"
	default:
		return "none"
	}
}

// Effect は1回の外部呼び出しの指示です。Epoch は完了通知の照合に使います。
type Effect struct {
	Kind  EffectKind
	Epoch uint64
}

// State はセッションの状態です。Transition だけが新しい State を作ります。
type State struct {
	Mode   domain.Mode
	Policy FailurePolicy
	Phase  domain.Phase

	Audio          *domain.AudioClip
	Analysis       *domain.AnalysisResult
	SpouseAnalysis *domain.SpouseAnalysisResult
	Selection      domain.StyleSelection

	Image     *ports.ImageResponse
	Prompt    string
	LastError error

	// Epoch は生成を開始するたびと reset のたびに進みます。
	Epoch uint64
}

// NewState は Idle の初期状態を返します。
func NewState(mode domain.Mode, policy FailurePolicy) State {
	if mode == "" {
		mode = domain.ModePersona
	}
	if policy == "" {
		policy = PolicyDiscardAll
	}
	return State{Mode: mode, Policy: policy, Phase: domain.PhaseIdle}
}

// HasAnalysis はモードに応じた解析結果がキャッシュされているかを返します。
func (s State) HasAnalysis() bool {
	if s.Mode == domain.ModeSpouse {
		return s.SpouseAnalysis != nil
	}
	return s.Analysis != nil
}

func (s State) clearAnalysis() State {
	s.Analysis = nil
	s.SpouseAnalysis = nil
	return s
}

// Event はセッションへの入力です。
type Event interface {
	isEvent()
}

type (
	// EventStart は録音開始です。
	EventStart struct{}
	// EventRecordingComplete は録音の確定です。ReadErr は読み込み失敗を表します。
	EventRecordingComplete struct {
		Clip    domain.AudioClip
		ReadErr error
	}
	// EventStyleChosen はスタイルの選択です。配偶者モードでは Selection を無視します。
	EventStyleChosen struct {
		Selection domain.StyleSelection
	}
	// EventAnalysisSucceeded は解析の完了です。モードに対応する一方だけが設定されます。
	EventAnalysisSucceeded struct {
		Epoch  uint64
		Result *domain.AnalysisResult
		Spouse *domain.SpouseAnalysisResult
	}
	// EventImageSucceeded は画像生成の完了です。
	EventImageSucceeded struct {
		Epoch  uint64
		Image  *ports.ImageResponse
		Prompt string
	}
	// EventFailed は解析または画像生成の失敗です。
	EventFailed struct {
		Epoch uint64
		Stage Stage
		Err   error
	}
	// EventReset はセッションの破棄です。
	EventReset struct{}
)

func (EventStart) isEvent()             {}
func (EventRecordingComplete) isEvent() {}
func (EventStyleChosen) isEvent()       {}
func (EventAnalysisSucceeded) isEvent() {}
func (EventImageSucceeded) isEvent()    {}
func (EventFailed) isEvent()            {}
func (EventReset) isEvent()             {}

// Transition は状態とイベントから次の状態と実行すべき効果を返す純粋関数です。
// 受け付けられないイベントではエラーを返し、状態は s のまま変わりません。
func Transition(s State, ev Event) (State, []Effect, error) {
	switch e := ev.(type) {
	case EventStart:
		return onStart(s)
	case EventRecordingComplete:
		return onRecordingComplete(s, e)
	case EventStyleChosen:
		return onStyleChosen(s, e)
	case EventAnalysisSucceeded:
		return onAnalysisSucceeded(s, e)
	case EventImageSucceeded:
		return onImageSucceeded(s, e)
	case EventFailed:
		return onFailed(s, e)
	case EventReset:
		next := NewState(s.Mode, s.Policy)
		next.Epoch = s.Epoch + 1
		return next, nil, nil
	default:
		return s, nil, fmt.Errorf("%w: 不明なイベント %T", domain.ErrInvalidTransition, ev)
	}
}

func invalid(s State, ev string) (State, []Effect, error) {
	return s, nil, fmt.Errorf("%w: %s は %s では受け付けられません", domain.ErrInvalidTransition, ev, s.Phase)
}

func onStart(s State) (State, []Effect, error) {
	switch s.Phase {
	case domain.PhaseIdle, domain.PhaseError:
	default:
		return invalid(s, "start")
	}
	next := NewState(s.Mode, s.Policy)
	next.Epoch = s.Epoch
	next.Phase = domain.PhaseRecording
	return next, nil, nil
}

func onRecordingComplete(s State, e EventRecordingComplete) (State, []Effect, error) {
	if s.Phase != domain.PhaseRecording {
		return invalid(s, "recordingComplete")
	}

	readErr := e.ReadErr
	if readErr == nil && e.Clip.Empty() {
		readErr = fmt.Errorf("%w: 録音データが空です", domain.ErrAudioReadFailed)
	}
	if readErr != nil {
		if !errors.Is(readErr, domain.ErrAudioReadFailed) {
			readErr = fmt.Errorf("%w: %w", domain.ErrAudioReadFailed, readErr)
		}
		s.Phase = domain.PhaseError
		s.Audio = nil
		s.LastError = readErr
		return s, nil, nil
	}

	clip := e.Clip
	s.Audio = &clip
	s = s.clearAnalysis()
	s.LastError = nil

	if s.Mode == domain.ModeSpouse {
		return beginGeneration(s, nil)
	}
	s.Phase = domain.PhaseStyleSelection
	return s, nil, nil
}

func onStyleChosen(s State, e EventStyleChosen) (State, []Effect, error) {
	switch s.Phase {
	case domain.PhaseGenerating:
		return s, nil, domain.ErrGenerationInFlight
	case domain.PhaseStyleSelection, domain.PhaseResult, domain.PhaseError:
	default:
		return invalid(s, "styleChosen")
	}
	if s.Audio == nil {
		return invalid(s, "styleChosen (録音なし)")
	}

	if s.Mode == domain.ModeSpouse {
		return beginGeneration(s, nil)
	}
	if err := domain.ValidateSelection(e.Selection); err != nil {
		return s, nil, err
	}
	return beginGeneration(s, e.Selection)
}

// beginGeneration は Generating に入り、キャッシュの有無で最初の効果を決めます。
func beginGeneration(s State, sel domain.StyleSelection) (State, []Effect, error) {
	s.Phase = domain.PhaseGenerating
	s.Selection = sel
	s.Image = nil
	s.Prompt = ""
	s.LastError = nil
	s.Epoch++

	kind := EffectCallImage
	if !s.HasAnalysis() {
		kind = EffectCallAnalysis
	}
	return s, []Effect{{Kind: kind, Epoch: s.Epoch}}, nil
}

func current(s State, epoch uint64) bool {
	return s.Phase == domain.PhaseGenerating && s.Epoch == epoch
}

func onAnalysisSucceeded(s State, e EventAnalysisSucceeded) (State, []Effect, error) {
	if !current(s, e.Epoch) {
		return s, nil, ErrStaleEvent
	}
	if s.Mode == domain.ModeSpouse {
		if e.Spouse == nil {
			return invalid(s, "analysisSucceeded (配偶者解析なし)")
		}
		r := *e.Spouse
		s.SpouseAnalysis = &r
	} else {
		if e.Result == nil {
			return invalid(s, "analysisSucceeded (解析結果なし)")
		}
		r := *e.Result
		s.Analysis = &r
	}
	return s, []Effect{{Kind: EffectCallImage, Epoch: s.Epoch}}, nil
}

func onImageSucceeded(s State, e EventImageSucceeded) (State, []Effect, error) {
	if !current(s, e.Epoch) {
		return s, nil, ErrStaleEvent
	}
	s.Phase = domain.PhaseResult
	s.Image = e.Image
	s.Prompt = e.Prompt
	return s, nil, nil
}

func onFailed(s State, e EventFailed) (State, []Effect, error) {
	if !current(s, e.Epoch) {
		return s, nil, ErrStaleEvent
	}
	s.Phase = domain.PhaseError
	s.LastError = e.Err
	s.Selection = nil
	if s.Policy == PolicyDiscardAll || e.Stage == StageAnalysis {
		s = s.clearAnalysis()
	}
	return s, nil, nil
}
