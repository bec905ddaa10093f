package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shouni/gemini-image-kit/ports"
	"github.com/shouni/go-persona-kit/pkg/asset"
	"github.com/shouni/go-persona-kit/pkg/domain"
)

// PersonaAnalyzer はペルソナモードの音声解析です。
type PersonaAnalyzer interface {
	AnalyzeVoice(ctx context.Context, clip domain.AudioClip) (domain.AnalysisResult, error)
}

// SpouseAnalyzer は配偶者モードの音声解析です。
type SpouseAnalyzer interface {
	AnalyzeSpouse(ctx context.Context, clip domain.AudioClip) (domain.SpouseAnalysisResult, error)
}

// ImageGenerator は合成済みプロンプトから画像を1枚生成します。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, refs []domain.ReferenceImage) (*ports.ImageResponse, error)
}

// PromptComposer は解析結果とスタイルからプロンプトを合成します。
type PromptComposer interface {
	ComposeImagePrompt(analysis domain.AnalysisResult, style domain.StyleSelection) string
	ComposeSpousePrompt(analysis domain.SpouseAnalysisResult) string
}

// EventSink は表示側へフェーズと結果を通知します。
type EventSink interface {
	PhaseChanged(sessionID string, phase domain.Phase)
	ResultReady(result Result)
	ErrorRaised(sessionID string, message string, err error)
}

// Dependencies は Orchestrator が呼び出す外部コンポーネントです。
// Spouse はペルソナモードだけで使う場合 nil でも構いません。
type Dependencies struct {
	Persona  PersonaAnalyzer
	Spouse   SpouseAnalyzer
	Images   ImageGenerator
	Composer PromptComposer
	Sink     EventSink
}

// Result は Result フェーズで表示する生成結果です。
type Result struct {
	SessionID      string
	Mode           domain.Mode
	StyleID        string
	Prompt         string
	Image          *ports.ImageResponse
	Analysis       *domain.AnalysisResult
	SpouseAnalysis *domain.SpouseAnalysisResult
}

// Snapshot は外部に公開するセッションの現在値です。
type Snapshot struct {
	SessionID   string
	Mode        domain.Mode
	Phase       domain.Phase
	HasAudio    bool
	HasAnalysis bool
	Result      *Result
	LastError   string
}

// Orchestrator は1ユーザー・1セッションの生成状態機械を駆動します。
// 状態はミューテックスで保護し、外部呼び出しはロックの外で実行します。
type Orchestrator struct {
	deps Dependencies

	mu        sync.Mutex
	state     State
	sessionID string
	result    *Result
}

// NewOrchestrator は Orchestrator を生成します。
func NewOrchestrator(mode domain.Mode, policy FailurePolicy, deps Dependencies) (*Orchestrator, error) {
	if deps.Images == nil || deps.Composer == nil {
		return nil, fmt.Errorf("画像生成とプロンプト合成の依存関係は必須です")
	}
	if mode == domain.ModeSpouse && deps.Spouse == nil {
		return nil, fmt.Errorf("配偶者モードには SpouseAnalyzer が必要です")
	}
	if mode != domain.ModeSpouse && deps.Persona == nil {
		return nil, fmt.Errorf("ペルソナモードには PersonaAnalyzer が必要です")
	}
	if deps.Sink == nil {
		deps.Sink = nopSink{}
	}
	return &Orchestrator{
		deps:      deps,
		state:     NewState(mode, policy),
		sessionID: uuid.NewString(),
	}, nil
}

// Start は録音を開始します。
func (o *Orchestrator) Start() error {
	_, err := o.apply(EventStart{})
	return err
}

// RecordingComplete は録音を確定します。読み込めない音声は ErrAudioReadFailed になります。
// 配偶者モードではスタイルが固定なので、そのまま生成まで実行します。
func (o *Orchestrator) RecordingComplete(ctx context.Context, clip domain.AudioClip) error {
	ev := EventRecordingComplete{Clip: clip}
	if !clip.Empty() && !strings.HasPrefix(clip.MimeType, "audio/") {
		sniffed, err := asset.SniffAudio(clip.Data)
		if err != nil {
			ev.ReadErr = err
		} else {
			ev.Clip.MimeType = sniffed.MimeType
		}
	}

	effects, err := o.apply(ev)
	if err != nil {
		return err
	}
	if len(effects) == 0 {
		o.mu.Lock()
		lastErr := o.state.LastError
		o.mu.Unlock()
		return lastErr
	}
	_, err = o.run(ctx, effects)
	return err
}

// StyleChosen は選択されたスタイルで生成を実行し、完了まで待ちます。
// 生成中の呼び出しは ErrGenerationInFlight で拒否され、状態は変わりません。
func (o *Orchestrator) StyleChosen(ctx context.Context, sel domain.StyleSelection) (*Result, error) {
	effects, err := o.apply(EventStyleChosen{Selection: sel})
	if err != nil {
		return nil, err
	}
	return o.run(ctx, effects)
}

// StyleImageChosen はアップロードされた画像を参照画像スタイルとして生成を実行します。
// 画像として認識できないデータは ErrInvalidSelection です。
func (o *Orchestrator) StyleImageChosen(ctx context.Context, upload []byte) (*Result, error) {
	ref, err := asset.SniffImage(upload)
	if err != nil {
		return nil, err
	}
	return o.StyleChosen(ctx, domain.UserUploadedStyle{Reference: ref})
}

// Reset はセッションを破棄して Idle に戻します。実行中の生成の完了通知は破棄されます。
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	next, _, _ := Transition(o.state, EventReset{})
	o.state = next
	o.result = nil
	o.sessionID = uuid.NewString()
	id := o.sessionID
	o.mu.Unlock()

	slog.Info("セッションをリセットしました", "session_id", id)
	o.deps.Sink.PhaseChanged(id, domain.PhaseIdle)
}

// Snapshot は現在の状態を返します。
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := Snapshot{
		SessionID:   o.sessionID,
		Mode:        o.state.Mode,
		Phase:       o.state.Phase,
		HasAudio:    o.state.Audio != nil,
		HasAnalysis: o.state.HasAnalysis(),
	}
	if o.state.Phase == domain.PhaseResult {
		snap.Result = o.result
	}
	if o.state.LastError != nil {
		snap.LastError = domain.UserMessage(o.state.LastError)
	}
	return snap
}

// apply はロック内でイベントを適用し、フェーズが変われば通知します。
func (o *Orchestrator) apply(ev Event) ([]Effect, error) {
	o.mu.Lock()
	prev := o.state
	next, effects, err := Transition(prev, ev)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.state = next
	id := o.sessionID
	if next.Phase == domain.PhaseResult && prev.Phase != domain.PhaseResult {
		o.result = o.buildResult(next)
	}
	result := o.result
	o.mu.Unlock()

	if prev.Phase != next.Phase {
		slog.Debug("フェーズが変わりました", "session_id", id, "from", prev.Phase.String(), "to", next.Phase.String())
		o.deps.Sink.PhaseChanged(id, next.Phase)
		switch next.Phase {
		case domain.PhaseResult:
			o.deps.Sink.ResultReady(*result)
		case domain.PhaseError:
			o.deps.Sink.ErrorRaised(id, domain.UserMessage(next.LastError), next.LastError)
		}
	}
	return effects, nil
}

func (o *Orchestrator) buildResult(s State) *Result {
	r := &Result{
		SessionID:      o.sessionID,
		Mode:           s.Mode,
		Prompt:         s.Prompt,
		Image:          s.Image,
		Analysis:       s.Analysis,
		SpouseAnalysis: s.SpouseAnalysis,
	}
	if s.Selection != nil {
		r.StyleID = s.Selection.StyleID()
	} else if s.Mode == domain.ModeSpouse {
		r.StyleID = "spouse_selfie"
	}
	return r
}

// run は効果を順に実行し、完了イベントを状態機械へ戻します。終端に達したら結果を返します。
func (o *Orchestrator) run(ctx context.Context, effects []Effect) (*Result, error) {
	for len(effects) > 0 {
		eff := effects[0]
		ev := o.execute(ctx, eff)

		next, err := o.apply(ev)
		if errors.Is(err, ErrStaleEvent) {
			slog.Warn("リセット後の完了通知を破棄しました", "effect", eff.Kind.String(), "epoch", eff.Epoch)
			return nil, ErrStaleEvent
		}
		if err != nil {
			return nil, err
		}
		effects = append(effects[1:], next...)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state.Phase {
	case domain.PhaseResult:
		return o.result, nil
	case domain.PhaseError:
		return nil, o.state.LastError
	default:
		return nil, nil
	}
}

// job は効果の実行に必要な入力を、ロック内で取り出したものです。
type job struct {
	log            *slog.Logger
	mode           domain.Mode
	audio          domain.AudioClip
	analysis       *domain.AnalysisResult
	spouseAnalysis *domain.SpouseAnalysisResult
	selection      domain.StyleSelection
}

func (o *Orchestrator) snapshotJob() job {
	o.mu.Lock()
	defer o.mu.Unlock()
	j := job{
		log:            slog.With("session_id", o.sessionID, "mode", string(o.state.Mode)),
		mode:           o.state.Mode,
		analysis:       o.state.Analysis,
		spouseAnalysis: o.state.SpouseAnalysis,
		selection:      o.state.Selection,
	}
	if o.state.Audio != nil {
		j.audio = *o.state.Audio
	}
	return j
}

// execute は1つの効果を実行し、その結果をイベントとして返します。
func (o *Orchestrator) execute(ctx context.Context, eff Effect) Event {
	j := o.snapshotJob()

	switch eff.Kind {
	case EffectCallAnalysis:
		j.log.InfoContext(ctx, "音声を解析します")
		if j.mode == domain.ModeSpouse {
			r, err := o.deps.Spouse.AnalyzeSpouse(ctx, j.audio)
			if err != nil {
				return failed(j, eff, StageAnalysis, err)
			}
			return EventAnalysisSucceeded{Epoch: eff.Epoch, Spouse: &r}
		}
		r, err := o.deps.Persona.AnalyzeVoice(ctx, j.audio)
		if err != nil {
			return failed(j, eff, StageAnalysis, err)
		}
		return EventAnalysisSucceeded{Epoch: eff.Epoch, Result: &r}

	case EffectCallImage:
		var (
			prompt string
			refs   []domain.ReferenceImage
		)
		switch {
		case j.mode == domain.ModeSpouse && j.spouseAnalysis != nil:
			prompt = o.deps.Composer.ComposeSpousePrompt(*j.spouseAnalysis)
		case j.analysis != nil:
			prompt = o.deps.Composer.ComposeImagePrompt(*j.analysis, j.selection)
			refs = domain.ReferenceImagesOf(j.selection)
		default:
			return failed(j, eff, StageImage, fmt.Errorf("%w: 解析結果がありません", domain.ErrAnalysisFailed))
		}

		j.log.InfoContext(ctx, "画像を生成します", "references", len(refs))
		j.log.DebugContext(ctx, "生成プロンプト", "prompt", prompt)
		img, err := o.deps.Images.GenerateImage(ctx, prompt, refs)
		if err != nil {
			return failed(j, eff, StageImage, err)
		}
		return EventImageSucceeded{Epoch: eff.Epoch, Image: img, Prompt: prompt}

	default:
		return failed(j, eff, StageImage, fmt.Errorf("不明な効果です: %d", eff.Kind))
	}
}

func failed(j job, eff Effect, stage Stage, err error) Event {
	j.log.Error("生成に失敗しました", "stage", stage.String(), "error", err)
	return EventFailed{Epoch: eff.Epoch, Stage: stage, Err: err}
}

type nopSink struct{}

func (nopSink) PhaseChanged(string, domain.Phase)  {}
func (nopSink) ResultReady(Result)                 {}
func (nopSink) ErrorRaised(string, string, error) {}
