package pipeline

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-persona-kit/pkg/catalog"
	"github.com/shouni/go-persona-kit/pkg/domain"
	"github.com/shouni/go-persona-kit/pkg/prompts"
	"github.com/shouni/go-persona-kit/pkg/session"
)

// consoleSink はセッションのフェーズ変化をターミナルに表示するのだ。
type consoleSink struct {
	out     io.Writer
	catalog *catalog.Catalog
	pick    prompts.RandomSource
}

func newConsoleSink(out io.Writer, cat *catalog.Catalog) *consoleSink {
	return &consoleSink{out: out, catalog: cat, pick: prompts.DefaultRandomSource()}
}

func (s *consoleSink) PhaseChanged(sessionID string, phase domain.Phase) {
	slog.Debug("phase", "session_id", sessionID, "phase", phase.String())
	switch phase {
	case domain.PhaseRecording:
		fmt.Fprintln(s.out, "🎙  Recording...")
	case domain.PhaseStyleSelection:
		fmt.Fprintln(s.out, "🎨 Recording complete. Choosing a style...")
	case domain.PhaseGenerating:
		fmt.Fprintf(s.out, "⏳ %s\n", s.catalog.LoadingMessage(s.pick))
	}
}

func (s *consoleSink) ResultReady(result session.Result) {
	fmt.Fprintf(s.out, "✨ Your character is ready! (style: %s)\n", result.StyleID)
}

func (s *consoleSink) ErrorRaised(sessionID string, message string, err error) {
	slog.Error("生成に失敗したのだ", "session_id", sessionID, "error", err)
	fmt.Fprintf(s.out, "⚠️  %s\n", message)
}
