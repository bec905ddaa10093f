package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/shouni/go-persona-kit/pkg/domain"
)

const (
	// DefaultDuration は録音時間の既定値です。
	DefaultDuration = 20 * time.Second
	// MaxDuration は1回の録音で許可する上限です。
	MaxDuration = 2 * time.Minute

	startupGrace = 250 * time.Millisecond
	stopTimeout  = 1200 * time.Millisecond
)

// RecorderConfig はマイク入力の設定です。
type RecorderConfig struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
	Duration    time.Duration
}

// FFmpegRecorder は ffmpeg でマイクから一定時間録音し、webm/opus のクリップを返します。
type FFmpegRecorder struct {
	cfg RecorderConfig
}

// NewFFmpegRecorder は FFmpegRecorder を生成します。
func NewFFmpegRecorder(cfg RecorderConfig) *FFmpegRecorder {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.Duration > MaxDuration {
		cfg.Duration = MaxDuration
	}
	return &FFmpegRecorder{cfg: cfg}
}

func (r *FFmpegRecorder) args() []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", r.cfg.InputFormat,
		"-i", r.cfg.InputDevice,
		"-t", strconv.FormatFloat(r.cfg.Duration.Seconds(), 'f', 2, 64),
		"-ac", strconv.Itoa(r.cfg.Channels),
		"-ar", strconv.Itoa(r.cfg.SampleRate),
		"-c:a", "libopus",
		"-f", "webm",
		"-",
	}
}

// Capture は録音を開始し、設定時間が過ぎるか ctx が終了した時点で停止します。
// プロセスはどの経路でも必ず停止されます。起動に失敗した場合は ErrMicrophoneAccessDenied です。
func (r *FFmpegRecorder) Capture(ctx context.Context) (domain.AudioClip, error) {
	sess, err := r.start(ctx)
	if err != nil {
		return domain.AudioClip{}, fmt.Errorf("%w: %w", domain.ErrMicrophoneAccessDenied, err)
	}
	defer func() {
		if stopErr := sess.Stop(); stopErr != nil {
			slog.Warn("録音プロセスの停止でエラーが発生しました", "error", stopErr)
		}
	}()

	slog.InfoContext(ctx, "録音を開始しました", "duration", r.cfg.Duration, "device", r.cfg.InputDevice)

	timer := time.NewTimer(r.cfg.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-sess.exited:
	case <-ctx.Done():
	}

	if err := sess.Stop(); err != nil {
		return domain.AudioClip{}, fmt.Errorf("%w: %w", domain.ErrAudioReadFailed, err)
	}
	data := sess.Bytes()
	if len(data) == 0 {
		return domain.AudioClip{}, fmt.Errorf("%w: 録音データがありません", domain.ErrAudioReadFailed)
	}
	slog.InfoContext(ctx, "録音を終了しました", "bytes", len(data))
	return domain.AudioClip{Data: data, MimeType: "audio/webm"}, nil
}

func (r *FFmpegRecorder) start(ctx context.Context) (*ffmpegSession, error) {
	cmd := exec.CommandContext(ctx, r.cfg.Command, r.args()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	s := &ffmpegSession{
		process:  cmd.Process,
		stderr:   &stderr,
		exited:   make(chan struct{}),
		copyDone: make(chan struct{}),
	}
	go func() {
		_, _ = io.Copy(&s.buf, stdout)
		close(s.copyDone)
	}()
	go func() {
		<-s.copyDone
		s.waitErr = cmd.Wait()
		close(s.exited)
	}()

	select {
	case <-s.exited:
		if s.waitErr != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", s.waitErr, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(startupGrace):
	}
	return s, nil
}

type ffmpegSession struct {
	process *os.Process
	stderr  *bytes.Buffer

	buf      bytes.Buffer
	copyDone chan struct{}
	exited   chan struct{}
	waitErr  error

	stopOnce sync.Once
	stopErr  error
}

// Bytes は Stop 後に呼び出します。
func (s *ffmpegSession) Bytes() []byte {
	return s.buf.Bytes()
}

// Stop は ffmpeg に割り込みを送り、終了しなければ強制終了します。
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		select {
		case <-s.exited:
		default:
			_ = s.process.Signal(os.Interrupt)
			select {
			case <-s.exited:
			case <-time.After(stopTimeout):
				_ = s.process.Kill()
				<-s.exited
			}
		}
		s.stopErr = normalizeStopErr(s.waitErr)
		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, bytes.TrimSpace(s.stderr.Bytes()))
		}
	})
	return s.stopErr
}

// normalizeStopErr は割り込みによる非ゼロ終了を正常終了として扱います。
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
