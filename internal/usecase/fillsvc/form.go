package fillsvc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/models"
)

// Form хранит состояние формы одной сессии и управляет отправками.
// В полёте находится не более одной отправки: новая отменяет предыдущую,
// а опоздавший результат отменённой отбрасывается по номеру поколения.
type Form struct {
	deps Deps

	mu       sync.Mutex
	state    models.UiState
	gen      uint64
	cancel   context.CancelFunc
	lastSeen time.Time
}

// NewForm создаёт форму в состоянии Idle.
func NewForm(deps Deps) *Form {
	deps = deps.withDefaults()
	return &Form{
		deps:     deps,
		state:    models.Idle(),
		lastSeen: deps.Now(),
	}
}

// Submit проверяет ввод и запускает асинхронный расчёт.
// При ошибке валидации форма переходит в Failure, запрос не отправляется.
// ctx передаёт значения запроса (логгер), но его отмена не прерывает расчёт.
// Возвращённый канал закрывается, когда расчёт завершён и состояние обновлено.
func (f *Form) Submit(ctx context.Context, raw RawInput) (<-chan struct{}, error) {
	input, err := Validate(raw, f.deps.Limits)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastSeen = f.deps.Now()
	f.cancelLocked()
	f.gen++

	if err != nil {
		f.state = models.Failed(nil, err)
		return nil, err
	}

	sub := models.Submission{
		ID:         uuid.NewString(),
		VolumeText: input.VolumeText,
		ImageName:  input.ImageName,
		ImageSize:  int64(len(input.Image)),
		StartedAt:  f.deps.Now(),
		Preview:    previewURL(input),
	}
	f.state = models.Submitting(sub)

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.cancel = cancel
	done := make(chan struct{})

	go func(gen uint64) {
		defer close(done)
		defer cancel()

		res, err := f.deps.Calculator.Calculate(taskCtx, input)
		f.apply(gen, sub, res, err)
	}(f.gen)

	return done, nil
}

// apply переводит форму в Success или Failure, если отправка всё ещё последняя.
func (f *Form) apply(gen uint64, sub models.Submission, res models.CalculationResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	logger := f.deps.Logger.With(slog.String("submission_id", sub.ID))
	if gen != f.gen {
		logger.Debug("stale submission discarded")
		return
	}
	f.cancel = nil

	if err != nil {
		logging.LogError(logger, "submission failed", err, slog.String("kind", string(models.KindOf(err))))
		f.state = models.Failed(&sub, err)
		return
	}

	logging.LogOperation(logger, "submission completed",
		slog.Float64("fill_percentage", res.FillPercentage),
		slog.Duration("duration", f.deps.Now().Sub(sub.StartedAt)))
	f.state = models.Succeeded(&sub, res)
}

// State возвращает копию текущего состояния.
func (f *Form) State() models.UiState {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastSeen = f.deps.Now()
	return f.state.Clone()
}

// Reset отменяет отправку в полёте и возвращает форму в Idle.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastSeen = f.deps.Now()
	f.cancelLocked()
	f.gen++
	f.state = models.Idle()
}

// Fail фиксирует ошибку, обнаруженную ещё до разбора формы (например, тело запроса больше лимита).
func (f *Form) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastSeen = f.deps.Now()
	f.cancelLocked()
	f.gen++
	f.state = models.Failed(nil, err)
}

// Close отменяет отправку в полёте, не меняя состояние.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelLocked()
	f.gen++
}

// LastSeen - время последнего обращения к форме.
func (f *Form) LastSeen() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSeen
}

func (f *Form) cancelLocked() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
