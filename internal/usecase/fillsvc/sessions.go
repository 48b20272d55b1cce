package fillsvc

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions хранит формы по идентификатору сессии браузера.
type Sessions struct {
	deps Deps

	mu    sync.Mutex
	forms map[string]*Form
}

// NewSessions создаёт пустое хранилище сессий.
func NewSessions(deps Deps) *Sessions {
	return &Sessions{
		deps:  deps.withDefaults(),
		forms: map[string]*Form{},
	}
}

var _ Service = (*Sessions)(nil)

// Get возвращает форму существующей сессии.
func (s *Sessions) Get(id string) (*Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	return f, ok
}

// Ensure возвращает форму сессии; для пустого или неизвестного id заводит новую
// сессию со свежим UUID, чужие идентификаторы не принимаются.
func (s *Sessions) Ensure(id string) (string, *Form) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.forms[id]; ok {
		return id, f
	}

	id = uuid.NewString()
	f := NewForm(s.deps)
	s.forms[id] = f
	return id, f
}

// Len возвращает число живых сессий.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}

// Sweep удаляет сессии, к которым не обращались дольше ttl, и отменяет их отправки.
func (s *Sessions) Sweep(ttl time.Duration) int {
	now := s.deps.Now()

	s.mu.Lock()
	var stale []*Form
	for id, f := range s.forms {
		if now.Sub(f.LastSeen()) < ttl {
			continue
		}
		stale = append(stale, f)
		delete(s.forms, id)
	}
	s.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}

// Close отменяет все отправки в полёте; вызывается при остановке сервиса.
func (s *Sessions) Close() {
	s.mu.Lock()
	forms := make([]*Form, 0, len(s.forms))
	for _, f := range s.forms {
		forms = append(forms, f)
	}
	s.mu.Unlock()

	for _, f := range forms {
		f.Close()
	}
}

// StartSweeper стартует периодическую очистку простаивающих сессий.
func StartSweeper(s *Sessions, ttl, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(ttl); n > 0 {
					s.deps.Logger.Info("idle sessions swept", "count", n, "remaining", s.Len())
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}
