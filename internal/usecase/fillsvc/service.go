package fillsvc

import (
	"log/slog"
	"time"

	"github.com/sir_venger/fillmeter/pkg/calcclient"
)

type (
	// Service выдаёт форму, привязанную к сессии браузера.
	Service interface {
		// Ensure возвращает форму сессии, заводя новую сессию для пустого или неизвестного id.
		Ensure(id string) (string, *Form)
		// Get возвращает форму существующей сессии.
		Get(id string) (*Form, bool)
	}
)

// Limits - ограничения на входные данные формы.
type Limits struct {
	MaxImageBytes int64
}

type Deps struct {
	Calculator calcclient.Calculator
	Limits     Limits
	Logger     *slog.Logger
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
