// Package i18n локализует строки интерфейса и форматирует числа по правилам языка.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// LangParam - query-параметр выбора языка.
	LangParam = "lang"
	// LangCookieName хранит выбранный пользователем язык.
	LangCookieName = "fm_lang"
)

// Localizer переводит сообщения и форматирует величины для одного языка.
type Localizer struct {
	Tag     language.Tag
	printer *message.Printer
}

// Localizer создаёт локализатор для языка.
func (b *Bundle) Localizer(tag language.Tag) Localizer {
	return Localizer{
		Tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b.builder)),
	}
}

// T возвращает перевод ключа с подставленными аргументами.
func (l Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Percent форматирует процент заполнения: 75% в английском, %75 в турецком.
func (l Localizer) Percent(v float64) string {
	return l.T("result.percent", decimal(v))
}

// Volume форматирует объём с единицей измерения.
func (l Localizer) Volume(v float64, unit string) string {
	return l.T("result.volume", decimal(v), unit)
}

// decimal оставляет не более двух знаков после запятой.
func decimal(v float64) number.Formatter {
	return number.Decimal(v, number.MaxFractionDigits(2))
}

// Resolve определяет язык запроса: ?lang, затем cookie, затем Accept-Language.
// Флаг сообщает, что язык пришёл из query-параметра и его стоит запомнить в cookie.
func (b *Bundle) Resolve(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return b.Default(), false
	}

	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, ok := b.Parse(v); ok {
			return tag, true
		}
	}

	if c, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := b.Parse(c.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return b.Match(tags...), false
		}
	}

	return b.Default(), false
}

// SetLanguageCookie запоминает выбранный язык на год.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
