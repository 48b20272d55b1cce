package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle - загруженные каталоги сообщений и список поддерживаемых языков.
type Bundle struct {
	builder  *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// LoadEmbedded загружает каталоги, встроенные в бинарник.
func LoadEmbedded(fallback language.Tag) (*Bundle, error) {
	return LoadFromFS(embeddedLocales, fallback)
}

// LoadFromFS читает все locales/*.yaml и регистрирует сообщения в catalog.Builder.
// Язык fallback обязан присутствовать; он же идёт первым в списке для matcher.
func LoadFromFS(fsys fs.FS, fallback language.Tag) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}
	sort.Strings(paths)

	b := &Bundle{
		builder:  catalog.NewBuilder(catalog.Fallback(fallback)),
		messages: map[language.Tag]map[string]string{},
	}

	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		var file localeFile
		if err = yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}

		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if strings.TrimSpace(file.Locale) != name {
			return nil, fmt.Errorf("%s: locale %q must match file name", p, file.Locale)
		}
		tag, err := language.Parse(file.Locale)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if len(file.Messages) == 0 {
			return nil, fmt.Errorf("%s: messages are required", p)
		}

		for key, msg := range file.Messages {
			if err = b.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("%s: key %q: %w", p, key, err)
			}
		}
		b.messages[tag] = file.Messages
		b.tags = append(b.tags, tag)
	}

	idx := -1
	for i, t := range b.tags {
		if t == fallback {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("fallback locale %s is not defined", fallback)
	}
	b.tags[0], b.tags[idx] = b.tags[idx], b.tags[0]
	b.matcher = language.NewMatcher(b.tags)

	return b, nil
}

// Tags возвращает поддерживаемые языки; первым идёт язык по умолчанию.
func (b *Bundle) Tags() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Default возвращает язык по умолчанию.
func (b *Bundle) Default() language.Tag {
	return b.tags[0]
}

// Match сводит произвольные теги к одному из поддерживаемых.
func (b *Bundle) Match(tags ...language.Tag) language.Tag {
	if len(tags) == 0 {
		return b.Default()
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.Default()
	}
	return b.tags[idx]
}

// Parse разбирает строку языка и сводит её к поддерживаемому тегу.
func (b *Bundle) Parse(s string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return b.Default(), false
	}
	_, idx, conf := b.matcher.Match(tag)
	if conf == language.No {
		return b.Default(), false
	}
	return b.tags[idx], true
}

// Keys возвращает ключи сообщений языка в отсортированном виде.
func (b *Bundle) Keys(tag language.Tag) []string {
	msgs := b.messages[tag]
	keys := make([]string, 0, len(msgs))
	for k := range msgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
