// Package i18n renders message keys in the user's language. English and
// Korean catalogs are compiled in.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"taskorbit/internal/notice"
)

const (
	LanguageEn = "en"
	LanguageKo = "ko"
)

//go:embed locales/*.toml
var locales embed.FS

type Catalog struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      string
}

// New loads the embedded catalogs and localizes for lang, falling back to
// English for anything lang lacks.
func New(lang string) (*Catalog, error) {
	if _, err := language.Parse(lang); err != nil {
		return nil, fmt.Errorf("language %q: %w", lang, err)
	}
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return &Catalog{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, lang, LanguageEn),
		lang:      lang,
	}, nil
}

func (c *Catalog) Language() string { return c.lang }

// T renders key with data. Unknown keys render as the key itself.
func (c *Catalog) T(key string, data map[string]any) string {
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		zap.L().Debug("missing translation", zap.String("key", key), zap.String("lang", c.lang), zap.Error(err))
		return key
	}
	return msg
}

// Notice renders n. A failure without a service message shows the error.
func (c *Catalog) Notice(n notice.Notice) string {
	data := n.Data
	if n.Key == notice.KeyRequestFailed {
		data = withMessage(data, n.Err)
	}
	return c.T(n.Key, data)
}

func withMessage(data map[string]any, err error) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	if m, _ := out["Message"].(string); m == "" && err != nil {
		out["Message"] = err.Error()
	}
	return out
}
