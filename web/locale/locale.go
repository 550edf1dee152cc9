// Package locale serves the embedded translations. Each request gets its
// own localizer chosen from the lang cookie or the Accept-Language header.
package locale

import (
	"embed"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed translation/*
var translationFS embed.FS

const contextKey = "localizer"

var (
	i18nBundle       *i18n.Bundle
	defaultLocalizer *i18n.Localizer
	initOnce         sync.Once
	initErr          error
)

// InitLocalizer parses the embedded translation files. It is safe to call
// more than once; later calls return the first result.
func InitLocalizer() error {
	initOnce.Do(func() {
		bundle := i18n.NewBundle(language.MustParse("en-US"))
		bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		if err := parseTranslationFiles(translationFS, bundle); err != nil {
			initErr = err
			return
		}
		i18nBundle = bundle
		defaultLocalizer = i18n.NewLocalizer(bundle)
	})
	return initErr
}

// Languages lists the tags that have translations.
func Languages() []string {
	if InitLocalizer() != nil {
		return nil
	}
	tags := i18nBundle.LanguageTags()
	langs := make([]string, 0, len(tags))
	for _, tag := range tags {
		langs = append(langs, tag.String())
	}
	return langs
}

func createTemplateData(params []string, separator ...string) map[string]any {
	sep := "=="
	if len(separator) > 0 {
		sep = separator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

func localizerOf(c *gin.Context) *i18n.Localizer {
	if c != nil {
		if v, ok := c.Get(contextKey); ok {
			if l, ok := v.(*i18n.Localizer); ok {
				return l
			}
		}
	}
	return defaultLocalizer
}

// I18n translates key for the request's language. Params are "name==value"
// pairs used as template data. A missing translation yields the key.
func I18n(c *gin.Context, key string, params ...string) string {
	return localize(localizerOf(c), &i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
}

// Plural translates a message with plural forms selected by count, which
// is also available to the template as {{.Count}}.
func Plural(c *gin.Context, key string, count int) string {
	return localize(localizerOf(c), &i18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

// Elapsed renders the time between t and now as a relative phrase.
func Elapsed(c *gin.Context, now, t time.Time) string {
	unit, count := common.FormatElapsed(now, t)
	if unit == common.ElapsedNow {
		return I18n(c, "elapsed.now")
	}
	return Plural(c, "elapsed."+unit, count)
}

func localize(localizer *i18n.Localizer, lc *i18n.LocalizeConfig) string {
	if localizer == nil {
		return lc.MessageID
	}
	msg, err := localizer.Localize(lc)
	if err != nil {
		logger.Warningf("Failed to localize message %s: %v", lc.MessageID, err)
		return lc.MessageID
	}
	return msg
}

// LocalizerMiddleware stores a request-scoped localizer in the gin context.
func LocalizerMiddleware() gin.HandlerFunc {
	if err := InitLocalizer(); err != nil {
		logger.Warning("i18n init failed:", err)
	}
	return func(c *gin.Context) {
		if i18nBundle == nil {
			c.Next()
			return
		}
		var langs []string
		if cookie, err := c.Request.Cookie("lang"); err == nil && cookie.Value != "" {
			langs = append(langs, cookie.Value)
		}
		langs = append(langs, c.GetHeader("Accept-Language"))

		c.Set(contextKey, i18n.NewLocalizer(i18nBundle, langs...))
		c.Next()
	}
}

func parseTranslationFiles(fsys fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(fsys, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}
