package locale

import (
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

const (
	DefaultLang       = "en"
	DefaultLocalePath = "locales/"
)

var bundleInstance *i18n.Bundle

var localeLanguages = make(map[string]string)

// activeLang is used when a caller does not ask for a language
var activeLang = DefaultLang

var fileRe = regexp.MustCompile(`^active\.(?P<lang>.*)\.toml$`)

func InitLang(localePath, defaultLang string) {
	if localePath == "" {
		localePath = DefaultLocalePath
	}
	if defaultLang == "" {
		defaultLang = DefaultLang
	}
	activeLang = defaultLang
	bundleInstance = LoadTranslations(localePath, defaultLang)
}

func GetBundle() *i18n.Bundle {
	if bundleInstance == nil {
		InitLang("", "")
	}
	return bundleInstance
}

func GetLanguages() map[string]string {
	return localeLanguages
}

func LoadTranslations(localePath, defaultLang string) *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	localeLanguages = make(map[string]string)
	localeLanguages[defaultLang] = language.Make(defaultLang).String()

	files, err := os.ReadDir(localePath)
	if err != nil {
		log.Debug().Err(err).Str("path", localePath).Msg("no locale directory, using built-in messages")
		bundleInstance = bundle
		return bundle
	}
	for _, file := range files {
		match := fileRe.FindStringSubmatch(file.Name())
		if match == nil {
			continue
		}
		fileLang := match[fileRe.SubexpIndex("lang")]
		if _, err := bundle.LoadMessageFile(path.Join(localePath, file.Name())); err != nil {
			log.Error().Err(err).Str("file", file.Name()).Msg("failed to load locale file")
			continue
		}
		langName, _ := i18n.NewLocalizer(bundle, fileLang).Localize(&i18n.LocalizeConfig{
			DefaultMessage: &i18n.Message{
				ID:    "locale.language.name",
				Other: "English",
			},
		})
		localeLanguages[fileLang] = langName
		log.Info().Str("lang", fileLang).Str("name", langName).Msg("loaded language")
	}

	bundleInstance = bundle
	return bundle
}

// LocalizeMessage takes the message, then optionally template data, a language and a plural count, in that order.
func LocalizeMessage(args ...interface{}) string {
	if len(args) == 0 {
		return ""
	}
	message, ok := args[0].(*i18n.Message)
	if !ok {
		return ""
	}

	var templateData map[string]interface{}
	lang := activeLang
	var pluralCount interface{}
	for _, arg := range args[1:] {
		switch v := arg.(type) {
		case map[string]interface{}:
			templateData = v
		case string:
			if v != "" {
				lang = v
			}
		case int:
			pluralCount = v
		}
	}

	localizer := i18n.NewLocalizer(GetBundle(), lang)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		DefaultMessage: message,
		TemplateData:   templateData,
		PluralCount:    pluralCount,
	})
	if err != nil {
		log.Warn().Err(err).Str("id", message.ID).Str("lang", lang).Msg("missing translation")
	}

	// fix go-i18n extract
	return strings.ReplaceAll(msg, "\\n", "\n")
}
