package core

import (
	"time"

	"golang.org/x/text/language"
)

const defaultDisplayLayout = "1/2/2006"

var (
	displayLocales = []language.Tag{
		language.AmericanEnglish, // fallback, must stay first
		language.BritishEnglish,
		language.German,
		language.Italian,
		language.French,
		language.Spanish,
		language.Portuguese,
		language.Japanese,
		language.Chinese,
	}

	displayLayouts = map[language.Tag]string{
		language.AmericanEnglish: defaultDisplayLayout,
		language.BritishEnglish:  "02/01/2006",
		language.German:          "2.1.2006",
		language.Italian:         "2/1/2006",
		language.French:          "02/01/2006",
		language.Spanish:         "2/1/2006",
		language.Portuguese:      "02/01/2006",
		language.Japanese:        "2006/1/2",
		language.Chinese:         "2006/1/2",
	}

	displayMatcher = language.NewMatcher(displayLocales)
)

// DisplayFormatter renders the short locale date stored as Transaction.DisplayDate.
type DisplayFormatter struct {
	tag    language.Tag
	layout string
}

// NewDisplayFormatter picks the closest supported locale for a BCP 47 tag.
// Unparseable or unsupported tags fall back to American English.
func NewDisplayFormatter(locale string) DisplayFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	_, idx, conf := displayMatcher.Match(tag)
	if conf == language.No {
		idx = 0
	}
	supported := displayLocales[idx]
	return DisplayFormatter{tag: supported, layout: displayLayouts[supported]}
}

func (f DisplayFormatter) Format(t time.Time) string {
	if f.layout == "" {
		return t.Format(defaultDisplayLayout)
	}
	return t.Format(f.layout)
}

// Locale returns the matched locale tag.
func (f DisplayFormatter) Locale() string {
	if f.layout == "" {
		return language.AmericanEnglish.String()
	}
	return f.tag.String()
}
