package dashboard

import (
	"golang.org/x/text/language"

	"github.com/export-dashboard/export-dashboard/internal/exportstats"
)

var supportedLocales = []language.Tag{language.Korean, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

var catalog = map[language.Tag]map[exportstats.Kind]string{
	language.Korean: {
		exportstats.KindUnknown:   "대시보드 데이터를 불러오는데 실패했습니다.",
		exportstats.KindTransport: "서버에 연결할 수 없어 대시보드 데이터를 불러오지 못했습니다.",
		exportstats.KindServer:    "서버 오류로 대시보드 데이터를 불러오지 못했습니다.",
		exportstats.KindDecode:    "대시보드 데이터 형식이 올바르지 않습니다.",
	},
	language.English: {
		exportstats.KindUnknown:   "Failed to load dashboard data.",
		exportstats.KindTransport: "Could not reach the statistics server to load dashboard data.",
		exportstats.KindServer:    "The statistics server failed to return dashboard data.",
		exportstats.KindDecode:    "The dashboard data returned by the server was malformed.",
	},
}

// Messages maps failure kinds to user-facing text for one locale.
type Messages struct {
	tag language.Tag
}

// NewMessages selects the closest supported locale for the given BCP 47 tags,
// defaulting to Korean.
func NewMessages(locales ...string) Messages {
	tags := make([]language.Tag, 0, len(locales))
	for _, locale := range locales {
		if tag, err := language.Parse(locale); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return Messages{tag: language.Korean}
	}
	_, idx, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return Messages{tag: language.Korean}
	}
	return Messages{tag: supportedLocales[idx]}
}

// Locale returns the matched locale.
func (m Messages) Locale() language.Tag {
	if m.tag == language.Und {
		return language.Korean
	}
	return m.tag
}

// For returns the display string for a failure kind.
func (m Messages) For(kind exportstats.Kind) string {
	texts := catalog[m.Locale()]
	if text, ok := texts[kind]; ok {
		return text
	}
	return texts[exportstats.KindUnknown]
}

// ForError classifies err and returns its display string.
func (m Messages) ForError(err error) string {
	return m.For(exportstats.KindOf(err))
}

// MatchLocale picks the supported locale for an Accept-Language header value.
// Unparseable or unmatched headers yield fallback.
func MatchLocale(acceptLanguage string, fallback language.Tag) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return supportedLocales[idx]
}
