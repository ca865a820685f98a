package format

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"lifescientific.com/web/internal/catalog"
)

var shortMonths = map[string][12]string{
	"fr": {"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
}

// FmtDate formats time in a locale-friendly short form.
// Example: FmtDate(t, "fr") => "10 févr. 2025"
func FmtDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	if months, ok := shortMonths[baseLang(lang)]; ok {
		return t.Format("2") + " " + months[t.Month()-1] + " " + t.Format("2006")
	}
	return t.Format("Jan 2, 2006")
}

// FmtAmount formats a quantity with the locale's decimal separator and at most two
// fraction digits. Example: FmtAmount(1.5, "fr") => "1,5"
func FmtAmount(v float64, lang string) string {
	return printer(lang).Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// FmtDosage renders an application rate such as "3 L/ha". Nil yields "".
func FmtDosage(d *catalog.Dosage, lang string) string {
	if d == nil {
		return ""
	}
	return strings.TrimSpace(FmtAmount(d.Amount, lang) + " " + d.Unit)
}

// FmtIngredient renders "Prothioconazole 250 g/L", omitting the amount when unknown.
func FmtIngredient(ai catalog.ActiveIngredient, lang string) string {
	if ai.Amount == 0 {
		return ai.Name
	}
	return strings.TrimSpace(ai.Name + " " + FmtAmount(ai.Amount, lang) + " " + ai.Unit)
}

func printer(lang string) *message.Printer {
	tag, err := language.Parse(baseLang(lang))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

func baseLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
