package calculator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/deppfellow/calculator-api/internal/errs"
)

// Locale selects the language of failure messages.
type Locale string

const (
	English Locale = "en"
	Hebrew  Locale = "he"
)

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English, // first entry is the fallback
	language.Hebrew,
})

// MatchLocale picks the best supported locale for an Accept-Language header.
// Empty or unparseable headers fall back to English.
func MatchLocale(acceptLanguage string) Locale {
	if strings.TrimSpace(acceptLanguage) == "" {
		return English
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}

	_, idx, _ := localeMatcher.Match(tags...)
	if idx == 1 {
		return Hebrew
	}
	return English
}

type catalog struct {
	missingField     string // %s: field name
	invalidNumber    string // %s: field name
	unknownOperation string // %s: allowed operations
	divideByZero     string
	moduloByZero     string
	nonFiniteResult  string
}

var catalogs = map[Locale]catalog{
	English: {
		missingField:     `"%s" is required`,
		invalidNumber:    `"%s" must be a finite number`,
		unknownOperation: `"operation" must be one of [%s]`,
		divideByZero:     "Cannot divide by zero: division by zero is undefined",
		moduloByZero:     "Cannot calculate modulo with zero: division by zero is undefined",
		nonFiniteResult:  "Result is not a finite number",
	},
	Hebrew: {
		missingField:     `השדה "%s" הוא שדה חובה`,
		invalidNumber:    `השדה "%s" חייב להיות מספר סופי`,
		unknownOperation: `פעולה לא חוקית, יש לבחור אחת מ-[%s]`,
		divideByZero:     "לא ניתן לחלק באפס",
		moduloByZero:     "לא ניתן לחשב שארית עם אפס",
		nonFiniteResult:  "התוצאה אינה מספר סופי",
	},
}

func catalogFor(loc Locale) catalog {
	if c, ok := catalogs[loc]; ok {
		return c
	}
	return catalogs[English]
}

func allowedOperations() string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// message renders the failure text for kind. field names the offending
// request field and op the operation involved, when relevant.
func message(loc Locale, kind errs.Kind, field string, op OperationKind) string {
	c := catalogFor(loc)

	switch kind {
	case errs.KindMissingField:
		return fmt.Sprintf(c.missingField, field)
	case errs.KindInvalidNumber:
		return fmt.Sprintf(c.invalidNumber, field)
	case errs.KindUnknownOperation:
		return fmt.Sprintf(c.unknownOperation, allowedOperations())
	case errs.KindDivisionByZero:
		if op == Modulo {
			return c.moduloByZero
		}
		return c.divideByZero
	case errs.KindNonFiniteResult:
		return c.nonFiniteResult
	default:
		return "Internal server error"
	}
}
