package masking

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Strategy redacts a stringified value. Strategies are pure and total: any
// input, however malformed, yields a result.
type Strategy func(value string) string

// Strategy names accepted by NamedStrategy and used in metrics labels.
const (
	StrategyEmail      = "email"
	StrategyPhone      = "phone"
	StrategyCreditCard = "credit_card"
	StrategySSN        = "ssn"
	StrategyGeneric    = "generic"
)

const maskRune = '*'

// NamedStrategy resolves a strategy by its configuration name.
func NamedStrategy(name string) (Strategy, bool) {
	switch name {
	case StrategyEmail:
		return MaskEmail, true
	case StrategyPhone:
		return MaskPhone, true
	case StrategyCreditCard:
		return MaskCreditCard, true
	case StrategySSN:
		return MaskSSN, true
	case StrategyGeneric:
		return MaskGeneric, true
	default:
		return nil, false
	}
}

// MaskEmail keeps the edges of the local part and the whole domain:
// zhang@company.com -> z***g@company.com. Local parts of two characters or
// fewer are fully masked. Input without '@' is returned as is.
func MaskEmail(value string) string {
	at := strings.LastIndex(value, "@")
	if at < 0 {
		return value
	}
	local, domain := []rune(value[:at]), value[at+1:]
	var masked string
	if len(local) > 2 {
		masked = string(local[0]) + stars(len(local)-2) + string(local[len(local)-1])
	} else {
		masked = stars(len(local))
	}
	return masked + "@" + domain
}

// MaskPhone strips separators and keeps the first and last two digits.
func MaskPhone(value string) string {
	digits := []rune(stripSeparators(value))
	if len(digits) >= 4 {
		return string(digits[:2]) + stars(len(digits)-4) + string(digits[len(digits)-2:])
	}
	return stars(len(digits))
}

// MaskCreditCard strips separators and keeps only the last four digits.
func MaskCreditCard(value string) string {
	digits := []rune(stripSeparators(value))
	if len(digits) >= 4 {
		return stars(len(digits)-4) + string(digits[len(digits)-4:])
	}
	return stars(len(digits))
}

// MaskSSN always renders ***-**-NNNN with the trailing four characters of
// the separator-stripped input.
func MaskSSN(value string) string {
	digits := []rune(stripSeparators(value))
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "***-**-" + string(digits)
}

// MaskGeneric keeps the first and last character and masks the interior.
// Values of one or two characters are masked entirely.
func MaskGeneric(value string) string {
	r := []rune(value)
	if len(r) <= 2 {
		return stars(len(r))
	}
	return string(r[0]) + stars(len(r)-2) + string(r[len(r)-1])
}

func stars(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(maskRune), n)
}

// stripSeparators removes '-' and whitespace.
func stripSeparators(value string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}

// stringify renders a scalar the way it is fed to the rule table.
func stringify(x any) string {
	switch t := x.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
