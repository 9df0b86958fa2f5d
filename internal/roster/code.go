package roster

import (
	"fmt"
	"strings"
)

const yearDigits = 4

// Code is a decoded tournament short code such as "MITA2025".
type Code struct {
	Gender    Gender
	EventCode string
	Year      string
	// Composed is the event code as stored for the event, e.g. "BVB-ITA2025".
	Composed string
}

// ParseCode decodes <gender><event code><year>. The gender letter picks one
// of the event's two tournaments and is not part of the composed code.
func ParseCode(code string, eventCodeLen int, prefix string) (Code, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if want := 1 + eventCodeLen + yearDigits; len(code) != want {
		return Code{}, fmt.Errorf("%w: Invalid tournament code %q, expected %d characters", ErrFormat, code, want)
	}

	var gender Gender
	switch code[0] {
	case 'M':
		gender = Men
	case 'W':
		gender = Women
	default:
		return Code{}, fmt.Errorf("%w: Invalid gender %q in tournament code, expected M or W", ErrFormat, code[:1])
	}

	event := code[1 : 1+eventCodeLen]
	for _, r := range event {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return Code{}, fmt.Errorf("%w: Invalid event code %q in tournament code", ErrFormat, event)
		}
	}

	year := code[1+eventCodeLen:]
	for _, r := range year {
		if r < '0' || r > '9' {
			return Code{}, fmt.Errorf("%w: Invalid year %q in tournament code", ErrFormat, year)
		}
	}

	return Code{
		Gender:    gender,
		EventCode: event,
		Year:      year,
		Composed:  prefix + event + year,
	}, nil
}
