package hotel

import "strings"

const cardMask = "****"

// MaskCard keeps only the last four digits of a card number.
func MaskCard(card string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}

		return -1
	}, card)

	if len(digits) < 4 { //nolint:gomnd
		return cardMask
	}

	return cardMask + digits[len(digits)-4:]
}
