package models

import "strconv"

// FormatPrice renders a zero-decimal FCFA amount with thousands grouping,
// e.g. 12500 -> "12 500 FCFA". Prices never carry fractional units.
func FormatPrice(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, d)
	}
	s := string(out)
	if neg {
		s = "-" + s
	}
	return s + " FCFA"
}
