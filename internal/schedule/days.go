package schedule

import (
	"unicode"

	"github.com/yigit/horario/internal/app/models"
)

// dayLetters is the six-symbol day alphabet. Tuesday is "A" and Wednesday is
// "M" so neither collides with Monday's "L".
var dayLetters = map[rune]models.Weekday{
	'L': models.Lunes,
	'A': models.Martes,
	'M': models.Miercoles,
	'J': models.Jueves,
	'V': models.Viernes,
	'S': models.Sabado,
}

// ExpandDays maps a day code such as "AJ" onto weekdays in input order.
// Letters outside the alphabet are returned in dropped; whitespace is ignored.
func ExpandDays(code string) (days []models.Weekday, dropped []rune) {
	for _, r := range code {
		if unicode.IsSpace(r) {
			continue
		}
		if d, ok := dayLetters[unicode.ToUpper(r)]; ok {
			days = append(days, d)
			continue
		}
		dropped = append(dropped, r)
	}
	return days, dropped
}
