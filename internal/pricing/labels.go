package pricing

import "strings"

var serviceLabels = map[string]string{
	"weekday_ps1":  "PS5 (1 джойстик)",
	"weekday_ps2":  "PS5 (2 джойстика)",
	"weekday_vr1":  "VR очки (1 шт.) | Будни",
	"weekday_vr2":  "VR очки (2 шт.) | Будни",
	"weekday_vr3":  "VR очки (3 шт.) | Будни",
	"weekday_vr4":  "VR очки (4 шт.) | Будни",
	"weekend_vr1":  "VR очки (1 шт.) | Выходные",
	"weekend_vr2":  "VR очки (2 шт.) | Выходные",
	"weekend_vr3":  "VR очки (3 шт.) | Выходные",
	"weekend_vr4":  "VR очки (4 шт.) | Выходные",
	"xbox_kinnect": "X-Box Kinnect (до 8 чел.)",
	"xbox1":        "X-Box (1 джойстик)",
	"xbox2":        "X-Box (2 джойстика)",
	"xbox3":        "X-Box (3 джойстика)",
	"xbox4":        "X-Box (4 джойстика)",
	"karaoke":      "Караоке",
	"board_games":  "Настольные игры",
	"hostess":      "Ведущая",
	"birthday":     "Аренда всего (День Рождения)",
}

// Label returns the display name of a service key, or the key itself.
func Label(key string) string {
	if l, ok := serviceLabels[key]; ok {
		return l
	}
	return key
}

// Labels joins display names of the given keys.
func Labels(keys []string) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = Label(k)
	}
	return strings.Join(names, ", ")
}
