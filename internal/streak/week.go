package streak

import "time"

// WeekdayLabels — подписи дней недели для недельной полоски, начиная с понедельника.
var WeekdayLabels = [7]string{"M", "T", "W", "T", "F", "S", "S"}

// Week описывает состояние недельной полоски отметок.
type Week struct {
	Days            [7]string
	CurrentDayIndex int
	ClaimedToday    bool
}

// DeriveWeek строит недельную полоску для даты today.
// Индекс дня отсчитывается от понедельника: Monday=0 ... Sunday=6.
func DeriveWeek(lastClaim *time.Time, today time.Time) Week {
	return Week{
		Days:            WeekdayLabels,
		CurrentDayIndex: (int(today.Weekday()) + 6) % 7,
		ClaimedToday:    Claimed(lastClaim, today),
	}
}
