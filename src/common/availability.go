package common

import (
	"consultly/src/config"
	"consultly/src/db"
	"consultly/src/models"
	"consultly/src/types"
	"fmt"
	"strings"
	"time"
)

// SessionStart resolves a booking's (date, time) pair to the instant the
// session begins. Accepted time formats are 24-hour "HH:MM[:SS]" and the
// display form "H:MM AM - H:MM PM"; for ranges only the start is used.
func SessionStart(date string, timeStr string) (time.Time, error) {
	day, err := time.ParseInLocation(config.DATE_PARSE_FORMAT, strings.TrimSpace(date), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %s", date, err.Error())
	}

	start := strings.TrimSpace(timeStr)
	if i := strings.Index(start, " - "); i >= 0 {
		start = strings.TrimSpace(start[:i])
	}

	var clock time.Time
	parsed := false
	for _, layout := range []string{"15:04:05", "15:04", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, strings.ToUpper(start)); err == nil {
			clock = t
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}, fmt.Errorf("unrecognized time %q", timeStr)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, time.Local), nil
}

// ResolveBusySlots computes which (date, time) pairs block new bookings.
// Pending and confirmed bookings always block. Accepted bookings block until
// their session start has passed. A slot whose time cannot be parsed is kept
// busy rather than risking a double booking.
func ResolveBusySlots(bookings []models.Booking, now time.Time) []types.BusySlot {
	busy := make([]types.BusySlot, 0)
	for _, b := range bookings {
		switch b.Status {
		case types.BOOKING_PENDING, types.BOOKING_CONFIRMED:
			busy = append(busy, types.BusySlot{Date: b.Date, Time: b.Time})
		case types.BOOKING_ACCEPTED:
			start, err := SessionStart(b.Date, b.Time)
			if err != nil {
				busy = append(busy, types.BusySlot{Date: b.Date, Time: b.Time})
				continue
			}
			if start.After(now) {
				busy = append(busy, types.BusySlot{Date: b.Date, Time: b.Time})
			}
		}
	}
	return busy
}

func GetConsultantBusySlots(consultantId uint) ([]types.BusySlot, error) {
	db := db.GetDb()
	var bookings []models.Booking
	err := db.
		Model(&models.Booking{}).
		Select("date", "time", "status").
		Where(&models.Booking{ConsultantID: consultantId}).
		Where("status IN ?", []types.BookingStatus{
			types.BOOKING_PENDING,
			types.BOOKING_CONFIRMED,
			types.BOOKING_ACCEPTED,
		}).
		Find(&bookings).
		Error
	if err != nil {
		return nil, err
	}
	return ResolveBusySlots(bookings, time.Now()), nil
}
