// Package schedule parses and evaluates weekly protection windows.
//
// A window is written as "<days>;<SH>:<SM>;<EH>:<EM>" where days is either
// "*" or a comma-separated list of day indices (0 Sunday through 6 Saturday),
// for example "*;9:00;22:30" or "1,3,5;18:0;23:59".
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a parsed weekly time window.
type Window struct {
	Days        []int
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// Parse parses the compact window grammar. It returns an error for anything
// that is not three semicolon-separated fields with in-range numbers.
func Parse(raw string) (Window, error) {
	var w Window

	parts := strings.Split(strings.TrimSpace(raw), ";")
	if len(parts) != 3 {
		return w, fmt.Errorf("schedule: %q: want 3 fields separated by ';', got %d", raw, len(parts))
	}

	days, err := parseDays(parts[0])
	if err != nil {
		return w, err
	}
	w.Days = days

	w.StartHour, w.StartMinute, err = parseClock(parts[1])
	if err != nil {
		return w, fmt.Errorf("schedule: start time: %w", err)
	}
	w.EndHour, w.EndMinute, err = parseClock(parts[2])
	if err != nil {
		return w, fmt.Errorf("schedule: end time: %w", err)
	}

	return w, nil
}

func parseDays(field string) ([]int, error) {
	field = strings.TrimSpace(field)
	if field == "*" {
		return []int{0, 1, 2, 3, 4, 5, 6}, nil
	}
	if field == "" {
		return nil, fmt.Errorf("schedule: empty day list")
	}

	var days []int
	for _, part := range strings.Split(field, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("schedule: day %q: %w", part, err)
		}
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("schedule: day %d out of range 0..6", day)
		}
		days = append(days, day)
	}
	return days, nil
}

func parseClock(field string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(field), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q: want HH:MM", field)
	}
	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("hour %q: %w", parts[0], err)
	}
	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("minute %q: %w", parts[1], err)
	}
	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour %d out of range 0..23", hour)
	}
	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute %d out of range 0..59", minute)
	}
	return hour, minute, nil
}

// Active reports whether the window covers the given weekday, hour and
// minute. Boundary minutes are inclusive on both ends: the start minute and
// the whole end minute count as inside. When the day list names the same day
// more than once the last listed occurrence wins.
func (w Window) Active(day time.Weekday, hour, minute int) bool {
	active := false
	for _, d := range w.Days {
		if int(day) != d {
			continue
		}
		if hour >= w.StartHour && hour <= w.EndHour {
			switch {
			case hour == w.StartHour && minute >= w.StartMinute:
				active = true
			case hour == w.EndHour && minute <= w.EndMinute:
				active = true
			case hour > w.StartHour && hour < w.EndHour:
				active = true
			default:
				active = false
			}
		} else {
			active = false
		}
	}
	return active
}

// ActiveAt evaluates the window against a wall-clock instant.
func (w Window) ActiveAt(t time.Time) bool {
	return w.Active(t.Weekday(), t.Hour(), t.Minute())
}
