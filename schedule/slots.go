package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// GenerateTimeSlots expands a schedule block into its bookable slot
// labels: HH:MM strings starting at startTime, stepping by duration
// minutes. A slot is emitted while its start is earlier than endTime;
// the boundary check is on slot start, not slot end. Degenerate inputs
// yield an empty result.
func GenerateTimeSlots(startTime, endTime string, duration int) []string {
	startHour, startMin, err1 := parseClock(startTime)
	endHour, endMin, err2 := parseClock(endTime)
	if err1 != nil || err2 != nil || duration <= 0 {
		return nil
	}

	var slots []string
	currentHour, currentMin := startHour, startMin

	for currentHour < endHour || (currentHour == endHour && currentMin < endMin) {
		slots = append(slots, fmt.Sprintf("%02d:%02d", currentHour, currentMin))

		currentMin += duration
		if currentMin >= 60 {
			currentHour += currentMin / 60
			currentMin = currentMin % 60
		}
	}

	return slots
}

func parseClock(t string) (hour, min int, err error) {
	parts := strings.Split(t, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q", t)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return hour, min, nil
}
