package schedule

import (
	"reflect"
	"testing"
)

func TestGenerateTimeSlots(t *testing.T) {
	cases := []struct {
		name     string
		start    string
		end      string
		duration int
		want     []string
	}{
		{"half hour slots", "09:00", "10:00", 30, []string{"09:00", "09:30"}},
		{"empty window", "09:00", "09:00", 30, nil},
		{"trailing slot starts before end", "09:50", "10:10", 30, []string{"09:50"}},
		{"minute carry into hour", "09:45", "11:00", 45, []string{"09:45", "10:30"}},
		{"end before start", "10:00", "09:00", 30, nil},
		{"zero duration", "09:00", "10:00", 0, nil},
		{"negative duration", "09:00", "10:00", -15, nil},
		{"garbage input", "nine", "10:00", 30, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateTimeSlots(tc.start, tc.end, tc.duration)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("GenerateTimeSlots(%q, %q, %d) = %v, want %v",
					tc.start, tc.end, tc.duration, got, tc.want)
			}
		})
	}
}

func TestGenerateTimeSlotsSpacing(t *testing.T) {
	slots := GenerateTimeSlots("08:15", "12:00", 20)
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}

	toMinutes := func(s string) int {
		h, m, err := parseClock(s)
		if err != nil {
			t.Fatalf("bad slot label %q", s)
		}
		return h*60 + m
	}

	start := toMinutes("08:15")
	end := toMinutes("12:00")
	for k, slot := range slots {
		got := toMinutes(slot)
		if got != start+k*20 {
			t.Errorf("slot %d = %s, want start + %d*20 minutes", k, slot, k)
		}
		if got >= end {
			t.Errorf("slot %s starts at or after end time", slot)
		}
	}
}
