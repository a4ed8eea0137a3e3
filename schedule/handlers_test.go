package schedule

import (
	"reflect"
	"testing"
)

func TestDatesInRange(t *testing.T) {
	got := datesInRange("2026-02-27", "2026-03-02", maxInvalidateDays)
	want := []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("datesInRange = %v, want %v", got, want)
	}
}

func TestDatesInRangeSingleDay(t *testing.T) {
	got := datesInRange("2026-05-10", "2026-05-10", maxInvalidateDays)
	if len(got) != 1 || got[0] != "2026-05-10" {
		t.Errorf("datesInRange = %v, want one entry", got)
	}
}

func TestDatesInRangeCapped(t *testing.T) {
	got := datesInRange("2026-01-01", "2026-12-31", 5)
	if len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestDatesInRangeBadInput(t *testing.T) {
	if got := datesInRange("not-a-date", "2026-01-02", 10); got != nil {
		t.Errorf("datesInRange = %v, want nil", got)
	}
	if got := datesInRange("2026-01-02", "2026-01-01", 10); got != nil {
		t.Errorf("reversed range = %v, want nil", got)
	}
}
