package schedule

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"carelink/models"
)

type fakeStores struct {
	schedules []models.Schedule
	leaves    []models.Leave
	booked    []string
	err       error
}

func (f *fakeStores) ActiveByDay(_ context.Context, doctorID, dayOfWeek string) ([]models.Schedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Schedule
	for _, s := range f.schedules {
		if s.DoctorID == doctorID && s.DayOfWeek == dayOfWeek && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStores) Covering(_ context.Context, doctorID, date string) ([]models.Leave, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Leave
	for _, l := range f.leaves {
		if l.DoctorID == doctorID && l.StartDate <= date && date <= l.EndDate {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStores) BookedTimes(_ context.Context, doctorID, date string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.booked, nil
}

func newTestEngine(f *fakeStores) *Engine {
	return NewEngine(f, f, f)
}

// 2025-06-02 is a Monday.
const monday = "2025-06-02"

func TestAvailableSlotsBlocking(t *testing.T) {
	f := &fakeStores{
		schedules: []models.Schedule{
			{DoctorID: "d1", DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:30", SlotDuration: 30, IsActive: true},
		},
		booked: []string{"09:30"},
	}

	got, err := newTestEngine(f).AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"09:00", "10:00"}
	if !reflect.DeepEqual(got.Slots, want) {
		t.Fatalf("slots = %v, want %v", got.Slots, want)
	}
	if !got.Available {
		t.Error("expected available")
	}
	if got.DayOfWeek != "Monday" {
		t.Errorf("dayOfWeek = %q", got.DayOfWeek)
	}
}

func TestAvailableSlotsLeaveShortCircuit(t *testing.T) {
	f := &fakeStores{
		schedules: []models.Schedule{
			{DoctorID: "d1", DayOfWeek: "Monday", StartTime: "09:00", EndTime: "17:00", SlotDuration: 30, IsActive: true},
		},
		leaves: []models.Leave{
			{DoctorID: "d1", StartDate: "2025-06-01", EndDate: "2025-06-03", Type: "sick", Status: "pending"},
		},
	}

	got, err := newTestEngine(f).AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available {
		t.Error("expected unavailable during leave")
	}
	if len(got.Slots) != 0 {
		t.Errorf("slots = %v, want empty", got.Slots)
	}
	if got.Reason != "Doctor is on sick leave" {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestAvailableSlotsApprovedOnlyFilter(t *testing.T) {
	f := &fakeStores{
		schedules: []models.Schedule{
			{DoctorID: "d1", DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00", SlotDuration: 30, IsActive: true},
		},
		leaves: []models.Leave{
			{DoctorID: "d1", StartDate: monday, EndDate: monday, Type: "vacation", Status: "pending"},
		},
	}

	engine := newTestEngine(f)
	engine.ApprovedOnly = true

	got, err := engine.AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Available {
		t.Error("pending leave should not block when only approved leaves count")
	}

	f.leaves[0].Status = "approved"
	got, err = engine.AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available {
		t.Error("approved leave must block")
	}
}

func TestAvailableSlotsNoSchedule(t *testing.T) {
	got, err := newTestEngine(&fakeStores{}).AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available {
		t.Error("expected unavailable with no schedule")
	}
	if got.Reason != "Doctor is not available on this day" {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestAvailableSlotsOverlappingBlocksDedupe(t *testing.T) {
	f := &fakeStores{
		schedules: []models.Schedule{
			{DoctorID: "d1", DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00", SlotDuration: 30, IsActive: true},
			{DoctorID: "d1", DayOfWeek: "Monday", StartTime: "09:30", EndTime: "11:00", SlotDuration: 30, IsActive: true},
		},
	}

	got, err := newTestEngine(f).AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"09:00", "09:30", "10:00", "10:30"}
	if !reflect.DeepEqual(got.Slots, want) {
		t.Fatalf("slots = %v, want %v", got.Slots, want)
	}
}

func TestAvailableSlotsIdempotent(t *testing.T) {
	f := &fakeStores{
		schedules: []models.Schedule{
			{DoctorID: "d1", DayOfWeek: "Monday", StartTime: "14:00", EndTime: "16:00", SlotDuration: 20, IsActive: true},
		},
		booked: []string{"14:40"},
	}
	engine := newTestEngine(f)

	first, err := engine.AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.AvailableSlots(context.Background(), "d1", monday)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
}

func TestAvailableSlotsStoreFailure(t *testing.T) {
	f := &fakeStores{err: errors.New("boom")}
	if _, err := newTestEngine(f).AvailableSlots(context.Background(), "d1", monday); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestAvailableSlotsBadDate(t *testing.T) {
	if _, err := newTestEngine(&fakeStores{}).AvailableSlots(context.Background(), "d1", "06/02/2025"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
