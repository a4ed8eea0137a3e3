package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"carelink/models"
)

// Stores consumed by the availability engine. Mongo-backed in
// production, in-memory fakes in tests.
type ScheduleStore interface {
	ActiveByDay(ctx context.Context, doctorID, dayOfWeek string) ([]models.Schedule, error)
}

type LeaveStore interface {
	// Covering returns every leave whose inclusive date range contains
	// the given date, regardless of review status.
	Covering(ctx context.Context, doctorID, date string) ([]models.Leave, error)
}

type AppointmentStore interface {
	// BookedTimes returns the slot labels of non-terminal appointments
	// (status not cancelled or rejected) for the doctor on the date.
	BookedTimes(ctx context.Context, doctorID, date string) ([]string, error)
}

type Engine struct {
	schedules    ScheduleStore
	leaves       LeaveStore
	appointments AppointmentStore

	// ApprovedOnly restricts the leave short-circuit to approved
	// leaves. Off by default: tentative (pending) leave blocks booking
	// too, matching the observed production behavior.
	ApprovedOnly bool
}

func NewEngine(s ScheduleStore, l LeaveStore, a AppointmentStore) *Engine {
	return &Engine{schedules: s, leaves: l, appointments: a}
}

type Availability struct {
	Available bool     `json:"available"`
	Date      string   `json:"date,omitempty"`
	DayOfWeek string   `json:"dayOfWeek,omitempty"`
	Slots     []string `json:"slots"`
	Reason    string   `json:"reason,omitempty"`
}

// AvailableSlots computes the bookable slot list for a doctor on a
// date: schedule blocks for that weekday, minus booked slots, unless a
// leave covers the date. The three store reads are independent and run
// concurrently; any failure fails the whole request.
func (e *Engine) AvailableSlots(ctx context.Context, doctorID, date string) (Availability, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Availability{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	dayOfWeek := day.Weekday().String()

	var (
		wg        sync.WaitGroup
		leaves    []models.Leave
		blocks    []models.Schedule
		booked    []string
		leaveErr  error
		schedErr  error
		bookedErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		leaves, leaveErr = e.leaves.Covering(ctx, doctorID, date)
	}()
	go func() {
		defer wg.Done()
		blocks, schedErr = e.schedules.ActiveByDay(ctx, doctorID, dayOfWeek)
	}()
	go func() {
		defer wg.Done()
		booked, bookedErr = e.appointments.BookedTimes(ctx, doctorID, date)
	}()
	wg.Wait()

	for _, err := range []error{leaveErr, schedErr, bookedErr} {
		if err != nil {
			return Availability{}, err
		}
	}

	if leave := e.blockingLeave(leaves); leave != nil {
		return Availability{
			Available: false,
			Reason:    fmt.Sprintf("Doctor is on %s leave", leave.Type),
			Slots:     []string{},
		}, nil
	}

	if len(blocks) == 0 {
		return Availability{
			Available: false,
			Reason:    "Doctor is not available on this day",
			Slots:     []string{},
		}, nil
	}

	blockedSet := make(map[string]bool, len(booked))
	for _, t := range booked {
		blockedSet[t] = true
	}

	// Union across schedule blocks, deduped; booking the same label
	// twice is meaningless even when blocks overlap.
	seen := make(map[string]bool)
	slots := []string{}
	for _, block := range blocks {
		for _, slot := range GenerateTimeSlots(block.StartTime, block.EndTime, block.SlotDuration) {
			if !blockedSet[slot] && !seen[slot] {
				seen[slot] = true
				slots = append(slots, slot)
			}
		}
	}

	// Zero-padded HH:MM sorts chronologically.
	sort.Strings(slots)

	return Availability{
		Available: len(slots) > 0,
		Date:      date,
		DayOfWeek: dayOfWeek,
		Slots:     slots,
	}, nil
}

func (e *Engine) blockingLeave(leaves []models.Leave) *models.Leave {
	for i := range leaves {
		if e.ApprovedOnly && leaves[i].Status != "approved" {
			continue
		}
		return &leaves[i]
	}
	return nil
}
