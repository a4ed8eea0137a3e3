package schedule

import (
	"context"

	"carelink/db"
	"carelink/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Mongo-backed stores for the availability engine.

type mongoScheduleStore struct{}

func (mongoScheduleStore) ActiveByDay(ctx context.Context, doctorID, dayOfWeek string) ([]models.Schedule, error) {
	cur, err := db.ScheduleCollection.Find(ctx, bson.M{
		"doctorId":  doctorID,
		"dayOfWeek": dayOfWeek,
		"isActive":  true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var blocks []models.Schedule
	if err := cur.All(ctx, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

type mongoLeaveStore struct{}

func (mongoLeaveStore) Covering(ctx context.Context, doctorID, date string) ([]models.Leave, error) {
	// Dates are zero-padded YYYY-MM-DD strings, so lexicographic
	// comparison is a date comparison.
	cur, err := db.LeaveCollection.Find(ctx, bson.M{
		"doctorId":  doctorID,
		"startDate": bson.M{"$lte": date},
		"endDate":   bson.M{"$gte": date},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var leaves []models.Leave
	if err := cur.All(ctx, &leaves); err != nil {
		return nil, err
	}
	return leaves, nil
}

type mongoAppointmentStore struct{}

func (mongoAppointmentStore) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	cur, err := db.AppointmentCollection.Find(ctx, bson.M{
		"doctorId": doctorID,
		"date":     date,
		"status":   bson.M{"$nin": bson.A{"cancelled", "rejected"}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var appointments []models.Appointment
	if err := cur.All(ctx, &appointments); err != nil {
		return nil, err
	}

	times := make([]string, 0, len(appointments))
	for _, apt := range appointments {
		times = append(times, apt.Time)
	}
	return times, nil
}

// NewMongoEngine wires the availability engine to the live collections.
func NewMongoEngine() *Engine {
	return NewEngine(mongoScheduleStore{}, mongoLeaveStore{}, mongoAppointmentStore{})
}
