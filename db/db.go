package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection        *mongo.Collection
	DoctorCollection      *mongo.Collection
	AppointmentCollection *mongo.Collection
	RecordCollection      *mongo.Collection
	ScheduleCollection    *mongo.Collection
	LeaveCollection       *mongo.Collection
	Client                *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("carelink")
	UserCollection = database.Collection("users")
	DoctorCollection = database.Collection("doctors")
	AppointmentCollection = database.Collection("appointments")
	RecordCollection = database.Collection("records")
	ScheduleCollection = database.Collection("schedules")
	LeaveCollection = database.Collection("leaves")

	createIndexes()
}

// A doctor cannot declare two schedule blocks starting at the same
// clock time on the same weekday; slot double-booking is rejected at
// write time by the appointment index.
func createIndexes() {
	_, err := ScheduleCollection.Indexes().CreateOne(context.TODO(), mongo.IndexModel{
		Keys: bson.D{
			{Key: "doctorId", Value: 1},
			{Key: "dayOfWeek", Value: 1},
			{Key: "startTime", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("schedule index: %v", err)
	}

	_, err = AppointmentCollection.Indexes().CreateOne(context.TODO(), mongo.IndexModel{
		Keys: bson.D{
			{Key: "doctorId", Value: 1},
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": bson.A{"pending", "confirmed", "completed"}},
			}),
	})
	if err != nil {
		log.Printf("appointment index: %v", err)
	}
}
