package models

import "time"

type User struct {
	UserID        string    `json:"userid" bson:"userid"`
	Username      string    `json:"username" bson:"username"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Password      string    `json:"password,omitempty" bson:"password"`
	Role          string    `json:"role" bson:"role"` // patient, doctor, admin
	Age           int       `json:"age,omitempty" bson:"age,omitempty"`
	Gender        string    `json:"gender,omitempty" bson:"gender,omitempty"`
	BloodGroup    string    `json:"bloodGroup,omitempty" bson:"bloodGroup,omitempty"`
	RefreshToken  string    `json:"-" bson:"refresh_token,omitempty"`
	RefreshExpiry time.Time `json:"-" bson:"refresh_expiry,omitempty"`
	LastLogin     time.Time `json:"-" bson:"last_login,omitempty"`
	CreatedAt     int64     `json:"createdAt" bson:"createdAt"`
}

type Doctor struct {
	DoctorID       string  `json:"doctorId" bson:"doctorId"`
	UserID         string  `json:"userId" bson:"userId"`
	Name           string  `json:"name" bson:"name"`
	Specialization string  `json:"specialization" bson:"specialization"`
	Qualifications string  `json:"qualifications,omitempty" bson:"qualifications,omitempty"`
	Experience     int     `json:"experience" bson:"experience"`
	Fee            float64 `json:"fee" bson:"fee"`
	Bio            string  `json:"bio,omitempty" bson:"bio,omitempty"`
	AvatarURL      string  `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	CreatedAt      int64   `json:"createdAt" bson:"createdAt"`
}

type Appointment struct {
	ID              string `json:"id" bson:"id"`
	PatientID       string `json:"patientId" bson:"patientId"`
	DoctorID        string `json:"doctorId" bson:"doctorId"`
	Date            string `json:"date" bson:"date"`     // YYYY-MM-DD
	Time            string `json:"time" bson:"time"`     // HH:MM slot label
	Status          string `json:"status" bson:"status"` // pending, confirmed, rejected, completed, cancelled
	Reason          string `json:"reason" bson:"reason"`
	Symptoms        string `json:"symptoms,omitempty" bson:"symptoms,omitempty"`
	Prescription    string `json:"prescription,omitempty" bson:"prescription,omitempty"`
	Diagnosis       string `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Notes           string `json:"notes,omitempty" bson:"notes,omitempty"`
	NextVisitDate   string `json:"nextVisitDate,omitempty" bson:"nextVisitDate,omitempty"`
	NextVisitReason string `json:"nextVisitReason,omitempty" bson:"nextVisitReason,omitempty"`
	CreatedAt       int64  `json:"createdAt" bson:"createdAt"`
}

type BloodPressure struct {
	Systolic  int `json:"systolic" bson:"systolic"`
	Diastolic int `json:"diastolic" bson:"diastolic"`
}

type HealthRecord struct {
	ID            string        `json:"id" bson:"id"`
	UserID        string        `json:"userId" bson:"userId"`
	BloodPressure BloodPressure `json:"bloodPressure" bson:"bloodPressure"`
	SugarLevel    float64       `json:"sugarLevel" bson:"sugarLevel"`
	Weight        float64       `json:"weight" bson:"weight"`
	HeartRate     int           `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	Temperature   float64       `json:"temperature,omitempty" bson:"temperature,omitempty"`
	Note          string        `json:"note,omitempty" bson:"note,omitempty"`
	AiAdvice      string        `json:"aiAdvice,omitempty" bson:"aiAdvice,omitempty"`
	Date          time.Time     `json:"date" bson:"date"`
}

type Schedule struct {
	ID           string `json:"id" bson:"id"`
	DoctorID     string `json:"doctorId" bson:"doctorId"`
	DayOfWeek    string `json:"dayOfWeek" bson:"dayOfWeek"`       // Monday..Sunday
	StartTime    string `json:"startTime" bson:"startTime"`       // HH:MM
	EndTime      string `json:"endTime" bson:"endTime"`           // HH:MM
	SlotDuration int    `json:"slotDuration" bson:"slotDuration"` // minutes
	IsActive     bool   `json:"isActive" bson:"isActive"`
	CreatedAt    int64  `json:"createdAt" bson:"createdAt"`
}

type Leave struct {
	ID          string     `json:"id" bson:"id"`
	DoctorID    string     `json:"doctorId" bson:"doctorId"`
	StartDate   string     `json:"startDate" bson:"startDate"` // YYYY-MM-DD, inclusive
	EndDate     string     `json:"endDate" bson:"endDate"`     // YYYY-MM-DD, inclusive
	Reason      string     `json:"reason" bson:"reason"`
	Type        string     `json:"type" bson:"type"`     // vacation, sick, emergency, conference, other
	Status      string     `json:"status" bson:"status"` // pending, approved, rejected
	ReviewedBy  string     `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	ReviewNotes string     `json:"reviewNotes,omitempty" bson:"reviewNotes,omitempty"`
	CreatedAt   int64      `json:"createdAt" bson:"createdAt"`
}

// Event is a domain notification published over Redis and relayed to
// connected websocket clients.
type Event struct {
	Name          string `json:"name"`
	UserID        string `json:"userId"`
	AppointmentID string `json:"appointmentId,omitempty"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}
