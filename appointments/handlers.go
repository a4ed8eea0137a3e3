package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"carelink/db"
	"carelink/models"
	"carelink/mq"
	"carelink/schedule"
	"carelink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var validStatuses = map[string]bool{
	"pending": true, "confirmed": true, "rejected": true,
	"completed": true, "cancelled": true,
}

func findDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := db.DoctorCollection.FindOne(ctx, bson.M{"doctorId": doctorID}).Decode(&doctor)
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func doctorForUser(ctx context.Context, userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := db.DoctorCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&doctor)
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

// POST /api/appointments
func CreateAppointment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input models.Appointment
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if input.DoctorID == "" || input.Date == "" || input.Time == "" || input.Reason == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Please provide all required fields")
		return
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid date")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := findDoctor(ctx, input.DoctorID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor not found")
		return
	}

	input.ID = utils.GenerateRandomDigitString(22)
	input.PatientID = utils.GetUserIDFromRequest(r)
	input.Status = "pending"
	input.Prescription, input.Diagnosis, input.Notes = "", "", ""
	input.CreatedAt = time.Now().Unix()

	// The partial unique index on (doctorId, date, time) resolves the
	// booking race between two patients grabbing the same slot.
	if _, err := db.AppointmentCollection.InsertOne(ctx, input); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "This slot is no longer available")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	schedule.InvalidateSlotCache(input.DoctorID, input.Date)
	mq.Emit(ctx, models.Event{
		Name:          "appointment:update",
		UserID:        doctor.UserID,
		AppointmentID: input.ID,
		Status:        input.Status,
		Message:       "New appointment request for " + input.Date + " " + input.Time,
		Timestamp:     time.Now().Unix(),
	})

	utils.RespondWithJSON(w, http.StatusCreated, input)
}

// GET /api/appointments/my-appointments
func GetMyAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	listAppointments(ctx, w, bson.M{"patientId": utils.GetUserIDFromRequest(r)})
}

// GET /api/appointments/doctor-appointments
func GetDoctorAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := doctorForUser(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}
	listAppointments(ctx, w, bson.M{"doctorId": doctor.DoctorID})
}

// GET /api/appointments/all
func GetAllAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	listAppointments(ctx, w, filter)
}

func listAppointments(ctx context.Context, w http.ResponseWriter, filter bson.M) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}})
	cur, err := db.AppointmentCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	appointments := []models.Appointment{}
	if err := cur.All(ctx, &appointments); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, appointments)
}

// loadAuthorized fetches an appointment and checks the caller may see
// it: the patient, the treating doctor, or an admin.
func loadAuthorized(ctx context.Context, r *http.Request, id string) (*models.Appointment, int, string) {
	var apt models.Appointment
	if err := db.AppointmentCollection.FindOne(ctx, bson.M{"id": id}).Decode(&apt); err != nil {
		return nil, http.StatusNotFound, "Appointment not found"
	}

	userID := utils.GetUserIDFromRequest(r)
	role := utils.GetRoleFromRequest(r)

	switch {
	case role == "admin":
	case apt.PatientID == userID:
	case role == "doctor":
		doctor, err := doctorForUser(ctx, userID)
		if err != nil || doctor.DoctorID != apt.DoctorID {
			return nil, http.StatusForbidden, "Not authorized"
		}
	default:
		return nil, http.StatusForbidden, "Not authorized"
	}
	return &apt, 0, ""
}

// GET /api/appointments/appointment/:id
func GetAppointmentByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	apt, code, msg := loadAuthorized(ctx, r, ps.ByName("id"))
	if apt == nil {
		utils.RespondWithError(w, code, msg)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, apt)
}

// PUT /api/appointments/appointment/:id/status
// Doctors confirm, reject or complete their own appointments; patients
// may only cancel theirs. Terminal states never transition again.
func UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Status          string `json:"status"`
		Diagnosis       string `json:"diagnosis"`
		Prescription    string `json:"prescription"`
		Notes           string `json:"notes"`
		NextVisitDate   string `json:"nextVisitDate"`
		NextVisitReason string `json:"nextVisitReason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validStatuses[input.Status] || input.Status == "pending" {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	apt, code, msg := loadAuthorized(ctx, r, ps.ByName("id"))
	if apt == nil {
		utils.RespondWithError(w, code, msg)
		return
	}

	role := utils.GetRoleFromRequest(r)
	userID := utils.GetUserIDFromRequest(r)
	isPatient := apt.PatientID == userID && role != "doctor" && role != "admin"

	if isPatient && input.Status != "cancelled" {
		utils.RespondWithError(w, http.StatusForbidden, "Patients can only cancel appointments")
		return
	}
	if apt.Status == "completed" || apt.Status == "cancelled" || apt.Status == "rejected" {
		utils.RespondWithError(w, http.StatusConflict, "Appointment already "+apt.Status)
		return
	}

	set := bson.M{"status": input.Status}
	if input.Status == "completed" {
		set["diagnosis"] = input.Diagnosis
		set["prescription"] = input.Prescription
		set["notes"] = input.Notes
		set["nextVisitDate"] = input.NextVisitDate
		set["nextVisitReason"] = input.NextVisitReason
	}

	res := db.AppointmentCollection.FindOneAndUpdate(ctx,
		bson.M{"id": apt.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Appointment
	if err := res.Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	// Cancelled and rejected slots become bookable again.
	schedule.InvalidateSlotCache(updated.DoctorID, updated.Date)
	notifyCounterpart(ctx, &updated, userID)

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// PUT /api/appointments/appointment/:id
// Admin rescheduling or correction. Moving the slot re-runs the
// uniqueness check against the target doctor, date and time.
func UpdateAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Date     *string `json:"date"`
		Time     *string `json:"time"`
		Reason   *string `json:"reason"`
		Symptoms *string `json:"symptoms"`
		Status   *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	set := bson.M{}
	if input.Date != nil {
		if _, err := time.Parse("2006-01-02", *input.Date); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid date")
			return
		}
		set["date"] = *input.Date
	}
	if input.Time != nil {
		set["time"] = *input.Time
	}
	if input.Reason != nil {
		set["reason"] = *input.Reason
	}
	if input.Symptoms != nil {
		set["symptoms"] = *input.Symptoms
	}
	if input.Status != nil {
		if !validStatuses[*input.Status] {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		set["status"] = *input.Status
	}
	if len(set) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var before models.Appointment
	if err := db.AppointmentCollection.FindOne(ctx, bson.M{"id": ps.ByName("id")}).Decode(&before); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	res := db.AppointmentCollection.FindOneAndUpdate(ctx,
		bson.M{"id": before.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Appointment
	if err := res.Decode(&updated); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "This slot is no longer available")
			return
		}
		utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	// Both the vacated and the newly taken slot change availability.
	schedule.InvalidateSlotCache(before.DoctorID, before.Date)
	schedule.InvalidateSlotCache(updated.DoctorID, updated.Date)
	notifyCounterpart(ctx, &updated, utils.GetUserIDFromRequest(r))

	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DELETE /api/appointments/appointment/:id
func DeleteAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res := db.AppointmentCollection.FindOneAndDelete(ctx, bson.M{"id": ps.ByName("id")})
	var deleted models.Appointment
	if err := res.Decode(&deleted); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	schedule.InvalidateSlotCache(deleted.DoctorID, deleted.Date)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Appointment removed"})
}

// notifyCounterpart pushes the status change to whichever party did
// not make it.
func notifyCounterpart(ctx context.Context, apt *models.Appointment, actorUserID string) {
	targets := []string{apt.PatientID}
	if doctor, err := findDoctor(ctx, apt.DoctorID); err == nil {
		targets = append(targets, doctor.UserID)
	}
	for _, target := range targets {
		if target == actorUserID {
			continue
		}
		mq.Emit(ctx, models.Event{
			Name:          "appointment:update",
			UserID:        target,
			AppointmentID: apt.ID,
			Status:        apt.Status,
			Message:       "Appointment on " + apt.Date + " " + apt.Time + " is now " + apt.Status,
			Timestamp:     time.Now().Unix(),
		})
	}
}
