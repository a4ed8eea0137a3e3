package schedule

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"carelink/db"
	"carelink/models"
	"carelink/rdx"
	"carelink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var validDays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

var validLeaveTypes = map[string]bool{
	"vacation": true, "sick": true, "emergency": true, "conference": true, "other": true,
}

// Availability responses are cached briefly in Redis; the exact key is
// dropped when a booking lands on that doctor/date.
const slotCacheTTL = 30 * time.Second

func slotCacheKey(doctorID, date string) string {
	return "slots:" + doctorID + ":" + date
}

// doctorForUser resolves the doctor profile of the authenticated user.
func doctorForUser(ctx context.Context, userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := db.DoctorCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&doctor)
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

// GET /api/schedule/doctor/:doctorId
func GetDoctorSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dayOfWeek", Value: 1}, {Key: "startTime", Value: 1}})
	cur, err := db.ScheduleCollection.Find(ctx, bson.M{
		"doctorId": ps.ByName("doctorId"),
		"isActive": true,
	}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	schedules := []models.Schedule{}
	if err := cur.All(ctx, &schedules); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, schedules)
}

// POST /api/schedule
func CreateSchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input models.Schedule
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validDays[input.DayOfWeek] || input.StartTime == "" || input.EndTime == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if input.SlotDuration <= 0 {
		input.SlotDuration = 30
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := doctorForUser(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}

	input.ID = utils.GenerateRandomDigitString(16)
	input.DoctorID = doctor.DoctorID
	input.IsActive = true
	input.CreatedAt = time.Now().Unix()

	if _, err := db.ScheduleCollection.InsertOne(ctx, input); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "Schedule already exists for this time slot")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	// A weekly schedule change touches every future occurrence of the
	// day, too many dates to enumerate. Cached slot responses stay stale
	// for at most slotCacheTTL.
	utils.RespondWithJSON(w, http.StatusCreated, input)
}

// PUT /api/schedule/entry/:id
func UpdateSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		StartTime    *string `json:"startTime"`
		EndTime      *string `json:"endTime"`
		SlotDuration *int    `json:"slotDuration"`
		IsActive     *bool   `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := doctorForUser(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}

	set := bson.M{}
	if input.StartTime != nil {
		set["startTime"] = *input.StartTime
	}
	if input.EndTime != nil {
		set["endTime"] = *input.EndTime
	}
	if input.SlotDuration != nil && *input.SlotDuration > 0 {
		set["slotDuration"] = *input.SlotDuration
	}
	if input.IsActive != nil {
		set["isActive"] = *input.IsActive
	}
	if len(set) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	res := db.ScheduleCollection.FindOneAndUpdate(ctx,
		bson.M{"id": ps.ByName("id"), "doctorId": doctor.DoctorID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Schedule
	if err := res.Decode(&updated); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "Schedule already exists for this time slot")
			return
		}
		utils.RespondWithError(w, http.StatusNotFound, "Schedule not found")
		return
	}

	// Recurring-day edits are not enumerable per date; stale cached
	// slots expire within slotCacheTTL.
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DELETE /api/schedule/entry/:id
func DeleteSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := doctorForUser(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}

	res, err := db.ScheduleCollection.DeleteOne(ctx, bson.M{
		"id":       ps.ByName("id"),
		"doctorId": doctor.DoctorID,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Schedule not found")
		return
	}

	// Same staleness window as schedule edits: at most slotCacheTTL.
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Schedule deleted successfully"})
}

// AvailableSlotsHandler serves
// GET /api/schedule/available-slots/:doctorId/:date
// backed by the availability engine plus a short-lived Redis cache.
func AvailableSlotsHandler(engine *Engine) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		doctorID := ps.ByName("doctorId")
		date := ps.ByName("date")

		if _, err := time.Parse("2006-01-02", date); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid date")
			return
		}

		key := slotCacheKey(doctorID, date)
		if cached, err := rdx.RdxGet(key); err == nil && cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(cached))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := engine.AvailableSlots(ctx, doctorID, date)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "could not load availability")
			return
		}

		if data, err := json.Marshal(result); err == nil {
			if err := rdx.SetWithExpiry(key, string(data), slotCacheTTL); err != nil {
				log.Printf("slot cache write: %v", err)
			}
		}
		utils.RespondWithJSON(w, http.StatusOK, result)
	}
}

// InvalidateSlotCache drops the cached availability for one doctor/date.
func InvalidateSlotCache(doctorID, date string) {
	if err := rdx.RdxDel(slotCacheKey(doctorID, date)); err != nil {
		log.Printf("slot cache invalidate: %v", err)
	}
}

// maxInvalidateDays caps range invalidation. A leave longer than this
// keeps its far tail cached for at most slotCacheTTL anyway.
const maxInvalidateDays = 62

// InvalidateSlotCacheRange drops cached availability for every date in
// [startDate, endDate], both YYYY-MM-DD.
func InvalidateSlotCacheRange(doctorID, startDate, endDate string) {
	for _, date := range datesInRange(startDate, endDate, maxInvalidateDays) {
		InvalidateSlotCache(doctorID, date)
	}
}

// datesInRange expands an inclusive date range, at most max entries.
// Unparseable bounds yield nil.
func datesInRange(startDate, endDate string, max int) []string {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil
	}

	var dates []string
	for d := start; !d.After(end) && len(dates) < max; d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates
}

// POST /api/schedule/leave
func ApplyLeave(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input models.Leave
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if input.StartDate == "" || input.EndDate == "" || input.Reason == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if input.EndDate < input.StartDate {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid date range")
		return
	}
	if input.Type == "" {
		input.Type = "other"
	}
	if !validLeaveTypes[input.Type] {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid leave type")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := doctorForUser(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}

	input.ID = utils.GenerateRandomDigitString(16)
	input.DoctorID = doctor.DoctorID
	input.Status = "pending"
	input.ReviewedBy = ""
	input.ReviewedAt = nil
	input.ReviewNotes = ""
	input.CreatedAt = time.Now().Unix()

	if _, err := db.LeaveCollection.InsertOne(ctx, input); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	// Pending leaves already block slots, so the covered dates must be
	// recomputed.
	InvalidateSlotCacheRange(input.DoctorID, input.StartDate, input.EndDate)
	utils.RespondWithJSON(w, http.StatusCreated, input)
}

// GET /api/schedule/leaves
func GetMyLeaves(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := doctorForUser(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}

	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	cur, err := db.LeaveCollection.Find(ctx, bson.M{"doctorId": doctor.DoctorID}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	leaves := []models.Leave{}
	if err := cur.All(ctx, &leaves); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, leaves)
}

// DELETE /api/schedule/leave/:id
func DeleteLeave(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := doctorForUser(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}

	res := db.LeaveCollection.FindOneAndDelete(ctx, bson.M{
		"id":       ps.ByName("id"),
		"doctorId": doctor.DoctorID,
	})
	var deleted models.Leave
	if err := res.Decode(&deleted); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Leave not found")
		return
	}

	// The freed dates become bookable again.
	InvalidateSlotCacheRange(deleted.DoctorID, deleted.StartDate, deleted.EndDate)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Leave deleted successfully"})
}

// GET /api/schedule/leaves/all
func GetAllLeaves(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := db.LeaveCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	leaves := []models.Leave{}
	if err := cur.All(ctx, &leaves); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, leaves)
}

// PUT /api/schedule/leaves/:id/review
// A leave is reviewed exactly once: pending -> approved|rejected.
func ReviewLeave(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Status      string `json:"status"`
		ReviewNotes string `json:"reviewNotes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if input.Status != "approved" && input.Status != "rejected" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now()
	res := db.LeaveCollection.FindOneAndUpdate(ctx,
		bson.M{"id": ps.ByName("id"), "status": "pending"},
		bson.M{"$set": bson.M{
			"status":      input.Status,
			"reviewedBy":  utils.GetUserIDFromRequest(r),
			"reviewedAt":  now,
			"reviewNotes": input.ReviewNotes,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Leave
	if err := res.Decode(&updated); err != nil {
		// Either the leave does not exist or it was reviewed already.
		var existing models.Leave
		if err := db.LeaveCollection.FindOne(ctx, bson.M{"id": ps.ByName("id")}).Decode(&existing); err == nil {
			utils.RespondWithError(w, http.StatusConflict, "Leave request already reviewed")
			return
		}
		utils.RespondWithError(w, http.StatusNotFound, "Leave request not found")
		return
	}

	InvalidateSlotCacheRange(updated.DoctorID, updated.StartDate, updated.EndDate)
	utils.RespondWithJSON(w, http.StatusOK, updated)
}
