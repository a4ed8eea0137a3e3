package records

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"carelink/db"
	"carelink/models"
	"carelink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Advisor generates the advisory text attached to a new record.
// Swappable in tests.
var Advisor = NewHTTPAdviceClient()

// adviceFor asks the advisor and keeps whatever text came back; the
// client returns its fallback string alongside any error, so a failed
// call still yields usable advice.
func adviceFor(ctx context.Context, rec models.HealthRecord) string {
	advice, _ := Advisor.Advice(ctx, rec)
	return advice
}

// POST /api/records
func CreateRecord(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input models.HealthRecord
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if input.BloodPressure.Systolic <= 0 || input.BloodPressure.Diastolic <= 0 ||
		input.SugarLevel <= 0 || input.Weight <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "missing required vitals")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	input.ID = utils.GenerateRandomDigitString(16)
	input.UserID = utils.GetUserIDFromRequest(r)
	input.Date = time.Now()
	input.AiAdvice = adviceFor(ctx, input)

	if _, err := db.RecordCollection.InsertOne(ctx, input); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, input)
}

// GET /api/records/my-records
func GetMyRecords(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := db.RecordCollection.Find(ctx, bson.M{"userId": utils.GetUserIDFromRequest(r)}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	records := []models.HealthRecord{}
	if err := cur.All(ctx, &records); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, records)
}

// GET /api/records/record/:id
func GetRecordByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var rec models.HealthRecord
	err := db.RecordCollection.FindOne(ctx, bson.M{
		"id":     ps.ByName("id"),
		"userId": utils.GetUserIDFromRequest(r),
	}).Decode(&rec)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Record not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rec)
}

// PUT /api/records/record/:id
// Owner-scoped partial update of a record's vitals and note.
func UpdateRecord(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		BloodPressure *models.BloodPressure `json:"bloodPressure"`
		SugarLevel    *float64              `json:"sugarLevel"`
		Weight        *float64              `json:"weight"`
		HeartRate     *int                  `json:"heartRate"`
		Temperature   *float64              `json:"temperature"`
		Note          *string               `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	set := bson.M{}
	if input.BloodPressure != nil {
		if input.BloodPressure.Systolic <= 0 || input.BloodPressure.Diastolic <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid blood pressure")
			return
		}
		set["bloodPressure"] = *input.BloodPressure
	}
	if input.SugarLevel != nil {
		set["sugarLevel"] = *input.SugarLevel
	}
	if input.Weight != nil {
		set["weight"] = *input.Weight
	}
	if input.HeartRate != nil {
		set["heartRate"] = *input.HeartRate
	}
	if input.Temperature != nil {
		set["temperature"] = *input.Temperature
	}
	if input.Note != nil {
		set["note"] = *input.Note
	}
	if len(set) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res := db.RecordCollection.FindOneAndUpdate(ctx,
		bson.M{"id": ps.ByName("id"), "userId": utils.GetUserIDFromRequest(r)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.HealthRecord
	if err := res.Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Record not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// GET /api/records/user/:userId
// Lets a treating doctor or an admin read a patient's records.
func GetRecordsByUserID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := db.RecordCollection.Find(ctx, bson.M{"userId": ps.ByName("userId")}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	records := []models.HealthRecord{}
	if err := cur.All(ctx, &records); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, records)
}

// GET /api/records/stats/summary
// Vitals trend over the caller's 30 most recent records.
func GetHealthStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(30)
	cur, err := db.RecordCollection.Find(ctx, bson.M{"userId": utils.GetUserIDFromRequest(r)}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	records := []models.HealthRecord{}
	if err := cur.All(ctx, &records); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	if len(records) == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"message":  "No records found",
			"averages": nil,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, computeStats(records))
}

// DELETE /api/records/record/:id
func DeleteRecord(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.RecordCollection.DeleteOne(ctx, bson.M{
		"id":     ps.ByName("id"),
		"userId": utils.GetUserIDFromRequest(r),
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Record not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Record deleted successfully"})
}
