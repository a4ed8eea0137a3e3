package doctors

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"carelink/db"
	"carelink/models"
	"carelink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// POST /api/doctors/profile
// Creates or updates the calling doctor's public profile.
func UpsertProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input models.Doctor
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if input.Name == "" || input.Specialization == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name and specialization are required")
		return
	}
	if input.Fee < 0 || input.Experience < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "fee and experience must be non-negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)

	update := bson.M{"$set": bson.M{
		"name":           input.Name,
		"specialization": input.Specialization,
		"qualifications": input.Qualifications,
		"experience":     input.Experience,
		"fee":            input.Fee,
		"bio":            input.Bio,
	}, "$setOnInsert": bson.M{
		"doctorId":  "d" + utils.GenerateRandomDigitString(10),
		"userId":    userID,
		"createdAt": time.Now().Unix(),
	}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doctor models.Doctor
	err := db.DoctorCollection.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&doctor)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, doctor)
}

// GET /api/doctors/doctor/:id
func GetDoctor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var doctor models.Doctor
	err := db.DoctorCollection.FindOne(ctx, bson.M{"doctorId": ps.ByName("id")}).Decode(&doctor)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, doctor)
}

// GET /api/doctors/all?specialization=...&q=...
// Public listing, filterable by specialization and free-text name search.
func ListDoctors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if spec := strings.TrimSpace(r.URL.Query().Get("specialization")); spec != "" {
		filter["specialization"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(spec) + "$", Options: "i"}
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(100)
	cur, err := db.DoctorCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	doctors := []models.Doctor{}
	if err := cur.All(ctx, &doctors); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, doctors)
}
