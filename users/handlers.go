package users

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"carelink/db"
	"carelink/models"
	"carelink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

func validRole(role string) bool {
	return role == "patient" || role == "doctor" || role == "admin"
}

// GET /api/users/profile
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userid": utils.GetUserIDFromRequest(r)}).Decode(&user)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	user.Password = ""
	utils.RespondWithJSON(w, http.StatusOK, user)
}

type profileInput struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Password   *string `json:"password"`
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
	BloodGroup *string `json:"bloodGroup"`
}

func (in *profileInput) set() (bson.M, error) {
	set := bson.M{}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Email != nil {
		set["email"] = *in.Email
	}
	if in.Phone != nil {
		set["phone"] = *in.Phone
	}
	if in.Age != nil {
		set["age"] = *in.Age
	}
	if in.Gender != nil {
		set["gender"] = *in.Gender
	}
	if in.BloodGroup != nil {
		set["bloodGroup"] = *in.BloodGroup
	}
	if in.Password != nil && *in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		set["password"] = string(hashed)
	}
	return set, nil
}

// PUT /api/users/profile
func UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	updateUser(w, r, utils.GetUserIDFromRequest(r), false)
}

// PUT /api/users/user/:id
func UpdateUserByAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updateUser(w, r, ps.ByName("id"), true)
}

// updateUser applies a partial profile update. Only admin callers may
// change a user's role.
func updateUser(w http.ResponseWriter, r *http.Request, userID string, admin bool) {
	var input struct {
		profileInput
		Role *string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	set, err := input.set()
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if admin && input.Role != nil {
		if !validRole(*input.Role) {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid role")
			return
		}
		set["role"] = *input.Role
	}
	if len(set) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res := db.UserCollection.FindOneAndUpdate(ctx,
		bson.M{"userid": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.User
	if err := res.Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	updated.Password = ""
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// GET /api/users/all
func ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(200)
	cur, err := db.UserCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	usersList := []models.User{}
	if err := cur.All(ctx, &usersList); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	for i := range usersList {
		usersList[i].Password = ""
	}
	utils.RespondWithJSON(w, http.StatusOK, usersList)
}

// POST /api/users/create
// Admin provisioning, including the admin role that self-registration
// never grants.
func CreateUserByAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if user.Username == "" || user.Password == "" || user.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !validRole(user.Role) {
		user.Role = "patient"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := db.UserCollection.FindOne(ctx, bson.M{"username": user.Username}).Err()
	if err == nil {
		utils.RespondWithError(w, http.StatusConflict, "User already exists")
		return
	} else if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	user.Password = string(hashed)
	user.UserID = "u" + utils.GenerateRandomDigitString(10)
	user.CreatedAt = time.Now().Unix()

	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	log.Printf("Admin created user %s (%s)", user.UserID, user.Role)
	user.Password = ""
	utils.RespondWithJSON(w, http.StatusCreated, user)
}

// DELETE /api/users/user/:id
func DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.UserCollection.DeleteOne(ctx, bson.M{"userid": ps.ByName("id")})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "User removed"})
}
