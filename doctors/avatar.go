package doctors

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"carelink/db"
	"carelink/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

var avatarDir = "./static/avatars"

// POST /api/doctors/avatar
// Accepts a multipart "avatar" image, stores the original plus a
// 300px-wide thumbnail, and records the URL on the doctor profile.
func UploadAvatar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	file, handler, err := r.FormFile("avatar")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Avatar file missing")
		return
	}
	defer file.Close()

	ext := filepath.Ext(handler.Filename)
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported file type")
		return
	}

	img, err := imaging.Decode(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unreadable image")
		return
	}

	id := uuid.New().String()
	fileName := id + ".jpg"
	thumbDir := filepath.Join(avatarDir, "thumb")

	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Unable to save file")
		return
	}
	if err := imaging.Save(img, filepath.Join(avatarDir, fileName)); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Unable to save file")
		return
	}
	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, fileName)); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Unable to save thumbnail")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	avatarURL := "/avatars/" + fileName
	res, err := db.DoctorCollection.UpdateOne(ctx,
		bson.M{"userId": utils.GetUserIDFromRequest(r)},
		bson.M{"$set": bson.M{"avatarUrl": avatarURL}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Doctor profile not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"avatarUrl": avatarURL})
}
