package appointments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"carelink/db"
	"carelink/models"
	"carelink/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

func summarySecret() []byte {
	if s := os.Getenv("SUMMARY_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("your-very-secret-key")
}

// summaryPayload returns a signed verification string embedded in the
// QR code: appointmentID|patientID|timestamp|signature.
func summaryPayload(apt *models.Appointment) string {
	data := fmt.Sprintf("%s|%s|%d", apt.ID, apt.PatientID, time.Now().Unix())
	h := hmac.New(sha256.New, summarySecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// GET /api/appointments/appointment/:id/summary
// Renders a visit summary PDF for a completed appointment.
func AppointmentSummary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	apt, code, msg := loadAuthorized(ctx, r, ps.ByName("id"))
	if apt == nil {
		utils.RespondWithError(w, code, msg)
		return
	}
	if apt.Status != "completed" {
		utils.RespondWithError(w, http.StatusBadRequest, "Summary available only for completed appointments")
		return
	}

	var doctor models.Doctor
	_ = db.DoctorCollection.FindOne(ctx, bson.M{"doctorId": apt.DoctorID}).Decode(&doctor)
	var patient models.User
	_ = db.UserCollection.FindOne(ctx, bson.M{"userid": apt.PatientID}).Decode(&patient)

	qrPNG, err := qrcode.Encode(summaryPayload(apt), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Visit Summary")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Patient: %s", patient.Name))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Doctor: %s (%s)", doctor.Name, doctor.Specialization))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s  Time: %s", apt.Date, apt.Time))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, "Diagnosis")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, apt.Diagnosis, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, "Prescription")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, apt.Prescription, "", "L", false)
	pdf.Ln(4)

	if apt.Notes != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 10, "Notes")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 6, apt.Notes, "", "L", false)
		pdf.Ln(4)
	}

	if apt.NextVisitDate != "" {
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 10, fmt.Sprintf("Next visit: %s (%s)", apt.NextVisitDate, apt.NextVisitReason))
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 30, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=visit-"+apt.ID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
