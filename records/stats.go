package records

import (
	"math"

	"carelink/models"
	"carelink/utils"
)

// computeStats summarizes a patient's recent records. Heart rate and
// temperature are optional vitals, so their averages only cover records
// that actually carry them and come back null when none do.
func computeStats(records []models.HealthRecord) utils.M {
	var sysSum, diaSum, sugarSum, weightSum float64
	var hrSum, tempSum float64
	var hrCount, tempCount int

	for _, rec := range records {
		sysSum += float64(rec.BloodPressure.Systolic)
		diaSum += float64(rec.BloodPressure.Diastolic)
		sugarSum += rec.SugarLevel
		weightSum += rec.Weight
		if rec.HeartRate > 0 {
			hrSum += float64(rec.HeartRate)
			hrCount++
		}
		if rec.Temperature > 0 {
			tempSum += rec.Temperature
			tempCount++
		}
	}

	n := float64(len(records))
	averages := utils.M{
		"systolic":   round1(sysSum / n),
		"diastolic":  round1(diaSum / n),
		"sugarLevel": round1(sugarSum / n),
		"weight":     round1(weightSum / n),
	}
	if hrCount > 0 {
		averages["heartRate"] = round1(hrSum / float64(hrCount))
	} else {
		averages["heartRate"] = nil
	}
	if tempCount > 0 {
		averages["temperature"] = round1(tempSum / float64(tempCount))
	} else {
		averages["temperature"] = nil
	}

	return utils.M{
		"totalRecords": len(records),
		"latestRecord": records[0],
		"averages":     averages,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
