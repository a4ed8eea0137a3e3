package records

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"carelink/models"
)

const adviceFallback = "Unable to generate AI advice at this time. Please consult with a healthcare professional."

// AdviceClient turns a set of vitals into a short advisory text. The
// generation service is external and opaque; only the returned string
// matters here.
type AdviceClient interface {
	Advice(ctx context.Context, rec models.HealthRecord) (string, error)
}

type httpAdviceClient struct {
	url    string
	client *http.Client
}

func NewHTTPAdviceClient() AdviceClient {
	return &httpAdviceClient{
		url:    os.Getenv("ADVICE_URL"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *httpAdviceClient) Advice(ctx context.Context, rec models.HealthRecord) (string, error) {
	if c.url == "" {
		return adviceFallback, nil
	}

	payload, err := json.Marshal(map[string]any{
		"systolic":    rec.BloodPressure.Systolic,
		"diastolic":   rec.BloodPressure.Diastolic,
		"sugarLevel":  rec.SugarLevel,
		"weight":      rec.Weight,
		"heartRate":   rec.HeartRate,
		"temperature": rec.Temperature,
	})
	if err != nil {
		return adviceFallback, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return adviceFallback, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("advice service: %v", err)
		return adviceFallback, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("advice service status: %d", resp.StatusCode)
		return adviceFallback, nil
	}

	var out struct {
		Advice string `json:"advice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Advice == "" {
		return adviceFallback, nil
	}
	return out.Advice, nil
}
