package records

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carelink/models"
)

func sampleRecord() models.HealthRecord {
	return models.HealthRecord{
		BloodPressure: models.BloodPressure{Systolic: 120, Diastolic: 80},
		SugarLevel:    95,
		Weight:        70,
	}
}

func TestAdviceFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{"advice":"Stay hydrated."}`))
	}))
	defer srv.Close()

	c := &httpAdviceClient{url: srv.URL, client: srv.Client()}
	got, err := c.Advice(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Advice: %v", err)
	}
	if got != "Stay hydrated." {
		t.Errorf("advice = %q", got)
	}
}

func TestAdviceFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &httpAdviceClient{url: srv.URL, client: srv.Client()}
	got, err := c.Advice(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Advice: %v", err)
	}
	if got != adviceFallback {
		t.Errorf("advice = %q, want fallback", got)
	}
}

type failingAdvisor struct{}

func (failingAdvisor) Advice(context.Context, models.HealthRecord) (string, error) {
	return adviceFallback, errors.New("request build failed")
}

func TestAdviceForKeepsFallbackOnError(t *testing.T) {
	prev := Advisor
	Advisor = failingAdvisor{}
	defer func() { Advisor = prev }()

	got := adviceFor(context.Background(), sampleRecord())
	if got != adviceFallback {
		t.Errorf("advice = %q, want fallback", got)
	}
}

func TestAdviceFallbackWhenUnconfigured(t *testing.T) {
	c := &httpAdviceClient{url: "", client: &http.Client{Timeout: time.Second}}
	got, err := c.Advice(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Advice: %v", err)
	}
	if got != adviceFallback {
		t.Errorf("advice = %q, want fallback", got)
	}
}
