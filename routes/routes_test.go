package routes

import (
	"testing"

	"carelink/ratelim"
	"carelink/schedule"
	"carelink/video"

	"github.com/julienschmidt/httprouter"
)

// Registration-time regression: httprouter panics on conflicting
// patterns, and Lookup proves each documented endpoint resolves.
func TestRegisteredRoutes(t *testing.T) {
	router := httprouter.New()
	RoutesWrapper(router, ratelim.NewRateLimiter(), schedule.NewMongoEngine(), video.NewServer())

	cases := []struct {
		method string
		path   string
	}{
		{"POST", "/api/auth/register"},
		{"POST", "/api/auth/login"},
		{"GET", "/api/users/profile"},
		{"PUT", "/api/users/profile"},
		{"GET", "/api/users/all"},
		{"POST", "/api/users/create"},
		{"PUT", "/api/users/user/u123"},
		{"DELETE", "/api/users/user/u123"},
		{"GET", "/api/doctors/all"},
		{"GET", "/api/doctors/doctor/d123"},
		{"GET", "/api/schedule/doctor/d123"},
		{"GET", "/api/schedule/available-slots/d123/2026-01-15"},
		{"POST", "/api/appointments"},
		{"GET", "/api/appointments/appointment/42"},
		{"PUT", "/api/appointments/appointment/42"},
		{"DELETE", "/api/appointments/appointment/42"},
		{"PUT", "/api/appointments/appointment/42/status"},
		{"GET", "/api/appointments/appointment/42/summary"},
		{"POST", "/api/records"},
		{"GET", "/api/records/my-records"},
		{"PUT", "/api/records/record/7"},
		{"GET", "/api/records/user/u456"},
		{"GET", "/api/records/stats/summary"},
		{"GET", "/api/analytics/appointments-by-status"},
		{"GET", "/ws/video"},
	}
	for _, tc := range cases {
		if handle, _, _ := router.Lookup(tc.method, tc.path); handle == nil {
			t.Errorf("%s %s is not routed", tc.method, tc.path)
		}
	}
}
