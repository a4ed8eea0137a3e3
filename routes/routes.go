package routes

import (
	"net/http"

	"carelink/analytics"
	"carelink/appointments"
	"carelink/auth"
	"carelink/doctors"
	"carelink/middleware"
	"carelink/ratelim"
	"carelink/records"
	"carelink/schedule"
	"carelink/users"
	"carelink/video"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter, engine *schedule.Engine, signaling *video.Server) {
	AddAuthRoutes(router, rl)
	AddUserRoutes(router, rl)
	AddDoctorRoutes(router, rl)
	AddScheduleRoutes(router, rl, engine)
	AddAppointmentRoutes(router, rl)
	AddRecordRoutes(router, rl)
	AddAnalyticsRoutes(router, rl)
	AddVideoRoutes(router, signaling)
	AddStaticRoutes(router)
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/avatars/*filepath", http.Dir("static/avatars"))
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.LogoutUser))
	router.POST("/api/auth/token/refresh", rl.Limit(auth.RefreshToken))
}

func AddUserRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/users/profile", middleware.Authenticate(users.GetProfile))
	router.PUT("/api/users/profile", middleware.Authenticate(users.UpdateProfile))
	router.GET("/api/users/all", middleware.RequireRole(users.ListUsers, "admin"))
	router.POST("/api/users/create", middleware.RequireRole(users.CreateUserByAdmin, "admin"))
	router.PUT("/api/users/user/:id", middleware.RequireRole(users.UpdateUserByAdmin, "admin"))
	router.DELETE("/api/users/user/:id", middleware.RequireRole(users.DeleteUser, "admin"))
}

func AddDoctorRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/doctors/all", rl.Limit(doctors.ListDoctors))
	router.GET("/api/doctors/doctor/:id", rl.Limit(doctors.GetDoctor))
	router.POST("/api/doctors/profile", middleware.RequireRole(doctors.UpsertProfile, "doctor"))
	router.POST("/api/doctors/avatar", middleware.RequireRole(doctors.UploadAvatar, "doctor"))
}

func AddScheduleRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, engine *schedule.Engine) {
	router.GET("/api/schedule/doctor/:doctorId", rl.Limit(schedule.GetDoctorSchedule))
	router.POST("/api/schedule", middleware.RequireRole(schedule.CreateSchedule, "doctor"))
	router.PUT("/api/schedule/entry/:id", middleware.RequireRole(schedule.UpdateSchedule, "doctor"))
	router.DELETE("/api/schedule/entry/:id", middleware.RequireRole(schedule.DeleteSchedule, "doctor"))

	router.GET("/api/schedule/available-slots/:doctorId/:date", rl.Limit(schedule.AvailableSlotsHandler(engine)))

	router.POST("/api/schedule/leave", middleware.RequireRole(schedule.ApplyLeave, "doctor"))
	router.GET("/api/schedule/leaves", middleware.RequireRole(schedule.GetMyLeaves, "doctor"))
	router.DELETE("/api/schedule/leave/:id", middleware.RequireRole(schedule.DeleteLeave, "doctor"))
	router.GET("/api/schedule/leaves/all", middleware.RequireRole(schedule.GetAllLeaves, "admin"))
	router.PUT("/api/schedule/leaves/:id/review", middleware.RequireRole(schedule.ReviewLeave, "admin"))
}

func AddAppointmentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/appointments", rl.Limit(middleware.RequireRole(appointments.CreateAppointment, "patient")))
	router.GET("/api/appointments/my-appointments", middleware.Authenticate(appointments.GetMyAppointments))
	router.GET("/api/appointments/doctor-appointments", middleware.RequireRole(appointments.GetDoctorAppointments, "doctor"))
	router.GET("/api/appointments/all", middleware.RequireRole(appointments.GetAllAppointments, "admin"))
	router.GET("/api/appointments/appointment/:id", middleware.Authenticate(appointments.GetAppointmentByID))
	router.PUT("/api/appointments/appointment/:id", middleware.RequireRole(appointments.UpdateAppointment, "admin"))
	router.DELETE("/api/appointments/appointment/:id", middleware.RequireRole(appointments.DeleteAppointment, "admin"))
	router.PUT("/api/appointments/appointment/:id/status", middleware.Authenticate(appointments.UpdateAppointmentStatus))
	router.GET("/api/appointments/appointment/:id/summary", middleware.Authenticate(appointments.AppointmentSummary))
}

func AddRecordRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/records", rl.Limit(middleware.Authenticate(records.CreateRecord)))
	router.GET("/api/records/my-records", middleware.Authenticate(records.GetMyRecords))
	router.GET("/api/records/record/:id", middleware.Authenticate(records.GetRecordByID))
	router.PUT("/api/records/record/:id", middleware.Authenticate(records.UpdateRecord))
	router.DELETE("/api/records/record/:id", middleware.Authenticate(records.DeleteRecord))
	router.GET("/api/records/user/:userId", middleware.RequireRole(records.GetRecordsByUserID, "doctor", "admin"))
	router.GET("/api/records/stats/summary", middleware.Authenticate(records.GetHealthStats))
}

func AddAnalyticsRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/analytics/appointments-by-status", middleware.RequireRole(analytics.AppointmentsByStatus, "admin"))
	router.GET("/api/analytics/appointments-per-day", middleware.RequireRole(analytics.AppointmentsPerDay, "admin"))
	router.GET("/api/analytics/top-doctors", middleware.RequireRole(analytics.TopDoctors, "admin"))
	router.GET("/api/analytics/users-by-role", middleware.RequireRole(analytics.UsersByRole, "admin"))
}

func AddVideoRoutes(router *httprouter.Router, signaling *video.Server) {
	router.GET("/ws/video", middleware.Authenticate(signaling.HandleWS))
}
