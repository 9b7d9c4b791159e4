package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the chi router with every API endpoint registered.
// Middleware (request ID, logging, CORS, body limits) is applied by the
// caller in main.go so tests can exercise handlers without it.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Patch("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)
			r.Post("/students", s.AttachStudents)
			r.Patch("/students/{studentID}", s.SetAttendance)
		})
	})

	r.Get("/alerts", s.ListAlerts)
	r.Get("/export", s.Export)

	r.Route("/buses", func(r chi.Router) {
		r.Post("/", s.CreateBus)
		r.Get("/", s.ListBuses)
		r.Get("/{busID}", s.GetBus)
		r.Delete("/{busID}", s.DeleteBus)
	})

	r.Route("/routes", func(r chi.Router) {
		r.Post("/", s.CreateRoute)
		r.Get("/", s.ListRoutes)
		r.Get("/{routeID}", s.GetRoute)
		r.Delete("/{routeID}", s.DeleteRoute)
	})

	r.Route("/students", func(r chi.Router) {
		r.Post("/", s.CreateStudent)
		r.Get("/", s.ListStudents)
		r.Get("/{studentID}", s.GetStudent)
		r.Patch("/{studentID}", s.UpdateStudent)
		r.Delete("/{studentID}", s.DeleteStudent)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.CreateUser)
		r.Get("/", s.ListUsers)
		r.Get("/{userID}", s.GetUser)
	})

	return r
}
