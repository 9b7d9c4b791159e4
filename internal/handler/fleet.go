package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/schoolbus/backend/internal/domain"
)

// createBusRequest is the JSON body for POST /buses.
type createBusRequest struct {
	Plate    string `json:"plate"`
	Capacity int    `json:"capacity"`
}

// createRouteRequest is the JSON body for POST /routes.
// Stops are taken in list order; sequence numbers are assigned server-side.
type createRouteRequest struct {
	Name  string             `json:"name"`
	Stops []routeStopRequest `json:"stops"`
}

type routeStopRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// studentRequest is the JSON body for POST /students and PATCH /students/{studentID}.
type studentRequest struct {
	Name          string     `json:"name"`
	PickupStopID  *uuid.UUID `json:"pickup_stop_id"`
	DropoffStopID *uuid.UUID `json:"dropoff_stop_id"`
}

// createUserRequest is the JSON body for POST /users.
type createUserRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// CreateBus handles POST /buses.
func (s *Server) CreateBus(w http.ResponseWriter, r *http.Request) {
	var req createBusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	bus, err := s.buses.Create(r.Context(), domain.Bus{Plate: req.Plate, Capacity: req.Capacity})
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusCreated, bus)
}

// ListBuses handles GET /buses.
func (s *Server) ListBuses(w http.ResponseWriter, r *http.Request) {
	buses, err := s.buses.List(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, buses)
}

// GetBus handles GET /buses/{busID}.
func (s *Server) GetBus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "busID")
	if !ok {
		return
	}

	bus, err := s.buses.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "bus not found")
		return
	}
	respondJSON(w, http.StatusOK, bus)
}

// DeleteBus handles DELETE /buses/{busID}.
func (s *Server) DeleteBus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "busID")
	if !ok {
		return
	}

	if err := s.buses.Delete(r.Context(), id); err != nil {
		respondError(w, err, "bus not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateRoute handles POST /routes.
func (s *Server) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req createRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	route := domain.Route{Name: req.Name}
	for _, stop := range req.Stops {
		route.Stops = append(route.Stops, domain.Stop{Name: stop.Name, Lat: stop.Lat, Lng: stop.Lng})
	}

	created, err := s.routes.Create(r.Context(), route)
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ListRoutes handles GET /routes.
func (s *Server) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := s.routes.List(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, routes)
}

// GetRoute handles GET /routes/{routeID}.
func (s *Server) GetRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "routeID")
	if !ok {
		return
	}

	route, err := s.routes.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "route not found")
		return
	}
	respondJSON(w, http.StatusOK, route)
}

// DeleteRoute handles DELETE /routes/{routeID}.
func (s *Server) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "routeID")
	if !ok {
		return
	}

	if err := s.routes.Delete(r.Context(), id); err != nil {
		respondError(w, err, "route not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateStudent handles POST /students.
func (s *Server) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	student, err := s.students.Create(r.Context(), domain.Student{
		Name:          req.Name,
		PickupStopID:  req.PickupStopID,
		DropoffStopID: req.DropoffStopID,
	})
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusCreated, student)
}

// ListStudents handles GET /students.
func (s *Server) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.students.List(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, students)
}

// GetStudent handles GET /students/{studentID}.
func (s *Server) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "studentID")
	if !ok {
		return
	}

	student, err := s.students.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "student not found")
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// UpdateStudent handles PATCH /students/{studentID}.
func (s *Server) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "studentID")
	if !ok {
		return
	}

	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	student, err := s.students.Update(r.Context(), domain.Student{
		ID:            id,
		Name:          req.Name,
		PickupStopID:  req.PickupStopID,
		DropoffStopID: req.DropoffStopID,
	})
	if err != nil {
		respondError(w, err, "student not found")
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// DeleteStudent handles DELETE /students/{studentID}.
func (s *Server) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "studentID")
	if !ok {
		return
	}

	if err := s.students.Delete(r.Context(), id); err != nil {
		respondError(w, err, "student not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user, err := s.users.Create(r.Context(), domain.User{
		Name:  req.Name,
		Phone: req.Phone,
		Role:  domain.UserRole(req.Role),
	})
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{userID}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
