package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/schoolbus/backend/internal/domain"
)

// dateFormat is the wire format for calendar days.
const dateFormat = "2006-01-02"

// createTripRequest is the JSON body for POST /trips.
// Timestamps are RFC 3339; trip_date is a bare "2006-01-02" day.
type createTripRequest struct {
	RouteID          *uuid.UUID `json:"route_id"`
	BusID            *uuid.UUID `json:"bus_id"`
	DriverID         *uuid.UUID `json:"driver_id"`
	TripDate         string     `json:"trip_date"`
	Session          string     `json:"session"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	ActualStartTime  *time.Time `json:"actual_start_time"`
	ActualEndTime    *time.Time `json:"actual_end_time"`
}

// updateTripRequest is the JSON body for PATCH /trips/{tripID}.
// Every field is optional; absent fields keep their stored values.
type updateTripRequest struct {
	RouteID          *uuid.UUID `json:"route_id"`
	BusID            *uuid.UUID `json:"bus_id"`
	DriverID         *uuid.UUID `json:"driver_id"`
	TripDate         *string    `json:"trip_date"`
	Session          *string    `json:"session"`
	Type             *string    `json:"type"`
	Status           *string    `json:"status"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	ActualStartTime  *time.Time `json:"actual_start_time"`
	ActualEndTime    *time.Time `json:"actual_end_time"`
}

// tripListResponse is the JSON body for GET /trips.
type tripListResponse struct {
	Data       []domain.Trip `json:"data"`
	Pagination pagination    `json:"pagination"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// attachStudentsRequest is the JSON body for POST /trips/{tripID}/students.
type attachStudentsRequest struct {
	StudentIDs []uuid.UUID `json:"student_ids"`
}

// setAttendanceRequest is the JSON body for PATCH /trips/{tripID}/students/{studentID}.
type setAttendanceRequest struct {
	Status string `json:"status"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	trip, err := requestToTrip(req)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	trips, total, err := s.trips.ListPaged(r.Context(), params)
	if err != nil {
		respondError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, tripListResponse{
		Data: trips,
		Pagination: pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

// UpdateTrip handles PATCH /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	var req updateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	patch, err := requestToPatch(req)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	updated, err := s.trips.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteTrip handles DELETE /trips/{tripID}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	if err := s.trips.Delete(r.Context(), id); err != nil {
		respondError(w, err, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachStudents handles POST /trips/{tripID}/students.
func (s *Server) AttachStudents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}

	var req attachStudentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if len(req.StudentIDs) == 0 {
		respondBadRequest(w, "student_ids is required")
		return
	}

	trip, err := s.trips.AttachStudents(r.Context(), id, req.StudentIDs)
	if err != nil {
		respondError(w, err, "trip not found")
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

// SetAttendance handles PATCH /trips/{tripID}/students/{studentID}.
func (s *Server) SetAttendance(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "tripID")
	if !ok {
		return
	}
	studentID, ok := pathID(w, r, "studentID")
	if !ok {
		return
	}

	var req setAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	record, err := s.trips.SetAttendance(r.Context(), tripID, studentID, domain.AttendanceStatus(req.Status))
	if err != nil {
		respondError(w, err, "attendance record not found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a createTripRequest into a domain.Trip.
// Enum and date-format errors surface here; business rules stay in the service.
func requestToTrip(req createTripRequest) (domain.Trip, error) {
	t := domain.Trip{
		RouteID:          req.RouteID,
		BusID:            req.BusID,
		DriverID:         req.DriverID,
		Session:          domain.Session(req.Session),
		Type:             domain.TripType(req.Type),
		Status:           domain.TripStatus(req.Status),
		PlannedStartTime: req.PlannedStartTime,
		ActualStartTime:  req.ActualStartTime,
		ActualEndTime:    req.ActualEndTime,
	}
	if req.TripDate == "" {
		return domain.Trip{}, errInvalidDate
	}
	date, err := time.Parse(dateFormat, req.TripDate)
	if err != nil {
		return domain.Trip{}, errInvalidDate
	}
	t.TripDate = date
	return t, nil
}

// requestToPatch converts an updateTripRequest into a domain.TripPatch.
func requestToPatch(req updateTripRequest) (domain.TripPatch, error) {
	p := domain.TripPatch{
		RouteID:          req.RouteID,
		BusID:            req.BusID,
		DriverID:         req.DriverID,
		PlannedStartTime: req.PlannedStartTime,
		ActualStartTime:  req.ActualStartTime,
		ActualEndTime:    req.ActualEndTime,
	}
	if req.TripDate != nil {
		date, err := time.Parse(dateFormat, *req.TripDate)
		if err != nil {
			return domain.TripPatch{}, errInvalidDate
		}
		p.TripDate = &date
	}
	if req.Session != nil {
		session := domain.Session(*req.Session)
		p.Session = &session
	}
	if req.Type != nil {
		tripType := domain.TripType(*req.Type)
		p.Type = &tripType
	}
	if req.Status != nil {
		status := domain.TripStatus(*req.Status)
		p.Status = &status
	}
	return p, nil
}

// errInvalidDate is the shared complaint for a missing or malformed trip_date.
var errInvalidDate = errors.New("trip_date must be a YYYY-MM-DD date")

// pathID parses the named chi URL parameter as a UUID, replying 422 itself
// when the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondBadRequest(w, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter, returning nil when the
// parameter is absent or not a number.
func queryInt(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
