package handlers

import (
	"net/http"

	"parkeasy/internal/auth"
	"parkeasy/internal/models"
	"parkeasy/internal/services/inventory"

	"go.uber.org/zap"
)

// maxUploadBytes bounds a single multipart image upload.
const maxUploadBytes = 10 << 20

type placeReq struct {
	Name                string   `json:"name" validate:"required,max=120"`
	Address             string   `json:"address" validate:"required"`
	Area                string   `json:"area" validate:"max=80"`
	City                string   `json:"city" validate:"required"`
	PricePerHour        float64  `json:"price_per_hour" validate:"gt=0"`
	Description         string   `json:"description"`
	AllowedVehicleTypes []string `json:"allowed_vehicle_types" validate:"required,min=1"`
	NumberOfSlots       int      `json:"number_of_slots" validate:"min=0"`
}

func (req placeReq) input() inventory.PlaceInput {
	return inventory.PlaceInput{
		Name:                req.Name,
		Address:             req.Address,
		Area:                req.Area,
		City:                req.City,
		PricePerHour:        req.PricePerHour,
		Description:         req.Description,
		AllowedVehicleTypes: req.AllowedVehicleTypes,
		NumberOfSlots:       req.NumberOfSlots,
	}
}

func OwnerDashboard(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.OwnerDashboard(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, d)
	}
}

func ListOwnerPlaces(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		places, err := svc.OwnerPlaces(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, places)
	}
}

func CreatePlace(svc *inventory.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		p, err := svc.CreatePlace(r.Context(), auth.Subject(r.Context()), req.input())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, p)
	}
}

func UpdatePlace(svc *inventory.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req placeReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		p, err := svc.UpdatePlace(r.Context(), auth.Subject(r.Context()), id, req.input())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

func DeletePlace(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.DeletePlace(r.Context(), auth.Subject(r.Context()), id); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

// UploadPlaceImage takes the "image" part of a multipart form and stores it
// as image {n} (1 or 2) of the place.
func UploadPlaceImage(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		n, ok := idParam(w, r, "n")
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		f, _, err := r.FormFile("image")
		if err != nil {
			respondStatus(w, http.StatusBadRequest, errorBody{Error: "image file is required", Field: "image"})
			return
		}
		defer f.Close()
		p, err := svc.SetImage(r.Context(), auth.Subject(r.Context()), id, int(n), f)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

type slotReq struct {
	Code         string   `json:"code" validate:"required,max=20"`
	IsAvailable  *bool    `json:"is_available,omitempty"`
	PricePerHour *float64 `json:"price_per_hour,omitempty" validate:"omitempty,gt=0"`
}

func (req slotReq) input() inventory.SlotInput {
	in := inventory.SlotInput{Code: req.Code, IsAvailable: true, PricePerHour: req.PricePerHour}
	if req.IsAvailable != nil {
		in.IsAvailable = *req.IsAvailable
	}
	return in
}

func ListSlots(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		slots, err := svc.Slots(r.Context(), auth.Subject(r.Context()), id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, slots)
	}
}

func AddSlot(svc *inventory.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req slotReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		s, err := svc.AddSlot(r.Context(), auth.Subject(r.Context()), id, req.input())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, s)
	}
}

func EditSlot(svc *inventory.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req slotReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		s, err := svc.EditSlot(r.Context(), auth.Subject(r.Context()), id, req.input())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, s)
	}
}

func DeleteSlot(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.DeleteSlot(r.Context(), auth.Subject(r.Context()), id); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

func OwnerBookings(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.OwnerBookings(r.Context(), auth.Subject(r.Context()), inventory.OwnerBookingFilter{
			Status:      models.BookingStatus(q.Get("status")),
			VehicleType: q.Get("vehicle_type"),
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func OwnerPayments(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.OwnerPayments(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

