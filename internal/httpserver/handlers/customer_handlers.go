package handlers

import (
	"net/http"
	"time"

	"parkeasy/internal/auth"
	"parkeasy/internal/models"
	"parkeasy/internal/services/booking"
	"parkeasy/internal/services/checkout"
	"parkeasy/internal/services/inventory"
	"parkeasy/internal/services/receipt"
	"parkeasy/internal/util"

	"go.uber.org/zap"
)

func VehicleTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"vehicle_types": models.VehicleTypes,
			"place_types":   models.PlaceVehicleTypes,
			"cities":        inventory.Cities,
		})
	}
}

func CustomerDashboard(svc *booking.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Dashboard(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, d)
	}
}

func SearchPlaces(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		places, err := svc.Search(r.Context(), inventory.SearchQuery{
			City:        q.Get("city"),
			Area:        q.Get("area"),
			VehicleType: q.Get("vehicle_type"),
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, places)
	}
}

func PlaceDetail(svc *inventory.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		p, err := svc.Place(r.Context(), id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

type bookReq struct {
	StartTime          string `json:"start_time" validate:"required"`
	EndTime            string `json:"end_time" validate:"required"`
	VehicleType        string `json:"vehicle_type" validate:"required"`
	VehicleNumberPlate string `json:"vehicle_number_plate" validate:"required"`
}

func parseTimeField(field, value string) (time.Time, error) {
	t, err := util.ParseTime(value, time.Local)
	if err != nil {
		return time.Time{}, models.Invalid(field, "Enter a valid date and time.")
	}
	return t, nil
}

func BookSlot(svc *booking.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req bookReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		start, err := parseTimeField("start_time", req.StartTime)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		end, err := parseTimeField("end_time", req.EndTime)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		b, err := svc.Create(r.Context(), auth.Subject(r.Context()), booking.CreateInput{
			SlotID:             slotID,
			StartTime:          start,
			EndTime:            end,
			VehicleType:        req.VehicleType,
			VehicleNumberPlate: req.VehicleNumberPlate,
		}, origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, b)
	}
}

func MyBookings(svc *booking.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListForCustomer(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func BookingDetail(svc *booking.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		b, err := svc.Get(r.Context(), auth.Subject(r.Context()), id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, b)
	}
}

func CancelBooking(svc *booking.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Cancel(r.Context(), auth.Subject(r.Context()), id, origin(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"cancelled": true})
	}
}

func bookingQuery(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := util.ParseID(r.URL.Query().Get("booking"))
	if err != nil {
		respondStatus(w, http.StatusBadRequest, errorBody{Error: "booking query parameter is required", Field: "booking"})
		return 0, false
	}
	return id, true
}

// CheckoutQuote shows the amount due for ?booking=<id>.
func CheckoutQuote(svc *checkout.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingQuery(w, r)
		if !ok {
			return
		}
		q, err := svc.Quote(r.Context(), auth.Subject(r.Context()), id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, q)
	}
}

func CheckoutPay(svc *checkout.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingQuery(w, r)
		if !ok {
			return
		}
		res, err := svc.Pay(r.Context(), auth.Subject(r.Context()), id, origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, res)
	}
}

func MyReceipts(svc *receipt.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func ReceiptDetail(svc *receipt.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		rc, err := svc.Get(r.Context(), auth.Subject(r.Context()), id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, rc)
	}
}

// GenerateReceipt returns the booking's receipt, issuing it on first call.
func GenerateReceipt(svc *receipt.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		rc, err := svc.GenerateFor(r.Context(), auth.Subject(r.Context()), id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, rc)
	}
}
