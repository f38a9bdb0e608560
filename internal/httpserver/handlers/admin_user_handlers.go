package handlers

import (
	"net/http"
	"time"

	"parkeasy/internal/auth"
	"parkeasy/internal/models"
	"parkeasy/internal/services/admin"
	"parkeasy/internal/services/booking"
	"parkeasy/internal/util"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func AdminDashboard(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Dashboard(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, d)
	}
}

func ListUsers(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := svc.Users(r.Context(), admin.UserFilter{
			Search: q.Get("search"),
			Role:   q.Get("role"),
			Status: q.Get("status"),
			Page:   util.ParseInt(q.Get("page"), 1),
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, page)
	}
}

func UserDetail(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.User(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, d)
	}
}

type userEditReq struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=customer owner admin"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string `json:"address,omitempty"`
}

func UpdateUser(svc *admin.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userEditReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		u, err := svc.EditUser(r.Context(), auth.Subject(r.Context()), chi.URLParam(r, "id"), admin.UserEdit{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      req.Role,
			Phone:     req.Phone,
			Address:   req.Address,
		}, origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

type suspendReq struct {
	Reason string `json:"reason" validate:"required"`
}

func SuspendUser(svc *admin.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suspendReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		u, err := svc.Suspend(r.Context(), auth.Subject(r.Context()), chi.URLParam(r, "id"), req.Reason, origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

func ActivateUser(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Activate(r.Context(), auth.Subject(r.Context()), chi.URLParam(r, "id"), origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

func DeleteUser(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteUser(r.Context(), auth.Subject(r.Context()), chi.URLParam(r, "id"), origin(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

// optionalDate reads a date filter; a malformed value is ignored.
func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := util.ParseTime(s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func AdminBookings(svc *booking.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := svc.List(r.Context(), booking.Filter{
			Search:      q.Get("search"),
			Status:      models.BookingStatus(q.Get("status")),
			VehicleType: q.Get("vehicle_type"),
			From:        optionalDate(q.Get("date_from")),
			To:          optionalDate(q.Get("date_to")),
			Page:        util.ParseInt(q.Get("page"), 1),
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, page)
	}
}

type bookingEditReq struct {
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed active completed cancelled"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

func (req bookingEditReq) update() (booking.AdminUpdate, error) {
	var in booking.AdminUpdate
	if req.Status != nil {
		st := models.BookingStatus(*req.Status)
		in.Status = &st
	}
	if req.StartTime != nil {
		t, err := parseTimeField("start_time", *req.StartTime)
		if err != nil {
			return in, err
		}
		in.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := parseTimeField("end_time", *req.EndTime)
		if err != nil {
			return in, err
		}
		in.EndTime = &t
	}
	return in, nil
}

func AdminEditBooking(svc *booking.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req bookingEditReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		in, err := req.update()
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		b, err := svc.AdminEdit(r.Context(), auth.Subject(r.Context()), id, in, origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, b)
	}
}

func GetSettings(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Settings(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, st)
	}
}

func UpdateSettings(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st admin.Settings
		if !decode(w, r, nil, lg, &st) {
			return
		}
		out, err := svc.UpdateSettings(r.Context(), auth.Subject(r.Context()), st, origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, out)
	}
}
