package handlers

import (
	"net/http"
	"time"

	"parkeasy/internal/auth"
	"parkeasy/internal/models"
	"parkeasy/internal/services/accounts"

	"go.uber.org/zap"
)

type signupReq struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	Role            string `json:"role,omitempty" validate:"omitempty,oneof=customer owner"`
}

func Signup(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		res, err := svc.Signup(r.Context(), accounts.SignupInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
			Role:            req.Role,
		})
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, map[string]any{
			"user":      res.User,
			"mail_sent": res.MailSent,
		})
	}
}

type verifyOTPReq struct {
	UserID string `json:"user_id" validate:"required"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

func VerifyOTP(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyOTPReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		u, err := svc.VerifyOTP(r.Context(), req.UserID, req.OTP)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}

func ResendOTP(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		u, sent, err := svc.ResendOTP(r.Context(), req.Email)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"user_id": u.ID, "mail_sent": sent})
	}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func Login(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		res, err := svc.Login(r.Context(), req.Username, req.Password, origin(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{
			"token":       res.Token.Raw,
			"expires_at":  res.Token.ExpiresAt.Format(time.RFC3339),
			"user":        res.User,
			"choose_role": res.User.RoleSelectedAt == nil && res.User.Role != models.RoleAdmin,
		})
	}
}

func Logout(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), auth.FromContext(r.Context()), origin(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Me(svc *accounts.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Me(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

type profileReq struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string `json:"address,omitempty"`
}

func UpdateProfile(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		u, err := svc.UpdateProfile(r.Context(), auth.Subject(r.Context()), accounts.ProfileInput{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
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

type roleReq struct {
	Role string `json:"role" validate:"required,oneof=customer owner"`
}

func ChooseRole(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		u, err := svc.ChooseRole(r.Context(), auth.Subject(r.Context()), req.Role)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

// RequestPasswordReset always answers 202 so addresses cannot be probed.
func RequestPasswordReset(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		if err := svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
			lg.Warnw("password reset request failed", "err", err)
		}
		respondStatus(w, http.StatusAccepted, map[string]any{"status": "if the address is registered, a reset link has been sent"})
	}
}

type resetReq struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

func ResetPassword(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		if err := svc.ResetPassword(r.Context(), req.Token, req.Password, req.PasswordConfirm); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type changePasswordReq struct {
	Current         string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

func ChangePassword(svc *accounts.Service, v Validator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if !decode(w, r, v, lg, &req) {
			return
		}
		err := svc.ChangePassword(r.Context(), auth.Subject(r.Context()), req.Current, req.Password, req.PasswordConfirm)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
