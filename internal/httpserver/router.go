package httpserver

import (
	"net/http"

	"parkeasy/internal/auth"
	"parkeasy/internal/httpserver/handlers"
	"parkeasy/internal/models"
	"parkeasy/internal/services/accounts"
	"parkeasy/internal/services/admin"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/services/booking"
	"parkeasy/internal/services/checkout"
	"parkeasy/internal/services/inventory"
	"parkeasy/internal/services/receipt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB        *gorm.DB
	Signer    *auth.Signer
	Validator handlers.Validator
	Logger    *zap.SugaredLogger
	UploadDir string

	Accounts  *accounts.Service
	Inventory *inventory.Service
	Bookings  *booking.Service
	Checkout  *checkout.Service
	Receipts  *receipt.Service
	Admin     *admin.Service
	Audit     *audit.Log
}

func NewRouter(d Deps) http.Handler {
	lg, v := d.Logger, d.Validator
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, RequestLogger(lg))

	r.Post("/v1/auth/signup", handlers.Signup(d.Accounts, v, lg))
	r.Post("/v1/auth/verify-otp", handlers.VerifyOTP(d.Accounts, v, lg))
	r.Post("/v1/auth/resend-otp", handlers.ResendOTP(d.Accounts, v, lg))
	r.Post("/v1/auth/login", handlers.Login(d.Accounts, v, lg))
	r.Post("/v1/auth/password-reset", handlers.RequestPasswordReset(d.Accounts, v, lg))
	r.Post("/v1/auth/password-reset/confirm", handlers.ResetPassword(d.Accounts, v, lg))
	r.Get("/v1/vehicle-types", handlers.VehicleTypes())

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(d.DB, d.Signer))
		protected.Get("/v1/me", handlers.Me(d.Accounts, lg))
		protected.Patch("/v1/me", handlers.UpdateProfile(d.Accounts, v, lg))
		protected.Post("/v1/me/role", handlers.ChooseRole(d.Accounts, v, lg))
		protected.Get("/v1/me/activity", handlers.MyActivity(d.Audit, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(d.Accounts, lg))
		protected.Post("/v1/auth/password", handlers.ChangePassword(d.Accounts, v, lg))

		protected.Group(func(customer chi.Router) {
			customer.Use(auth.RequireRole(models.RoleCustomer))
			customer.Get("/v1/customer/dashboard", handlers.CustomerDashboard(d.Bookings, lg))
			customer.Get("/v1/places", handlers.SearchPlaces(d.Inventory, lg))
			customer.Get("/v1/places/{id}", handlers.PlaceDetail(d.Inventory, lg))
			customer.Post("/v1/slots/{id}/bookings", handlers.BookSlot(d.Bookings, v, lg))
			customer.Get("/v1/bookings", handlers.MyBookings(d.Bookings, lg))
			customer.Get("/v1/bookings/{id}", handlers.BookingDetail(d.Bookings, lg))
			customer.Post("/v1/bookings/{id}/cancel", handlers.CancelBooking(d.Bookings, lg))
			customer.Post("/v1/bookings/{id}/receipt", handlers.GenerateReceipt(d.Receipts, lg))
			customer.Get("/v1/checkout", handlers.CheckoutQuote(d.Checkout, lg))
			customer.Post("/v1/checkout", handlers.CheckoutPay(d.Checkout, lg))
			customer.Get("/v1/receipts", handlers.MyReceipts(d.Receipts, lg))
			customer.Get("/v1/receipts/{id}", handlers.ReceiptDetail(d.Receipts, lg))
		})

		protected.Group(func(owner chi.Router) {
			owner.Use(auth.RequireRole(models.RoleOwner))
			owner.Get("/v1/owner/dashboard", handlers.OwnerDashboard(d.Inventory, lg))
			owner.Get("/v1/owner/places", handlers.ListOwnerPlaces(d.Inventory, lg))
			owner.Post("/v1/owner/places", handlers.CreatePlace(d.Inventory, v, lg))
			owner.Put("/v1/owner/places/{id}", handlers.UpdatePlace(d.Inventory, v, lg))
			owner.Delete("/v1/owner/places/{id}", handlers.DeletePlace(d.Inventory, lg))
			owner.Post("/v1/owner/places/{id}/images/{n}", handlers.UploadPlaceImage(d.Inventory, lg))
			owner.Get("/v1/owner/places/{id}/slots", handlers.ListSlots(d.Inventory, lg))
			owner.Post("/v1/owner/places/{id}/slots", handlers.AddSlot(d.Inventory, v, lg))
			owner.Put("/v1/owner/slots/{id}", handlers.EditSlot(d.Inventory, v, lg))
			owner.Delete("/v1/owner/slots/{id}", handlers.DeleteSlot(d.Inventory, lg))
			owner.Get("/v1/owner/bookings", handlers.OwnerBookings(d.Inventory, lg))
			owner.Get("/v1/owner/payments", handlers.OwnerPayments(d.Inventory, lg))
		})

		protected.Group(func(adm chi.Router) {
			adm.Use(auth.RequireRole(models.RoleAdmin))
			adm.Get("/v1/admin/dashboard", handlers.AdminDashboard(d.Admin, lg))
			adm.Get("/v1/admin/users", handlers.ListUsers(d.Admin, lg))
			adm.Get("/v1/admin/users/{id}", handlers.UserDetail(d.Admin, lg))
			adm.Patch("/v1/admin/users/{id}", handlers.UpdateUser(d.Admin, v, lg))
			adm.Delete("/v1/admin/users/{id}", handlers.DeleteUser(d.Admin, lg))
			adm.Post("/v1/admin/users/{id}/suspend", handlers.SuspendUser(d.Admin, v, lg))
			adm.Post("/v1/admin/users/{id}/activate", handlers.ActivateUser(d.Admin, lg))
			adm.Get("/v1/admin/bookings", handlers.AdminBookings(d.Bookings, lg))
			adm.Patch("/v1/admin/bookings/{id}", handlers.AdminEditBooking(d.Bookings, v, lg))
			adm.Get("/v1/admin/settings", handlers.GetSettings(d.Admin, lg))
			adm.Put("/v1/admin/settings", handlers.UpdateSettings(d.Admin, lg))
			adm.Get("/v1/admin/actions", handlers.AdminActionLog(d.Audit, lg))
			adm.Get("/v1/admin/activities", handlers.ActivityLog(d.Audit, lg))
		})
	})

	if d.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
