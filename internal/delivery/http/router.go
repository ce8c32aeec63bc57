package http

import (
	"net/http"

	"care-booking-marketplace/internal/delivery/http/handler"
	"care-booking-marketplace/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	providerHandler     *handler.ProviderHandler
	availabilityHandler *handler.AvailabilityHandler
	bookingHandler      *handler.BookingHandler
	careRequestHandler  *handler.CareRequestHandler
	patientHandler      *handler.PatientHandler
	auditLogHandler     *handler.AuditLogHandler
	healthHandler       *handler.HealthHandler
	metricsHandler      http.Handler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	creationLimiter     *middleware.RateLimiter
}

type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	ProviderHandler     *handler.ProviderHandler
	AvailabilityHandler *handler.AvailabilityHandler
	BookingHandler      *handler.BookingHandler
	CareRequestHandler  *handler.CareRequestHandler
	PatientHandler      *handler.PatientHandler
	AuditLogHandler     *handler.AuditLogHandler
	HealthHandler       *handler.HealthHandler
	MetricsHandler      http.Handler
	AuthMiddleware      *middleware.AuthMiddleware
	CORSMiddleware      *middleware.CORSMiddleware
	CreationRateLimiter *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         cfg.AuthHandler,
		providerHandler:     cfg.ProviderHandler,
		availabilityHandler: cfg.AvailabilityHandler,
		bookingHandler:      cfg.BookingHandler,
		careRequestHandler:  cfg.CareRequestHandler,
		patientHandler:      cfg.PatientHandler,
		auditLogHandler:     cfg.AuditLogHandler,
		healthHandler:       cfg.HealthHandler,
		metricsHandler:      cfg.MetricsHandler,
		authMiddleware:      cfg.AuthMiddleware,
		corsMiddleware:      cfg.CORSMiddleware,
		creationLimiter:     cfg.CreationRateLimiter,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)
	if r.metricsHandler != nil {
		api.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/provider", r.authHandler.RegisterProvider).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	r.setupProviderRoutes(api)
	r.setupBookingRoutes(api)
	r.setupCareRequestRoutes(api)

	// Patient self-service
	patients := api.PathPrefix("/patients").Subrouter()
	patients.Use(r.authMiddleware.Authenticate)
	patients.Use(middleware.RequirePatient)
	patients.HandleFunc("/me", r.patientHandler.GetMyProfile).Methods(http.MethodGet)
	patients.HandleFunc("/me", r.patientHandler.UpdateMyProfile).Methods(http.MethodPut)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id:[0-9]+}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Preflight requests match last so the CORS middleware can answer them
	r.router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) setupProviderRoutes(api *mux.Router) {
	// Literal paths are registered before {id} so they are not captured by it
	public := api.PathPrefix("/providers").Subrouter()
	public.HandleFunc("/match", r.providerHandler.MatchProviders).Methods(http.MethodGet)

	self := api.PathPrefix("/providers").Subrouter()
	self.Use(r.authMiddleware.Authenticate)
	self.Use(middleware.RequireProvider)
	self.HandleFunc("/me", r.providerHandler.UpdateMyProfile).Methods(http.MethodPut)

	read := api.PathPrefix("/providers").Subrouter()
	read.HandleFunc("/{id}", r.providerHandler.GetProvider).Methods(http.MethodGet)
	read.HandleFunc("/{id}/availability", r.availabilityHandler.ListAvailability).Methods(http.MethodGet)
	read.HandleFunc("/{id}/slots", r.availabilityHandler.GetSlots).Methods(http.MethodGet)

	owner := api.PathPrefix("/providers").Subrouter()
	owner.Use(r.authMiddleware.Authenticate)
	owner.Use(middleware.RequireProvider)
	owner.HandleFunc("/{id}/availability", r.availabilityHandler.CreateEntry).Methods(http.MethodPost)
	owner.HandleFunc("/{id}/availability/{entryId}", r.availabilityHandler.DeleteEntry).Methods(http.MethodDelete)
}

func (r *Router) setupBookingRoutes(api *mux.Router) {
	create := api.PathPrefix("/bookings").Subrouter()
	if r.creationLimiter != nil {
		create.Use(r.creationLimiter.Handle)
	}
	create.Use(r.authMiddleware.OptionalAuthenticate)
	create.HandleFunc("", r.bookingHandler.CreateBooking).Methods(http.MethodPost)

	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(r.authMiddleware.Authenticate)
	bookings.HandleFunc("", r.bookingHandler.ListBookings).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}", r.bookingHandler.GetBooking).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}", r.bookingHandler.UpdateBooking).Methods(http.MethodPatch)
	bookings.HandleFunc("/{id}", r.bookingHandler.DeleteBooking).Methods(http.MethodDelete)
}

func (r *Router) setupCareRequestRoutes(api *mux.Router) {
	create := api.PathPrefix("/care-requests").Subrouter()
	if r.creationLimiter != nil {
		create.Use(r.creationLimiter.Handle)
	}
	create.Use(r.authMiddleware.OptionalAuthenticate)
	create.HandleFunc("", r.careRequestHandler.CreateCareRequest).Methods(http.MethodPost)

	match := api.PathPrefix("/care-requests").Subrouter()
	match.Use(r.authMiddleware.Authenticate)
	match.Use(middleware.RequireProvider)
	match.HandleFunc("/match", r.careRequestHandler.MatchCareRequests).Methods(http.MethodGet)

	requests := api.PathPrefix("/care-requests").Subrouter()
	requests.Use(r.authMiddleware.Authenticate)
	requests.HandleFunc("", r.careRequestHandler.ListMyCareRequests).Methods(http.MethodGet)
	requests.HandleFunc("/{id}", r.careRequestHandler.GetCareRequest).Methods(http.MethodGet)
}
