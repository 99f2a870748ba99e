package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/admissions-crm/internal/auth"
	"github.com/ignite/admissions-crm/internal/domain"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, authManager *auth.Manager, health *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for session cookies
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (no auth required)
	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/live", health.HandleLiveness)
		r.Get("/health/ready", health.HandleReadiness)
	}

	leads := auth.RequireRole(domain.RoleManager, domain.RoleDirector)

	r.Route("/api", func(r chi.Router) {
		// Session routes
		r.Post("/register", authManager.HandleRegister)
		r.Post("/login", authManager.HandleLogin)
		r.Post("/logout", authManager.HandleLogout)
		r.Get("/user", authManager.HandleUser)

		// Public lead capture
		r.Get("/public/form/{enlace}", h.PublicForm)
		r.Post("/public/form/{enlace}/submit", h.SubmitPublicForm)

		r.Group(func(r chi.Router) {
			r.Use(authManager.RequireAuth)

			r.Route("/prospectos", func(r chi.Router) {
				r.Get("/", h.ListProspects)
				r.Post("/", h.CreateProspect)
				r.Get("/stats", h.ProspectStats)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetProspect)
					r.Put("/", h.UpdateProspect)
					r.Delete("/", h.DeleteProspect)
					r.With(leads).Put("/asignar", h.AssignProspect)
					r.Put("/estado", h.TransitionProspect)
					r.Get("/comunicaciones", h.ProspectCommunications)
					r.Get("/documentos", h.ListDocuments)
					r.Post("/documentos", h.AddDocument)
					r.Get("/pagos", h.ListPayments)
					r.Post("/pagos", h.AddPayment)
					r.Get("/progreso", h.AdmissionProgress)
					r.Post("/inscribir", h.Enroll)
				})
			})
			r.Put("/documentos/{id}", h.ReviewDocument)
			r.Put("/pagos/{id}", h.UpdatePayment)

			r.Route("/metrics", func(r chi.Router) {
				r.With(auth.RequireRole(domain.RoleDirector)).Get("/director", h.DirectorDashboard)
				r.With(leads).Get("/gerente", h.ManagerDashboard)
				r.Get("/asesor", h.AdvisorDashboard)
			})

			r.Route("/comunicaciones", func(r chi.Router) {
				r.Get("/", h.ListCommunications)
				r.Post("/", h.CreateCommunication)
				r.Get("/stats", h.CommunicationStats)
				r.Get("/{id}", h.GetCommunication)
				r.Put("/{id}", h.UpdateCommunication)
				r.Delete("/{id}", h.DeleteCommunication)
			})

			r.Route("/campanas", func(r chi.Router) {
				r.Use(leads)
				r.Get("/", h.ListCampaigns)
				r.Post("/", h.CreateCampaign)
				r.Get("/stats", h.CampaignsOverview)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetCampaign)
					r.Put("/", h.UpdateCampaign)
					r.Delete("/", h.DeleteCampaign)
					r.Get("/stats", h.CampaignStats)
					r.Get("/prospectos", h.CampaignProspects)
					r.Post("/prospectos", h.LinkCampaignProspect)
					r.Delete("/prospectos/{pid}", h.UnlinkCampaignProspect)
				})
			})

			r.Route("/reportes", func(r chi.Router) {
				r.Use(leads)
				r.Get("/", h.ListReports)
				r.Post("/", h.CreateReport)
				r.Post("/generar", h.GenerateReport)
				r.Get("/{id}", h.GetReport)
				r.Put("/{id}", h.UpdateReport)
				r.Delete("/{id}", h.DeleteReport)
				r.Post("/{id}/ejecutar", h.ExecuteReport)
				r.Get("/{id}/ejecuciones", h.ReportHistory)
			})

			r.Route("/formularios", func(r chi.Router) {
				r.Use(leads)
				r.Get("/", h.ListForms)
				r.Post("/", h.CreateForm)
				r.Get("/{id}", h.GetForm)
				r.Put("/{id}", h.UpdateForm)
				r.Delete("/{id}", h.DeleteForm)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
