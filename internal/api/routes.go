package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the API router.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/surveys", func(r chi.Router) {
			r.Get("/", h.ListSurveys)
			r.Post("/", h.CreateSurvey)
			r.Route("/{surveyID}", func(r chi.Router) {
				r.Get("/", h.GetSurvey)
				r.Put("/active", h.SetSurveyActive)
				r.Get("/responses", h.ListResponses)
				r.Post("/responses", h.SubmitResponse)
				r.Get("/analytics", h.SurveyAnalytics)
			})
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Route("/{campaignID}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Post("/recipients", h.AddRecipients)
				r.Get("/recipients", h.ListRecipients)
				r.Post("/schedule", h.ScheduleCampaign)
				r.Post("/send", h.SendCampaign)
				r.Post("/pause", h.PauseCampaign)
				r.Post("/resume", h.ResumeCampaign)
				r.Post("/cancel", h.CancelCampaign)
				r.Get("/analytics", h.CampaignAnalytics)
			})
		})

		r.Get("/recipients/{recipientID}", h.GetRecipient)
	})

	return r
}
