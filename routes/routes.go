package routes

import (
	"net/http"

	"github.com/fieldmates/fieldmates/handlers"
	"github.com/fieldmates/fieldmates/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	allowedOrigins []string,
	groupPostHandler *handlers.GroupPostHandler,
	participantHandler *handlers.ParticipantHandler,
	golfHandler *handlers.GolfHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/group-posts", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/", groupPostHandler.CreateHandler)
		r.Get("/", groupPostHandler.ListHandler)

		r.Route("/{groupPostID}", func(r chi.Router) {
			r.Get("/", groupPostHandler.GetByIDHandler)
			r.Patch("/", groupPostHandler.UpdateHandler)
			r.Delete("/", groupPostHandler.DeleteHandler)

			r.Get("/participants", participantHandler.ListHandler)
			r.Post("/participants", participantHandler.AddHandler)
			r.Patch("/participants", participantHandler.UpdateRoleHandler)
			r.Delete("/participants", participantHandler.RemoveHandler)

			r.Get("/attest", participantHandler.GetAttestationHandler)
			r.Post("/attest", participantHandler.AttestHandler)
		})
	})

	router.Route("/golf", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/scorecards", golfHandler.CreateScorecardHandler)
		r.Get("/scorecards", golfHandler.GetScorecardHandler)
		r.Patch("/scorecards", golfHandler.UpdateScorecardHandler)

		r.Post("/scores", golfHandler.RecordScoresHandler)
		r.Get("/scores", golfHandler.GetScoresHandler)
		r.Post("/scores/confirm", golfHandler.ConfirmScoresHandler)
		r.Post("/scores/unlock", golfHandler.UnlockScoresHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/ws/group-posts/{groupPostID}", webSocketHandler.ServeWs)
	})
}
