package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/transport/http/handlers"
)

type routerDeps struct {
	logger    *zap.Logger
	validator TokenValidator
	auth      *handlers.AuthHandler
	users     *handlers.UserHandler
	discover  *handlers.DiscoverHandler
	views     *handlers.ViewHandler
	friends   *handlers.FriendHandler
	messages  *handlers.MessageHandler
	media     *handlers.MediaHandler
}

func newRouter(deps routerDeps) chi.Router {
	r := chi.NewRouter()
	applyMiddlewares(r, deps.logger)

	r.Get("/healthz", handlers.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.auth.Register)
		r.Post("/login", deps.auth.Login)
		r.Post("/refresh", deps.auth.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(deps.validator))
			r.Post("/logout", deps.auth.Logout)
			r.Post("/logout_all", deps.auth.LogoutAll)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(deps.validator))

		r.Get("/users", deps.users.List)
		r.Route("/users/{username}", func(r chi.Router) {
			r.Get("/", deps.users.Get)
			r.Patch("/", deps.users.Update)
			r.Delete("/", deps.users.Delete)
			r.Get("/friends", deps.friends.List)
			r.Get("/messages/to", deps.messages.ListReceived)
			r.Get("/messages/from", deps.messages.ListSent)
		})

		r.Get("/discover", deps.discover.Discover)
		r.Post("/views", deps.views.Decide)

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", deps.messages.Send)
			r.Get("/{id}", deps.messages.Get)
			r.Post("/{id}/read", deps.messages.MarkRead)
		})

		r.Post("/media/photo", deps.media.UploadPhoto)
	})

	return r
}
