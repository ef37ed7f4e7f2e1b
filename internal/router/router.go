package router

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/auth"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/handler"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the HTTP surface is built from. Metrics, Images
// and Mailer are optional.
type Deps struct {
	ServiceName string
	Users       handler.UserService
	Drinks      handler.DrinkService
	Reviews     handler.ReviewService
	Tokens      *auth.TokenManager
	Sessions    auth.SessionStore
	Images      handler.ImageStorage
	Mailer      handler.WelcomeSender
	Metrics     *metrics.MetricsManager
	Logger      *logger.Logger
}

// NewRouter builds the chi router with every route of the service.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(d.ServiceName))
	r.Use(middleware.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	})

	jwtAuth := middleware.JWTAuth(d.Tokens, d.Sessions, d.Logger)

	SetupAuthRoutes(r, handler.NewAuthHandler(d.Users, d.Tokens, d.Sessions, d.Mailer, d.Logger), jwtAuth)
	SetupUserRoutes(r, handler.NewUserHandler(d.Users, d.Sessions, d.Logger), jwtAuth)
	SetupDrinkRoutes(r, handler.NewDrinkHandler(d.Drinks, d.Images, d.Logger), jwtAuth)
	SetupReviewRoutes(r, handler.NewReviewHandler(d.Reviews, d.Logger), jwtAuth)
	return r
}

// SetupAuthRoutes configures sign-up, login and logout.
func SetupAuthRoutes(r chi.Router, h *handler.AuthHandler, jwtAuth func(http.Handler) http.Handler) {
	r.Post("/api/auth/signup", h.HandleSignup)
	r.Post("/api/auth/login", h.HandleLogin)
	r.With(jwtAuth).Post("/api/auth/logout", h.HandleLogout)
}

// SetupUserRoutes configures the user collection. Mutations are limited to
// the account itself.
func SetupUserRoutes(r chi.Router, h *handler.UserHandler, jwtAuth func(http.Handler) http.Handler) {
	r.Get("/api/users", h.HandleListUsers)
	r.Get("/api/users/{email}", h.HandleGetUser)

	r.Group(func(authRouter chi.Router) {
		authRouter.Use(jwtAuth)
		authRouter.Put("/api/users/{email}", h.HandleUpdateUser)
		authRouter.Delete("/api/users/{email}", h.HandleDeleteUser)
		authRouter.Post("/api/users/{email}/favorites/{drinkId}", h.HandleAddFavorite)
		authRouter.Delete("/api/users/{email}/favorites/{drinkId}", h.HandleRemoveFavorite)
	})
}

// SetupDrinkRoutes configures the drink collection.
func SetupDrinkRoutes(r chi.Router, h *handler.DrinkHandler, jwtAuth func(http.Handler) http.Handler) {
	r.Get("/api/drinks", h.HandleListDrinks)
	r.Get("/api/drinks/{id}", h.HandleGetDrink)

	r.Group(func(authRouter chi.Router) {
		authRouter.Use(jwtAuth)
		authRouter.Post("/api/drinks", h.HandleCreateDrink)
		authRouter.Delete("/api/drinks", h.HandleDeleteDrinks)
		authRouter.Put("/api/drinks/{id}", h.HandleUpdateDrink)
		authRouter.Delete("/api/drinks/{id}", h.HandleDeleteDrink)
		authRouter.Post("/api/drinks/{id}/image", h.HandleUploadImage)
	})
}

// SetupReviewRoutes configures the review collection.
func SetupReviewRoutes(r chi.Router, h *handler.ReviewHandler, jwtAuth func(http.Handler) http.Handler) {
	r.Get("/api/reviews", h.HandleListReviews)
	r.Get("/api/reviews/{id}", h.HandleGetReview)

	r.Group(func(authRouter chi.Router) {
		authRouter.Use(jwtAuth)
		authRouter.Post("/api/reviews", h.HandleCreateReview)
		authRouter.Delete("/api/reviews", h.HandleDeleteReviews)
		authRouter.Put("/api/reviews/{id}", h.HandleUpdateReview)
		authRouter.Delete("/api/reviews/{id}", h.HandleDeleteReview)
	})
}
