package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stylecart/shop-cli/internal/model"
	"github.com/stylecart/shop-cli/internal/rank"
	"github.com/stylecart/shop-cli/internal/search"
)

var servePort int

type apiSearchRequest struct {
	Items         []string `json:"items"`
	Budget        string   `json:"budget"`
	Deadline      string   `json:"deadline"`
	Size          string   `json:"size"`
	Style         string   `json:"style"`
	Target        string   `json:"target"`
	Color         string   `json:"color"`
	Preferences   []string `json:"preferences"`
	PersonaStyles []string `json:"persona_styles"`
	PersonaColors []string `json:"persona_colors"`
	IncludeTrace  bool     `json:"include_trace"`
}

type apiSearchResponse struct {
	Products []model.Product `json:"products"`
	Trace    *model.Trace    `json:"trace,omitempty"`
}

type apiRankResponse struct {
	Products []model.Product `json:"products"`
	Ranking  rank.Output     `json:"ranking"`
	Trace    *model.Trace    `json:"trace,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for search and ranking requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the chi router with the health, search, and rank
// endpoints.
func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
		body, ok := decodeSearchRequest(w, req)
		if !ok {
			return
		}

		products, trace, err := env.Controller.Search(req.Context(), constraintsFrom(body))
		if err != nil {
			zap.L().Error("search request failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
			return
		}

		resp := apiSearchResponse{Products: products}
		if body.IncludeTrace {
			resp.Trace = trace
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/rank", func(w http.ResponseWriter, req *http.Request) {
		body, ok := decodeSearchRequest(w, req)
		if !ok {
			return
		}

		products, trace, err := env.Controller.Search(req.Context(), constraintsFrom(body))
		if err != nil {
			zap.L().Error("rank request failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
			return
		}

		ex := rank.Extract{
			Budget:      body.Budget,
			Deadline:    body.Deadline,
			Constraints: body.Preferences,
		}
		if body.Style != "" {
			ex.Styles = []string{body.Style}
		}
		if body.Color != "" {
			ex.Colors = []string{body.Color}
		}
		persona := model.Persona{
			PreferredStyles: body.PersonaStyles,
			PreferredColors: body.PersonaColors,
		}

		ranking := env.Ranker.RankProducts(req.Context(), ex, products, persona)

		resp := apiRankResponse{Products: products, Ranking: ranking}
		if body.IncludeTrace {
			resp.Trace = trace
		}
		writeJSON(w, http.StatusOK, resp)
	})

	return r
}

func decodeSearchRequest(w http.ResponseWriter, req *http.Request) (apiSearchRequest, bool) {
	var body apiSearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return body, false
	}
	if len(body.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items is required"})
		return body, false
	}
	return body, true
}

func constraintsFrom(body apiSearchRequest) model.SearchConstraints {
	return search.ConstraintsFromRequest(
		body.Budget, body.Deadline, body.Size, body.Style, body.Target, body.Color,
		body.Items,
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
