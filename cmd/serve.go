package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/executor"
	"github.com/dateradar/pricing-cli/internal/fetcher"
	"github.com/dateradar/pricing-cli/internal/reconcile"
	"github.com/dateradar/pricing-cli/internal/rules"
	"github.com/dateradar/pricing-cli/internal/store"
	"github.com/dateradar/pricing-cli/pkg/ebay"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control API",
	Long:  "Exposes rules, plan previews, bulk adjustments, and run logs over a JSON API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		api := &apiServer{
			store: st,
			repo:  initRepository(st),
			ebay:  initEbay(),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type apiServer struct {
	store store.Store
	repo  *rules.Repository
	ebay  ebay.Client
}

func (a *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/rules", a.handleRules)
		r.Get("/plan", a.handlePlan)
		r.Post("/adjust", a.handleAdjust)
		r.Get("/logs", a.handleLogs)
		r.Get("/logs/{id}", a.handleLog)
	})

	return r
}

func (a *apiServer) handleRules(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if req.URL.Query().Get("active") == "true" {
		writeJSON(w, http.StatusOK, a.repo.ActiveRules(ctx, time.Now()))
		return
	}
	writeJSON(w, http.StatusOK, a.repo.AllRules(ctx))
}

// handlePlan previews the reprice pass without executing anything.
func (a *apiServer) handlePlan(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	listings, err := fetcher.FetchListings(ctx, a.ebay)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	active := a.repo.ActiveRules(ctx, time.Now())
	plan := reconcile.BuildPlan(listings, active)
	writeJSON(w, http.StatusOK, map[string]any{
		"listings":     len(listings),
		"active_rules": len(active),
		"plan":         plan,
	})
}

func (a *apiServer) handleAdjust(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	var body struct {
		ListingIDs []string `json:"listing_ids"`
		Type       string   `json:"type"`
		Value      float64  `json:"value"`
		Live       bool     `json:"live"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	if len(body.ListingIDs) == 0 {
		writeError(w, http.StatusBadRequest, eris.New("listing_ids is required"))
		return
	}
	adjType := reconcile.AdjustmentType(body.Type)
	if adjType == "" {
		adjType = reconcile.PercentIncrease
	}

	listings, err := fetcher.FetchListings(ctx, a.ebay)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	plan, err := reconcile.BuildBulkPlan(listings, body.ListingIDs, reconcile.Adjustment{
		Type:  adjType,
		Value: body.Value,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	exec := executor.New(a.ebay, a.store)
	log, err := exec.Execute(ctx, plan, executor.RunMeta{
		ListingCount: len(listings),
	}, !body.Live)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (a *apiServer) handleLogs(w http.ResponseWriter, req *http.Request) {
	limit := 20
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, eris.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	logs, err := a.store.ListUpdateLogs(req.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (a *apiServer) handleLog(w http.ResponseWriter, req *http.Request) {
	log, err := a.store.GetUpdateLog(req.Context(), chi.URLParam(req, "id"))
	if eris.Is(err, store.ErrLogNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
