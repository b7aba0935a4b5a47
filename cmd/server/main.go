package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/liamcoop/loanassess/eligibility"
	"github.com/liamcoop/loanassess/income"
	"github.com/liamcoop/loanassess/internal/config"
	"github.com/liamcoop/loanassess/internal/logger"
	"github.com/liamcoop/loanassess/lenders"
	"github.com/liamcoop/loanassess/property"
	"github.com/liamcoop/loanassess/risk"
	"github.com/liamcoop/loanassess/rules"
	"github.com/liamcoop/loanassess/serviceability"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AssessmentIDHeader carries the per-request assessment identifier.
const AssessmentIDHeader = "X-Assessment-ID"

type Server struct {
	db             *sql.DB
	table          *lenders.Table
	matcher        *lenders.Engine
	checker        *eligibility.Checker
	income         *income.Calculator
	property       *property.Classifier
	serviceability *serviceability.Calculator
	risk           *risk.Scorer
	referenceRate  float64
	requestTimeout time.Duration
	router         *chi.Mux
}

// NewServer loads the lender criteria from the configured source and builds
// the assessment pipeline over them. db may be nil unless the source is
// Postgres.
func NewServer(ctx context.Context, cfg *config.Config, db *sql.DB) (*Server, error) {
	src, err := criteriaSource(cfg, db)
	if err != nil {
		return nil, err
	}

	table, policies, err := lenders.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	return newServer(cfg, db, table, policies), nil
}

func newServer(cfg *config.Config, db *sql.DB, table *lenders.Table, policies *rules.Engine) *Server {
	matcher := lenders.NewEngine(table, policies)

	s := &Server{
		db:      db,
		table:   table,
		matcher: matcher,
		checker: eligibility.NewChecker(matcher, eligibility.Config{
			ReferenceRate: cfg.Assessment.ReferenceRate,
			DefaultBuffer: cfg.Assessment.DefaultBuffer,
		}),
		income:         income.NewCalculator(),
		property:       property.NewClassifier(),
		serviceability: serviceability.NewCalculator(table, cfg.Assessment.DefaultBuffer),
		risk:           risk.NewScorer(),
		referenceRate:  cfg.Assessment.ReferenceRate,
		requestTimeout: cfg.Server.RequestTimeout,
	}
	if s.referenceRate <= 0 {
		s.referenceRate = eligibility.DefaultReferenceRate
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = 60 * time.Second
	}

	s.setupRoutes()
	return s
}

func criteriaSource(cfg *config.Config, db *sql.DB) (lenders.Source, error) {
	switch cfg.Lenders.Source {
	case config.SourceFile:
		return lenders.FileSource{Path: cfg.Lenders.File}, nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("lender source %q requires a database connection", cfg.Lenders.Source)
		}
		return lenders.NewPostgresSource(db), nil
	default:
		return lenders.EmbeddedSource{}, nil
	}
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(assessmentID)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/lenders", s.handleListLenders)
		r.Post("/lenders/match", s.handleMatchLenders)

		r.Post("/eligibility", s.handleEligibility)
		r.Post("/income", s.handleIncome)
		r.Post("/property/classify", s.handleClassifyProperty)
		r.Post("/serviceability", s.handleServiceability)
		r.Post("/lvr", s.handleLVR)
		r.Post("/borrowing-capacity", s.handleBorrowingCapacity)
		r.Post("/risk", s.handleRisk)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// assessmentID tags every response with a fresh identifier so a decision can
// be traced back to its request.
func assessmentID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(AssessmentIDHeader, uuid.NewString())
		next.ServeHTTP(w, r)
	})
}

func openDatabase(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Fatal("invalid log level", "error", err)
	}
	logger.SetLevel(level)

	ctx := context.Background()

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = openDatabase(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()
	}

	server, err := NewServer(ctx, cfg, db)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "addr", httpServer.Addr, "lenders", server.table.Len(), "source", cfg.Lenders.Source)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "logger shutdown error: %v\n", err)
	}

	logger.Info("server stopped")
}
