package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"donortrack/internal/core"
	"donortrack/internal/log"
	"donortrack/internal/middleware/ratelimit"
	"donortrack/internal/middleware/security"
	"donortrack/internal/middleware/trace"
	"donortrack/internal/services"
	"donortrack/internal/storage"
)

// Pinger is satisfied by *storage.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the operations the API exposes.
type Services struct {
	Store         Pinger
	Donors        *services.DonorService
	Programs      *services.ProgramService
	Donations     *services.DonationService
	Pledges       *services.PledgeService
	TaxReceipts   *services.TaxReceiptService
	ThankYouNotes *services.ThankYouNoteService
	Receipts      *services.ReceiptGenerator
	Reports       *services.ReportService
}

// NewServices builds every service over one store. publisher may be nil.
func NewServices(store *storage.Store, publisher services.Publisher) Services {
	return Services{
		Store:         store,
		Donors:        services.NewDonorService(store),
		Programs:      services.NewProgramService(store),
		Donations:     services.NewDonationService(store, publisher),
		Pledges:       services.NewPledgeService(store),
		TaxReceipts:   services.NewTaxReceiptService(store),
		ThankYouNotes: services.NewThankYouNoteService(store),
		Receipts:      services.NewReceiptGenerator(store, publisher),
		Reports:       services.NewReportService(store),
	}
}

// Options tune the middleware stack.
type Options struct {
	CORSAllowedOrigins []string
	// RateLimitPerMinute applies to POST, PUT and DELETE per client IP.
	// Zero disables limiting.
	RateLimitPerMinute int
	// Today decides which programs are active; defaults to the UTC date.
	Today func() core.Date
}

type Server struct {
	http.Server
	engine   *gin.Engine
	services Services
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	trace    *trace.Middleware
}

func NewServer(addr string, svc Services, opts Options, logger *log.Logger) *Server {
	useJSONFieldNames()
	if opts.Today == nil {
		opts.Today = func() core.Date { return core.DateOf(time.Now().UTC()) }
	}

	logger = logger.WithComponent(log.ComponentHTTP)
	engine := gin.New()
	engine.RedirectTrailingSlash = false
	if err := engine.SetTrustedProxies(security.TrustedProxies); err != nil {
		logger.Warn("Invalid trusted proxies", log.FieldError, err)
	}

	s := &Server{
		engine:   engine,
		services: svc,
		logger:   logger,
		trace:    trace.NewMiddleware(logger),
	}

	engine.Use(s.trace.Gin(), s.recovery(), security.Headers(security.DefaultHeadersConfig()))
	engine.Use(security.NewDetector(logger).Gin())
	engine.Use(corsMiddleware(opts.CORSAllowedOrigins))
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		engine.Use(s.limiter.Gin(http.MethodPost, http.MethodPut, http.MethodDelete))
	}

	engine.NoRoute(func(c *gin.Context) { detail(c, http.StatusNotFound, "Not Found") })

	s.routes(opts)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) {
	r := s.engine

	r.GET("/", s.handleIndex)
	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	resource[core.Donor, storage.DonorFilter, donorRequest, *donorRequest]{
		svc: s.services.Donors, filter: donorFilter,
	}.register(r.Group("/donors"))

	programs := r.Group("/programs")
	resource[core.Program, storage.ProgramFilter, programRequest, *programRequest]{
		svc: s.services.Programs, filter: programFilter(opts.Today),
	}.register(programs)
	programs.POST("/:id/reconcile", s.handleReconcileProgram)

	resource[core.Donation, storage.DonationFilter, donationRequest, *donationRequest]{
		svc: s.services.Donations, filter: donationFilter,
	}.register(r.Group("/donations"))

	resource[core.Pledge, storage.PledgeFilter, pledgeRequest, *pledgeRequest]{
		svc: s.services.Pledges, filter: pledgeFilter,
	}.register(r.Group("/pledges"))

	receipts := r.Group("/tax-receipts")
	resource[core.TaxReceipt, storage.TaxReceiptFilter, taxReceiptRequest, *taxReceiptRequest]{
		svc: s.services.TaxReceipts, filter: taxReceiptFilter,
	}.register(receipts)
	receipts.POST("/generate-for-year", s.handleGenerateReceipts)
	receipts.POST("/generate-for-year/", s.handleGenerateReceipts)

	resource[core.ThankYouNote, storage.ThankYouNoteFilter, thankYouNoteRequest, *thankYouNoteRequest]{
		svc: s.services.ThankYouNotes, filter: thankYouNoteFilter,
	}.register(r.Group("/thank-you-notes"))

	reports := r.Group("/reports")
	for path, h := range map[string]gin.HandlerFunc{
		"/donations-by-program":    s.handleDonationsByProgram,
		"/donations-by-donor":      s.handleDonationsByDonor,
		"/unfulfilled-pledges":     s.handleUnfulfilledPledges,
		"/pending-thank-you-notes": s.handlePendingThankYouNotes,
	} {
		reports.GET(path, h)
		reports.GET(path+"/", h)
	}
}

// corsMiddleware allows every origin for "*" (without credentials) and
// the listed origins with credentials otherwise.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", trace.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", trace.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// recovery turns panics into a logged 500 with the usual error body.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		s.logger.ErrorContext(c.Request.Context(), "Handler panic",
			"panic", recovered,
			log.FieldMethod, c.Request.Method,
			log.FieldPath, c.Request.URL.Path)
		detail(c, http.StatusInternalServerError, "Internal server error")
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}
