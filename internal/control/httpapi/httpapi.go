// Package httpapi exposes a Controller over a small JSON REST interface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/control"
	"github.com/cwbudde/algo-multifx/internal/logging"
	"github.com/cwbudde/algo-multifx/internal/meter"
	"github.com/cwbudde/algo-multifx/internal/params"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const maxBodySize = 64 * 1024

// Server holds the handler dependencies. Levels and Analyzer may be nil.
type Server struct {
	ctrl     *control.Controller
	levels   *meter.Levels
	analyzer *meter.Analyzer
	log      *logrus.Entry
	router   *chi.Mux
}

// New builds the router.
func New(ctrl *control.Controller, levels *meter.Levels, analyzer *meter.Analyzer, log logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		ctrl:     ctrl,
		levels:   levels,
		analyzer: analyzer,
		log:      logging.WithComponent(log, "http"),
		router:   chi.NewRouter(),
	}

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Get("/order", s.handleGetOrder)
	r.Put("/order", s.handlePutOrder)
	r.Post("/order/move", s.handleMove)
	r.Post("/order/toggle", s.handleToggle)

	r.Get("/params", s.handleGetParams)
	r.Put("/params/{id}", s.handlePutParam)

	r.Get("/meter", s.handleMeter)
	r.Post("/meter/reset", s.handleMeterReset)
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

type orderBody struct {
	Order   string   `json:"order"`
	Applied string   `json:"applied,omitempty"`
	Active  []string `json:"active,omitempty"`
	Pending bool     `json:"pending"`
}

type moveBody struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type toggleBody struct {
	Option string `json:"option"`
}

type paramBody struct {
	ID    string  `json:"id,omitempty"`
	Value float64 `json:"value"`
	Text  string  `json:"text,omitempty"`
	Unit  string  `json:"unit,omitempty"`
}

type meterBody struct {
	PeaksDB  []float64 `json:"peaksDb,omitempty"`
	BinHz    float64   `json:"binHz,omitempty"`
	Spectrum []float64 `json:"spectrum,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session": s.ctrl.Session()})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orderState())
}

func (s *Server) handlePutOrder(w http.ResponseWriter, r *http.Request) {
	var body orderBody
	if !s.decode(w, r, &body) {
		return
	}

	o, err := effectchain.ParseOrder(body.Order)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.ctrl.SetOrder(o); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, s.orderState())
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body moveBody
	if !s.decode(w, r, &body) {
		return
	}

	if err := s.ctrl.Move(body.From, body.To); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, s.orderState())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var body toggleBody
	if !s.decode(w, r, &body) {
		return
	}

	opt, err := effectchain.ParseOption(body.Option)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.ctrl.Toggle(opt); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, s.orderState())
}

func (s *Server) handleGetParams(w http.ResponseWriter, _ *http.Request) {
	store := s.ctrl.Params()
	if store == nil {
		s.writeError(w, http.StatusNotFound, control.ErrNoParams)
		return
	}

	layout := params.Layout()
	out := make([]paramBody, 0, len(layout))

	for _, p := range layout {
		v := store.Value(p.ID)
		out = append(out, paramBody{ID: p.ID, Value: v, Text: p.Format(v), Unit: p.Unit})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutParam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := params.Lookup(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, params.ErrUnknownParam)
		return
	}

	var body paramBody
	if !s.decode(w, r, &body) {
		return
	}

	v := body.Value
	if body.Text != "" {
		parsed, err := p.Parse(body.Text)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}

		v = parsed
	}

	got, err := s.ctrl.SetParam(id, v)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, control.ErrNoParams) {
			status = http.StatusNotFound
		}

		s.writeError(w, status, err)

		return
	}

	writeJSON(w, http.StatusOK, paramBody{ID: id, Value: got, Text: p.Format(got), Unit: p.Unit})
}

func (s *Server) handleMeter(w http.ResponseWriter, _ *http.Request) {
	var body meterBody

	if s.levels != nil {
		peaks := s.levels.PeaksDB()
		body.PeaksDB = peaks[:]
	}

	if s.analyzer != nil && s.analyzer.Ready() {
		body.BinHz = s.analyzer.BinHz()
		body.Spectrum = s.analyzer.Spectrum()
	}

	writeJSON(w, http.StatusOK, body)
}

// handleMeterReset returns the held peaks and starts a new hold period.
func (s *Server) handleMeterReset(w http.ResponseWriter, _ *http.Request) {
	var body meterBody

	if s.levels != nil {
		peaks := s.levels.Take()
		body.PeaksDB = peaks[:]
	}

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) orderState() orderBody {
	current := s.ctrl.Current()

	active := current.Active()
	names := make([]string, len(active))

	for i, opt := range active {
		names[i] = opt.String()
	}

	return orderBody{
		Order:   current.String(),
		Applied: s.ctrl.Applied().String(),
		Active:  names,
		Pending: s.ctrl.Pending(),
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return false
	}

	return true
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.WithError(err).WithField("status", status).Debug("request failed")
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
