package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/config"
	"github.com/godeepar/geoxchange/host"
	"github.com/godeepar/geoxchange/interchange"
)

// Requests is the persisted form of the request counters.
type Requests struct {
	Send    int64 `json:"send"`
	Receive int64 `json:"receive"`
}

type counters struct {
	mu     sync.Mutex
	values map[string]int64
}

func newCounters() *counters {
	return &counters{values: make(map[string]int64)}
}

func (s *counters) Get(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *counters) Set(key string, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

func (s *counters) Incr(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key]++
	return s.values[key]
}

// load restores the counters from path. A missing or broken log starts
// from zero.
func (s *counters) load(path string) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		logger.Verbose(err)
		return
	}
	var count Requests
	if err := json.Unmarshal(data, &count); err != nil {
		logger.Warning(fmt.Sprintf("request log %s ignored: %v", path, err))
		return
	}
	s.Set("send", count.Send)
	s.Set("receive", count.Receive)
	logger.Info("starting send count:", count.Send, "receive count:", count.Receive)
}

func (s *counters) save(path string) error {
	data, err := json.Marshal(Requests{Send: s.Get("send"), Receive: s.Get("receive")})
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0o644)
}

type server struct {
	cfg    *config.Config
	counts *counters
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/send/{name}", s.send).Methods(http.MethodPost)
	r.HandleFunc("/receive", s.receive).Methods(http.MethodPost)
	r.HandleFunc("/stats", s.stats).Methods(http.MethodGet)
	return r
}

func httpError(w http.ResponseWriter, err error, code int) {
	logger.Error(err)
	http.Error(w, err.Error(), code)
}

// send converts the GeoJSON body into a graph holding one layer. The notes
// count and the operation id travel in response headers.
func (s *server) send(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := mux.Vars(r)["name"]
	l, err := host.ReadGeoJSON(name, r.Body)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}

	cancel, stop := watch(r.Context())
	defer stop()
	a := s.cfg.Assembler(nil)
	a.Ctx = a.Ctx.WithCancel(cancel)
	n, report, err := a.Send(l)
	if err != nil {
		httpError(w, err, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Operation-Id", report.OperationID)
	w.Header().Set("X-Conversion-Notes", fmt.Sprint(report.Len()))
	if err := writeNode(w, collection(name, []*interchange.Node{n})); err != nil {
		logger.Error(err)
	}
	logger.Info("send count", s.counts.Incr("send"), "ms", time.Since(start).Milliseconds())
}

// Received is the response of /receive: every located layer as a GeoJSON
// feature collection plus the conversion notes.
type Received struct {
	OperationID string                     `json:"operationId"`
	Layers      map[string]json.RawMessage `json:"layers"`
	Notes       []string                   `json:"notes"`
}

func (s *server) receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	root, err := interchange.Decode(r.Body)
	if err != nil {
		httpError(w, err, http.StatusBadRequest)
		return
	}

	cancel, stop := watch(r.Context())
	defer stop()
	a := s.cfg.Assembler(nil)
	a.Ctx = a.Ctx.WithCancel(cancel)
	a.Curves = false
	a.StageDir = ""

	layers, report := a.ReceiveGraph(root)
	out := Received{OperationID: report.OperationID, Layers: make(map[string]json.RawMessage)}
	for _, l := range layers {
		if l.IsRaster() || l.GeometryKind() == interchange.KindMesh {
			report.Addf(l.Name, nil, "%s layers have no GeoJSON form", l.GeometryKind())
			continue
		}
		var buf bytes.Buffer
		if err := host.WriteGeoJSON(l, &buf); err != nil {
			report.Addf(l.Name, nil, "not written: %v", err)
			continue
		}
		out.Layers[l.Name] = buf.Bytes()
	}
	for _, n := range report.Notes {
		out.Notes = append(out.Notes, n.String())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		logger.Error(err)
	}
	logger.Info("receive count", s.counts.Incr("receive"), "ms", time.Since(start).Milliseconds())
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Requests{Send: s.counts.Get("send"), Receive: s.counts.Get("receive")}); err != nil {
		logger.Error(err)
	}
}

// flush saves the counters every period until ctx is done, then once more.
func (s *server) flush(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.counts.save(s.cfg.Serve.RequestLog); err != nil {
				logger.Error(err)
			}
		case <-ctx.Done():
			if err := s.counts.save(s.cfg.Serve.RequestLog); err != nil {
				logger.Error(err)
			}
			return
		}
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			s := &server{cfg: cfg, counts: newCounters()}
			s.counts.load(cfg.Serve.RequestLog)

			ctx, done := context.WithCancel(cmd.Context())
			defer done()
			period := time.Duration(cfg.Serve.FlushSeconds) * time.Second
			if period <= 0 {
				period = 10 * time.Minute
			}
			flushed := make(chan struct{})
			go func() {
				s.flush(ctx, period)
				close(flushed)
			}()

			srv := &http.Server{
				Addr:              cfg.Serve.Addr,
				Handler:           s.router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				if err := srv.Shutdown(context.Background()); err != nil {
					logger.Error(err)
				}
			}()
			logger.Info("listening on", cfg.Serve.Addr)
			err := srv.ListenAndServe()
			done()
			<-flushed
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides serve.addr")
	return cmd
}
