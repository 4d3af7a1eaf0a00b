package chainlog

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Server exposes registered chains for remote verification over HTTPS.
// Routes:
//
//	POST /api/v1/chains/{id}/verify  -> full verification Report
//	GET  /api/v1/chains/{id}/head    -> current head pointer, text/plain
//
// Reports are JSON by default and protobuf wire format when the client
// asks for application/x-protobuf.
type Server struct {
	mu        sync.RWMutex
	chains    map[string]chainHandle
	tlsConfig *tls.Config
}

type chainHandle struct {
	store    Store
	verifier *Verifier
}

// NewServer creates an empty verification server.
func NewServer() *Server {
	return &Server{chains: make(map[string]chainHandle)}
}

// RegisterChain associates a chain ID with its store and verifier.
// Required before the chain can be verified remotely.
func (s *Server) RegisterChain(chainID string, st Store, v *Verifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains[chainID] = chainHandle{store: st, verifier: v}
}

// SetTLSConfig clones cfg and stores it for use when serving HTTPS
// requests. If cfg is nil a default configuration will be used.
func (s *Server) SetTLSConfig(cfg *tls.Config) {
	if cfg == nil {
		s.tlsConfig = nil
		return
	}
	s.tlsConfig = cfg.Clone()
}

func (s *Server) lookup(chainID string) (chainHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.chains[chainID]
	return h, ok
}

// wantsProtobuf checks whether the client asked for protobuf wire format.
func wantsProtobuf(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.HasPrefix(accept, "application/x-protobuf") ||
		strings.HasPrefix(accept, "application/protobuf")
}

func writeReport(w http.ResponseWriter, r *http.Request, rep Report) {
	if wantsProtobuf(r) {
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(MarshalReport(rep))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(rep)
}

// HandleVerify handles POST /api/v1/chains/{id}/verify.
func (s *Server) HandleVerify(w http.ResponseWriter, r *http.Request) {
	chainID := r.PathValue("id")
	h, ok := s.lookup(chainID)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown chain %q", chainID), http.StatusNotFound)
		return
	}
	writeReport(w, r, h.verifier.Verify(h.store))
}

// HandleHead handles GET /api/v1/chains/{id}/head.
func (s *Server) HandleHead(w http.ResponseWriter, r *http.Request) {
	chainID := r.PathValue("id")
	h, ok := s.lookup(chainID)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown chain %q", chainID), http.StatusNotFound)
		return
	}
	head, hasHead, err := h.store.Head()
	if err != nil {
		http.Error(w, fmt.Sprintf("read head: %v", err), http.StatusInternalServerError)
		return
	}
	if !hasHead {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, head)
}

// SetupRoutes configures HTTP routes on mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chains/{id}/verify", s.HandleVerify)
	mux.HandleFunc("GET /api/v1/chains/{id}/head", s.HandleHead)
}

func (s *Server) tlsConfigWithDefaults() *tls.Config {
	if s.tlsConfig == nil {
		return &tls.Config{MinVersion: tls.VersionTLS12}
	}
	cfg := s.tlsConfig.Clone()
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	return cfg
}

// ListenAndServeTLS starts the HTTPS verification server.
func (s *Server) ListenAndServeTLS(addr, certFile, keyFile string) error {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	server := &http.Server{
		Addr:      addr,
		Handler:   mux,
		TLSConfig: s.tlsConfigWithDefaults(),
	}
	return server.ListenAndServeTLS(certFile, keyFile)
}
