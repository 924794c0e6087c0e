// Package mgmt implements the read-only status surface spec.md §6
// calls out as an external collaborator ("a separate HTTP listener
// provides a read-only status surface (out of scope here)").
// SPEC_FULL.md §4.9 brings it into scope as a concrete HTTP+JSON
// surface, grounded on the teacher's fw/mgmt/forwarder-status.go
// GeneralStatus dataset shape, re-expressed as JSON instead of an NDN
// Data packet since there is no NDN transport in this daemon.
package mgmt

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/schema"

	"github.com/ccnd-go/ccnd/core"
	"github.com/ccnd-go/ccnd/face"
	"github.com/ccnd-go/ccnd/fw"
)

// GeneralStatus mirrors forwarder-status.go's dataset fields that have
// an analogue in this daemon's tables.
type GeneralStatus struct {
	StartTimestamp   time.Time `json:"start_timestamp"`
	CurrentTimestamp time.Time `json:"current_timestamp"`
	NFaces           int       `json:"n_faces"`
	NCsEntries       int       `json:"n_cs_entries"`
	NPrefixEntries   int       `json:"n_prefix_entries"`
	NPitEntries      int       `json:"n_pit_entries"`
	NInterestsDropped uint64   `json:"n_interests_dropped"`
	NNameCollisions  uint64    `json:"n_name_collisions"`
}

// FaceQuery is gorilla/schema-decoded from /status/faces's query
// string; id selects one face, otherwise every face is listed.
type FaceQuery struct {
	ID uint64 `schema:"id"`
}

type FaceStatus struct {
	ID          uint64 `json:"id"`
	Remote      string `json:"remote"`
	Local       string `json:"local"`
	Datagram    bool   `json:"datagram"`
	LinkFramed  bool   `json:"link_framed"`
	NInBytes    uint64 `json:"n_in_bytes"`
	NOutBytes   uint64 `json:"n_out_bytes"`
}

// Server is the status HTTP surface, holding a reference to the
// running Daemon so every handler reads live counters.
type Server struct {
	d        *fw.Daemon
	start    time.Time
	server   *http.Server
	decoder  *schema.Decoder
}

// NewServer builds a status server bound to addr, not yet listening.
func NewServer(d *fw.Daemon, addr string) *Server {
	s := &Server{d: d, start: time.Now(), decoder: schema.NewDecoder()}
	mux := http.NewServeMux()
	mux.HandleFunc("/status/general", s.handleGeneral)
	mux.HandleFunc("/status/faces", s.handleFaces)
	mux.HandleFunc("/status/cs", s.handleCS)
	s.server = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) String() string { return "mgmt-status" }

// Run starts the HTTP listener; it blocks until Close is called.
func (s *Server) Run() error {
	core.Log.Info(s, "status surface listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Close() error { return s.server.Close() }

func (s *Server) handleGeneral(w http.ResponseWriter, r *http.Request) {
	status := GeneralStatus{
		StartTimestamp:    s.start,
		CurrentTimestamp:  time.Now(),
		NFaces:            s.d.Faces.Len(),
		NCsEntries:        s.d.CS.Len(),
		NPrefixEntries:    s.d.IPT.Len(),
		NPitEntries:       s.d.PIT.Len(),
		NInterestsDropped: s.d.InterestsDropped,
		NNameCollisions:   s.d.NameCollisions,
	}
	writeJSON(w, status)
}

func (s *Server) handleFaces(w http.ResponseWriter, r *http.Request) {
	var q FaceQuery
	if err := s.decodeQuery(r.URL.Query(), &q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var out []FaceStatus
	if q.ID != 0 {
		if f, ok := s.d.Faces.Lookup(q.ID); ok {
			out = append(out, faceStatusOf(f))
		}
	} else {
		s.d.Faces.Range(func(f *face.Face) {
			out = append(out, faceStatusOf(f))
		})
	}
	writeJSON(w, out)
}

func faceStatusOf(f *face.Face) FaceStatus {
	return FaceStatus{
		ID:         f.ID(),
		Remote:     f.Transport.RemoteURI().String(),
		Local:      f.Transport.LocalURI().String(),
		Datagram:   f.Transport.IsDatagram(),
		LinkFramed: f.Transport.IsLinkFramed(),
		NInBytes:   f.Transport.NInBytes(),
		NOutBytes:  f.Transport.NOutBytes(),
	}
}

func (s *Server) handleCS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"n_entries": s.d.CS.Len()})
}

func (s *Server) decodeQuery(values url.Values, dst any) error {
	return s.decoder.Decode(dst, values)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
