// Copyright (C) 2008-2018 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

// Package server adapts the teacher's real-time HTTP/WS surface into the
// thin, read-only status/report endpoint SPEC_FULL.md §6 calls for: no
// control actions (no start/pause/restart), since those belong to the
// real-time product this spec does not build.
package server

import (
	"fmt"
	"html/template"
	"net/http"

	log "gopkg.in/inconshreveable/log15.v2"
)

const (
	DefaultAddr string = "0.0.0.0"
	DefaultPort string = "22222"
)

// StatusFunc returns the current best-solution-so-far status as JSON,
// typically backed by a running scenario.Driver.
type StatusFunc func() ([]byte, error)

// Server serves the home page, a JSON status endpoint, and the push feed
// hub over websocket (spec.md §6 "Outputs").
type Server struct {
	Hub *Hub

	title       string
	description string
	status      StatusFunc

	logger log.Logger
}

// NewServer builds a Server. statusFn may be nil if no status is available
// yet (the endpoint then reports 503).
func NewServer(title, description string, statusFn StatusFunc, logger log.Logger) *Server {
	if logger == nil {
		logger = log.New()
	}
	logger = logger.New("module", "server")
	return &Server{
		Hub:         NewHub(logger),
		title:       title,
		description: description,
		status:      statusFn,
		logger:      logger,
	}
}

// ListenAndServe blocks serving the three routes on addr:port.
func (s *Server) ListenAndServe(addr, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveHome)
	mux.HandleFunc("/api/status", s.serveStatus)
	mux.HandleFunc("/ws", s.Hub.ServeWs)

	serverAddress := fmt.Sprintf("%s:%s", addr, port)
	s.logger.Info("starting http", "address", serverAddress)
	return http.ListenAndServe(serverAddress, mux)
}

var homeTempl = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
<p>Status: <a href="/api/status">/api/status</a></p>
<p>Live frames: <code>{{.WebSocketURL}}</code></p>
</body>
</html>`))

func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("new http connection", "remote", r.RemoteAddr)
	if r.URL.Path != "/" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = homeTempl.Execute(w, struct {
		Title        string
		Description  string
		WebSocketURL string
	}{s.title, s.description, "ws://" + r.Host + "/ws"})
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.status == nil {
		http.Error(w, "no scenario running", http.StatusServiceUnavailable)
		return
	}
	data, err := s.status()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}

// PublishFrame pushes one already-marshalled frame payload to every
// websocket subscriber. scenario.Driver calls it once per recorded frame
// after a controller family's run has finished; a nil Server or nil Hub is
// a silent no-op.
func (s *Server) PublishFrame(payload []byte) {
	if s == nil || s.Hub == nil {
		return
	}
	s.Hub.Publish(payload)
}
