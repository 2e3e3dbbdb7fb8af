// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the generated artifacts over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/metrics"
	"github.com/ATorbado/leon-radares/pipeline"
	"github.com/ATorbado/leon-radares/sink"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Runner runs a single source, see pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, src *config.Source) (*pipeline.Result, error)
}

// Server serves the artifacts of a catalog from a file store.
type Server struct {
	catalog config.Catalog
	store   *sink.FileStore
	runner  Runner // nil disables refreshes
	running sync.Mutex
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewServer creates a server. runner and m may be nil.
func NewServer(catalog config.Catalog, store *sink.FileStore, runner Runner, m *metrics.Metrics) *Server {
	return &Server{
		catalog: catalog,
		store:   store,
		runner:  runner,
		metrics: m,
		logger:  zap.L().Named("server"),
	}
}

// SourceStatus describes a source and the state of its artifact.
type SourceStatus struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Format      string    `json:"format"`
	Output      string    `json:"output"`
	Available   bool      `json:"available"`
	Size        int64     `json:"size,omitempty"`
	ModTime     time.Time `json:"mod_time,omitzero"`
}

// RefreshResponse summarizes an on-demand source run.
type RefreshResponse struct {
	Source   string         `json:"source"`
	Records  int            `json:"records"`
	Entries  int            `json:"entries"`
	Dropped  map[string]int `json:"dropped,omitempty"`
	Failure  string         `json:"failure,omitempty"`
	Duration string         `json:"duration"`
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.healthz)
	r.GET("/api/sources", s.listSources)
	r.GET("/api/sources/:source", s.getArtifact)
	r.POST("/api/sources/:source/refresh", s.refresh)

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "sources": len(s.catalog)})
}

func (s *Server) status(src *config.Source) SourceStatus {
	st := SourceStatus{
		Name:        src.Name,
		Kind:        src.Kind,
		Description: src.Description,
		Format:      string(src.Format),
		Output:      src.Output,
	}

	path, err := s.store.Path(src.Output)
	if err != nil {
		return st
	}

	if fi, err := os.Stat(path); err == nil {
		st.Available = true
		st.Size = fi.Size()
		st.ModTime = fi.ModTime().UTC()
	}

	return st
}

func (s *Server) listSources(ctx *gin.Context) {
	ret := make([]SourceStatus, 0, len(s.catalog))
	for i := range s.catalog {
		ret = append(ret, s.status(&s.catalog[i]))
	}

	ctx.JSON(http.StatusOK, ret)
}

func (s *Server) lookup(ctx *gin.Context) (*config.Source, bool) {
	src, err := s.catalog.Find(ctx.Param("source"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}

	return src, true
}

func (s *Server) getArtifact(ctx *gin.Context) {
	src, ok := s.lookup(ctx)
	if !ok {
		return
	}

	path, err := s.store.Path(src.Output)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "artifact not generated yet", "source": src.Name})
		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := "application/json; charset=utf-8"
	if src.Format == config.FormatGeoJSON {
		contentType = "application/geo+json; charset=utf-8"
	}

	ctx.Data(http.StatusOK, contentType, data)
}

func (s *Server) refresh(ctx *gin.Context) {
	if s.runner == nil {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "refresh is disabled"})
		return
	}

	src, ok := s.lookup(ctx)
	if !ok {
		return
	}

	if !s.running.TryLock() {
		ctx.JSON(http.StatusConflict, gin.H{"error": "a refresh is already running", "source": src.Name})
		return
	}
	defer s.running.Unlock()

	// A client that hangs up must not abort the run halfway.
	res, err := s.runner.Run(context.WithoutCancel(ctx.Request.Context()), src)
	if err != nil {
		s.logger.Error("refresh failed", zap.String("source", src.Name), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	resp := RefreshResponse{
		Source:   res.Source,
		Records:  res.Records,
		Entries:  res.Entries,
		Dropped:  res.Dropped,
		Duration: res.Duration.String(),
	}

	if res.Failure != nil {
		resp.Failure = res.Failure.Error()
	}

	ctx.JSON(http.StatusOK, resp)
}
