// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs a source end to end: fetch, read, normalize, filter,
// deduplicate, serialize and store. A source that cannot be retrieved or
// parsed degrades to an empty artifact instead of failing the run.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ATorbado/leon-radares/config"
	"github.com/ATorbado/leon-radares/metrics"
	"github.com/ATorbado/leon-radares/normalize"
	"github.com/ATorbado/leon-radares/output"
	"github.com/ATorbado/leon-radares/sink"
	"github.com/ATorbado/leon-radares/sources"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher retrieves the payload of a source.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*sources.Payload, error)
}

// Result summarizes one source run.
type Result struct {
	Source     string
	Records    int            // raw records read
	Normalized int            // records mapped into entries
	Entries    int            // entries in the artifact
	Dropped    map[string]int // by reason, see metrics.Dropped*
	Failure    *Failure       // nil when the source was retrieved and parsed
	Duration   time.Duration
	Artifact   *sink.Artifact
}

// Pipeline orchestrates the per source run.
type Pipeline struct {
	mu      sync.Mutex // one run at a time
	fetcher Fetcher
	sink    sink.Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
	clock   clockwork.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger, zap.L() by default.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics, a private set by default.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock sets the time source for run timestamps and month windows.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline fetching with f and storing into s.
func New(f Fetcher, s sink.Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: f,
		sink:    s,
		logger:  zap.L(),
		clock:   clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.metrics == nil {
		p.metrics = metrics.New()
	}

	return p
}

// Run processes src. Retrieval and parse failures are reported in the result
// and still produce an empty artifact; the returned error is reserved for
// misconfiguration, storage failures and cancellation of ctx, in which case
// the previous artifact is left untouched. Concurrent calls are serialized.
func (p *Pipeline) Run(ctx context.Context, src *config.Source) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := src.Validate(); err != nil {
		return nil, err
	}

	reader, err := sources.Lookup(src.Kind)
	if err != nil {
		return nil, eris.Wrapf(err, "source %s", src.Name)
	}

	mapping, err := normalize.MappingFor(src.MappingName())
	if err != nil {
		return nil, eris.Wrapf(err, "source %s", src.Name)
	}

	start := p.clock.Now()

	filter, err := NewFilter(src, start)
	if err != nil {
		return nil, err
	}

	log := p.logger.With(zap.String("source", src.Name))
	res := &Result{Source: src.Name, Dropped: make(map[string]int)}

	entries, failure := p.collect(ctx, src, reader, mapping, filter, start, res)
	if err := ctx.Err(); err != nil {
		log.Warn("run interrupted, previous artifact kept", zap.Error(err))
		return nil, eris.Wrapf(err, "run of %s interrupted", src.Name)
	}

	if failure != nil {
		res.Failure = failure
		entries = nil

		p.metrics.Failures.WithLabelValues(src.Name, failure.Kind.String()).Inc()
		log.Warn("source degraded to an empty artifact",
			zap.Stringer("kind", failure.Kind),
			zap.Bool("timeout", IsTimeout(failure)),
			zap.Error(failure.Err))
	}

	data, err := output.RenderSource(entries, src)
	if err != nil {
		return res, eris.Wrapf(err, "rendering %s", src.Name)
	}

	res.Entries = len(entries)
	res.Artifact = &sink.Artifact{
		Source:    *src,
		Data:      data,
		Entries:   entries,
		Generated: start.UTC(),
	}

	for reason, n := range res.Dropped {
		p.metrics.Dropped.WithLabelValues(src.Name, reason).Add(float64(n))
	}

	p.metrics.Entries.WithLabelValues(src.Name).Add(float64(res.Entries))

	if err := p.sink.Write(ctx, res.Artifact); err != nil {
		return res, eris.Wrapf(err, "storing %s", src.Name)
	}

	if failure == nil {
		p.metrics.LastSuccess.WithLabelValues(src.Name).Set(float64(start.Unix()))
	}

	res.Duration = p.clock.Since(start)
	log.Info("source done",
		zap.Int("records", res.Records),
		zap.Int("entries", res.Entries),
		zap.String("output", src.Output),
		zap.Duration("duration", res.Duration))

	return res, nil
}

func (p *Pipeline) collect(
	ctx context.Context,
	src *config.Source,
	reader sources.Reader,
	mapping *normalize.Mapping,
	filter *Filter,
	now time.Time,
	res *Result,
) ([]*normalize.Entry, *Failure) {
	fetchCtx := ctx

	if src.Timeout > 0 {
		var cancel context.CancelFunc

		fetchCtx, cancel = context.WithTimeout(ctx, src.Timeout)
		defer cancel()
	}

	fetchStart := p.clock.Now()
	payload, err := p.fetcher.Fetch(fetchCtx, src.URL)
	p.metrics.FetchDuration.WithLabelValues(src.Name).Observe(p.clock.Since(fetchStart).Seconds())

	if err != nil {
		return nil, &Failure{Kind: KindRetrieval, Source: src.Name, Err: err}
	}

	p.metrics.FetchBytes.WithLabelValues(src.Name).Add(float64(len(payload.Body)))

	records, err := reader.Read(*payload)
	if err != nil {
		return nil, &Failure{Kind: KindParse, Source: src.Name, Err: err}
	}

	res.Records = len(records)
	p.metrics.Records.WithLabelValues(src.Name).Add(float64(len(records)))

	n := &normalize.Normalizer{
		Mapping:   mapping,
		Source:    src.Name,
		IDPrefix:  src.IDPrefix,
		Authority: src.Authority,
		SourceURL: publicURL(src.URL),
		Now:       now,
	}

	entries := make([]*normalize.Entry, 0, len(records))

	for _, rec := range records {
		e, ok := n.Normalize(rec)
		if !ok {
			res.Dropped[metrics.DroppedEmpty]++
			continue
		}

		entries = append(entries, e)
	}

	res.Normalized = len(entries)

	entries, dropped := filter.Apply(entries)
	for reason, c := range dropped {
		res.Dropped[reason] += c
	}

	before := len(entries)
	entries = Dedup(entries)

	if d := before - len(entries); d > 0 {
		res.Dropped[metrics.DroppedDuplicate] += d
	}

	return entries, nil
}

// publicURL hides local file locations from the provenance of entries.
func publicURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}

	return ""
}

// RunAll runs every source of the catalog sequentially. Degraded sources do
// not stop the run; storage failures are collected and returned once every
// source had its chance. progress, when not nil, is called after each source
// with its result, nil if the source could not run at all.
func (p *Pipeline) RunAll(
	ctx context.Context,
	catalog config.Catalog,
	progress func(*config.Source, *Result),
) ([]*Result, error) {
	results := make([]*Result, 0, len(catalog))

	var errs []error

	for i := range catalog {
		if err := ctx.Err(); err != nil {
			errs = append(errs, eris.Wrap(err, "run interrupted"))
			break
		}

		res, err := p.Run(ctx, &catalog[i])
		if err != nil {
			p.logger.Error("source failed", zap.String("source", catalog[i].Name), zap.Error(err))
			errs = append(errs, err)
		}

		if res != nil {
			results = append(results, res)
		}

		if progress != nil {
			progress(&catalog[i], res)
		}
	}

	return results, errors.Join(errs...)
}
