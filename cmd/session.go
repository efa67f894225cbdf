package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/usage-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/usage-tracker/internal/htmldom"
	"github.com/jonesrussell/north-cloud/usage-tracker/internal/metrics"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/dom"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/logger"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/tracker"
	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/transport"
)

// blankPage hosts manual events when no --page is given.
const blankPage = "<!doctype html><html><head></head><body></body></html>"

// pageFlags are shared by every command that hosts a tracker.
type pageFlags struct {
	page         string
	url          string
	beacon       bool
	printMetrics bool
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.page, "page", "", "HTML file to load as the host page (\"-\" reads stdin)")
	cmd.Flags().StringVar(&f.url, "url", "", "URL the page is served at (used for url and path properties)")
	cmd.Flags().BoolVar(&f.beacon, "beacon", false, "deliver through the beacon queue instead of authenticated POSTs")
	cmd.Flags().BoolVar(&f.printMetrics, "metrics", false, "print delivery counters when done")
}

// session owns a page, a tracker and the resources behind its transport.
type session struct {
	page     *htmldom.Page
	tracker  *tracker.Tracker
	queue    *transport.QueueBeacon
	registry *prometheus.Registry
	log      logger.Logger
	out      io.Writer
	metrics  bool
}

func newSession(cmd *cobra.Command, flags *pageFlags) (*session, error) {
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(cmd.Context())

	page, err := loadPage(cmd.InOrStdin(), flags.page, flags.url)
	if err != nil {
		return nil, err
	}

	s := &session{
		page:     page,
		registry: prometheus.NewRegistry(),
		log:      log,
		out:      cmd.OutOrStdout(),
		metrics:  flags.printMetrics,
	}

	var host dom.Document = page
	opts := []tracker.Option{
		tracker.WithLogger(log),
		tracker.WithRecorder(metrics.New(s.registry)),
		tracker.WithContext(cmd.Context()),
	}

	client := transport.NewClient(&transport.ClientConfig{Timeout: cfg.Transport.Timeout})
	if flags.beacon || cfg.Transport.Mode == config.TransportBeacon {
		s.queue = transport.NewQueueBeacon(client, cfg.Transport.BeaconQueueSize, log)
		host = page.WithBeacon(s.queue)
	} else {
		opts = append(opts, tracker.WithTransport(transport.NewHTTPTransport(client)))
	}

	s.tracker = tracker.New(cfg.ToTrackerConfig(), host, opts...)
	return s, nil
}

// close stops the tracker and waits for every in-flight event.
func (s *session) close() error {
	s.tracker.Stop()
	s.tracker.Wait()
	if s.queue != nil {
		s.queue.Close()
	}
	if !s.metrics {
		return nil
	}
	return writeMetrics(s.out, s.registry)
}

func loadPage(stdin io.Reader, path, location string) (*htmldom.Page, error) {
	var r io.Reader
	switch path {
	case "":
		r = strings.NewReader(blankPage)
	case "-":
		r = stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		r = f
	}

	page, err := htmldom.Load(r, location)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	return page, nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, writeErr := expfmt.MetricFamilyToText(w, mf); writeErr != nil {
			return fmt.Errorf("write metrics: %w", writeErr)
		}
	}
	return nil
}
