package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/dbehnke/p25cai/internal/aliassync"
	"github.com/dbehnke/p25cai/internal/config"
	"github.com/dbehnke/p25cai/internal/database"
	"github.com/dbehnke/p25cai/internal/framer"
	"github.com/dbehnke/p25cai/internal/lookup"
	"github.com/dbehnke/p25cai/internal/metrics"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
	"github.com/dbehnke/p25cai/internal/sink"
	"github.com/dbehnke/p25cai/internal/source"
	"github.com/dbehnke/p25cai/internal/trunking"
	"github.com/dbehnke/p25cai/internal/vocoder"
)

const (
	VERSION = "1.0.0"

	readSize      = 480 // 100 ms of symbols
	statsInterval = time.Minute
)

// Decoder wires the framer to its outputs.
type Decoder struct {
	config  *config.Config
	logger  *log.Logger
	session string

	framer     *framer.Framer
	dispatcher *sink.Dispatcher
	system     *trunking.System
	lookup     lookup.AliasLookup
	metrics    *metrics.Metrics
	websocket  *sink.WebSocketSink
	httpServer *http.Server

	// Database components (when database mode is enabled)
	db     *database.DB
	syncer *aliassync.Syncer
}

// NewDecoder builds the decoder and opens every enabled output.
func NewDecoder(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Decoder, error) {
	d := &Decoder{
		config:  cfg,
		logger:  logger,
		session: uuid.New().String(),
		framer:  framer.New(logger, cfg.GetNAC()),
	}
	d.system = trunking.NewSystem(logger, func(frequency uint64, group uint16) {
		d.logger.Debug("voice grant", "frequency", trunking.FormatMHz(frequency), "group", d.groupName(group))
	})

	d.lookup, d.db, d.syncer = initializeLookup(ctx, cfg, logger)

	sinks, err := d.buildSinks(ctx)
	if err != nil {
		d.closeStorage()
		return nil, err
	}
	d.dispatcher = sink.NewDispatcher(ctx, logger, int(cfg.GetQueueSize()), sinks...)

	if cfg.GetMetricsEnabled() {
		d.metrics = metrics.New(metrics.Sources{
			Framer:     d.framer.Stats,
			Dispatcher: d.dispatcher.Stats,
			System:     d.system.Stats,
			Lookup:     d.lookup,
		})
		d.startHTTP()
	}
	return d, nil
}

func (d *Decoder) groupName(group uint16) string {
	if d.lookup == nil {
		return fmt.Sprint(group)
	}
	return d.lookup.Name(lookup.Group, uint32(group))
}

func (d *Decoder) buildSinks(ctx context.Context) ([]sink.Sink, error) {
	cfg := d.config
	desc := sink.Describer{Session: d.session, Lookup: d.lookup}
	sinks := []sink.Sink{
		sink.NewLogSink(d.logger, desc),
		sink.NewTrunkingSink(d.system, d.logger),
	}
	fail := func(err error) ([]sink.Sink, error) {
		for _, s := range sinks {
			s.Close()
		}
		return nil, err
	}

	if cfg.GetUDPEnabled() {
		s, err := sink.NewUDPSink(cfg.GetUDPAddress(), int(cfg.GetUDPPort()), d.logger)
		if err != nil {
			return fail(fmt.Errorf("udp output: %w", err))
		}
		sinks = append(sinks, s)
	}

	if cfg.GetVoiceEnabled() {
		s, err := sink.NewVoiceSink(cfg.GetVoiceAddress(), int(cfg.GetVoicePort()), d.logger)
		if err != nil {
			return fail(fmt.Errorf("voice output: %w", err))
		}
		sinks = append(sinks, s)
	}

	if path := cfg.GetAudioFile(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fail(fmt.Errorf("audio output: %w", err))
		}
		sinks = append(sinks, sink.NewAudioSink(f, vocoder.Silence{}))
	}

	if cfg.GetMQTTEnabled() {
		mqttCfg := sink.MQTTConfig{
			Broker:   cfg.GetMQTTBroker(),
			ClientID: cfg.GetMQTTClientID(),
			Username: cfg.GetMQTTUsername(),
			Password: cfg.GetMQTTPassword(),
			Topic:    cfg.GetMQTTTopic(),
			QoS:      cfg.GetMQTTQoS(),
			Retain:   cfg.GetMQTTRetain(),
		}
		client, err := sink.DialMQTT(mqttCfg, d.logger)
		if err != nil {
			return fail(fmt.Errorf("mqtt output: %w", err))
		}
		sinks = append(sinks, sink.NewMQTTSink(client, mqttCfg, desc))
	}

	if d.db != nil {
		s := sink.NewDatabaseSink(database.NewFrameRepository(d.db.GetDB()), desc)
		s.Payload = cfg.GetDatabasePayload()
		sinks = append(sinks, s)
	}

	if cfg.GetMetricsEnabled() && cfg.GetWebSocket() {
		d.websocket = sink.NewWebSocketSink(desc, d.logger)
		sinks = append(sinks, d.websocket)
	}
	return sinks, nil
}

func (d *Decoder) startHTTP() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics.Handler())
	if d.websocket != nil {
		mux.Handle("/ws", d.websocket)
	}
	d.httpServer = &http.Server{
		Addr:              d.config.GetMetricsAddress(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		d.logger.Info("http listening", "address", d.httpServer.Addr)
		if err := d.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("http server failed", "err", err)
		}
	}()
}

// Run decodes the configured input until it ends or ctx is cancelled.
func (d *Decoder) Run(ctx context.Context) error {
	src, closer, err := source.Open(d.config.GetInputFile(), d.config.GetInputFormat())
	if err != nil {
		return err
	}
	defer closer.Close()

	read := src.Read
	if d.config.GetRealtime() {
		pacer := source.NewPacer(src, source.SymbolRate)
		read = func(p []uint8) (int, error) { return pacer.Read(ctx, p) }
	}

	d.logger.Info("decoding", "input", d.config.GetInputFile(), "format", d.config.GetInputFormat(),
		"nac", fmt.Sprintf("%03x", d.config.GetNAC()), "session", d.session)

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	buf := make([]uint8, readSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.printStats()
		default:
		}

		n, err := read(buf)
		d.feed(buf[:n])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
	}
}

func (d *Decoder) feed(dibits []uint8) {
	if d.metrics != nil {
		d.metrics.Symbols.Add(float64(len(dibits)))
	}
	for _, s := range dibits {
		frame, err := d.framer.Receive(s)
		if err != nil {
			d.logger.Warn("framer", "err", err)
			continue
		}
		if frame != nil {
			d.submit(frame)
		}
	}
}

func (d *Decoder) submit(f p25.Frame) {
	if ok, err := d.dispatcher.Submit(f); err != nil {
		d.logger.Error("submit", "err", err)
	} else if !ok {
		d.logger.Debug("sink queue full, frame dropped", "type", f.Info().DUID)
	}
}

func (d *Decoder) printStats() {
	fs := d.framer.Stats()
	ds := d.dispatcher.Stats()
	d.logger.Info("stats",
		"syncs", fs.Syncs,
		"frames", fs.TotalFrames(),
		"nid_failures", fs.NIDFailures,
		"fec_failures", fs.FECFailures,
		"dropped", ds.Dropped)
}

// Close flushes the outputs and releases every resource.
func (d *Decoder) Close() error {
	d.printStats()
	err := d.dispatcher.Close()
	if d.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.httpServer.Shutdown(ctx); err != nil {
			d.logger.Error("http shutdown", "err", err)
		}
	}
	d.closeStorage()
	d.logger.Info("system\n" + d.system.String())
	return err
}

func (d *Decoder) closeStorage() {
	if d.lookup != nil {
		d.lookup.Stop()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			d.logger.Error("close database", "err", err)
		}
	}
}

// initializeLookup creates either a database-backed or file-based alias
// lookup. The database is returned when database mode is enabled, together
// with the alias importer when a source is configured.
func initializeLookup(ctx context.Context, cfg *config.Config, logger *log.Logger) (lookup.AliasLookup, *database.DB, *aliassync.Syncer) {
	if !cfg.GetDatabaseEnabled() {
		return initializeFileLookup(cfg, logger), nil, nil
	}

	db, err := database.NewDB(database.Config{Path: cfg.GetDatabasePath()}, logger)
	if err != nil {
		logger.Error("failed to initialize database, falling back to file lookup", "err", err)
		return initializeFileLookup(cfg, logger), nil, nil
	}
	repo := database.NewAliasRepository(db.GetDB())

	if path := cfg.GetLookupFile(); path != "" {
		if f, err := lookup.Load(path); err != nil {
			logger.Warn("alias file not imported", "file", path, "err", err)
		} else if err := repo.UpsertBatch(f.Aliases()); err != nil {
			logger.Warn("alias file not imported", "file", path, "err", err)
		}
	}

	dbLookup := lookup.NewDatabaseLookup(repo, lookup.DatabaseConfig{
		EnableCache: true,
		CacheSize:   int(cfg.GetDatabaseCacheSize()),
		CacheExpiry: 5 * time.Minute,
	}, logger)
	if err := dbLookup.Start(); err != nil {
		logger.Warn("database lookup not started", "err", err)
	}

	var syncer *aliassync.Syncer
	if src := cfg.GetLookupSource(); src != "" {
		syncer, err = aliassync.NewSyncer(repo, logger, aliassync.Config{
			Source:       src,
			Kind:         cfg.GetLookupKind(),
			SyncInterval: cfg.GetLookupSyncInterval(),
		})
		if err != nil {
			logger.Error("alias import disabled", "err", err)
		} else {
			go syncer.Start(ctx)
		}
	}

	logger.Info("database lookup initialized", "path", cfg.GetDatabasePath(), "entries", dbLookup.GetEntryCount())
	return dbLookup, db, syncer
}

// initializeFileLookup creates the YAML file lookup, or nil when no file
// is configured.
func initializeFileLookup(cfg *config.Config, logger *log.Logger) lookup.AliasLookup {
	if cfg.GetLookupFile() == "" {
		logger.Debug("alias lookup disabled")
		return nil
	}
	l := lookup.NewFileLookup(cfg.GetLookupFile(), cfg.GetLookupReload(), logger)
	if err := l.Start(); err != nil {
		logger.Warn("alias file not loaded", "file", cfg.GetLookupFile(), "err", err)
		return nil
	}
	return l
}

func getDefaultConfig() string {
	// Check for config file in current directory first
	if _, err := os.Stat("p25cai.ini"); err == nil {
		return "p25cai.ini"
	}

	// Check system location
	systemConfig := "/etc/p25cai.ini"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig
	}
	return ""
}

func newLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           lvl,
		Prefix:          "p25",
	})
}

func main() {
	var (
		configFile = pflag.StringP("config", "c", getDefaultConfig(), "Configuration file path.")
		input      = pflag.StringP("input", "i", "", "Input capture file, - for standard input.")
		format     = pflag.StringP("format", "f", "", "Input format: dibit or float.")
		debug      = pflag.BoolP("debug", "d", false, "Debug logging.")
		realtime   = pflag.Bool("realtime", false, "Pace the input at 4800 symbols per second.")
		nac        = pflag.Uint16("nac", 0, "Only decode frames with this NAC (0 for all).")
		version    = pflag.BoolP("version", "v", false, "Show version information.")
		generate   = pflag.String("generate", "", "Write a reference dibit capture to this file (- for standard output) and exit.")
	)
	pflag.Parse()

	if *version {
		fmt.Printf("p25decode v%s\n", VERSION)
		return
	}

	if *generate != "" {
		n, err := generateFile(*generate, *nac)
		if err != nil {
			fmt.Fprintf(os.Stderr, "p25decode: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "p25decode: wrote %d dibits\n", n)
		return
	}

	cfg := config.NewConfig(*configFile)
	if *configFile != "" {
		if err := cfg.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "p25decode: %v\n", err)
			os.Exit(1)
		}
	}

	// Command line flags override the file
	if pflag.CommandLine.Changed("input") {
		cfg.SetInputFile(*input)
	}
	if pflag.CommandLine.Changed("format") {
		cfg.SetInputFormat(*format)
	}
	if *debug {
		cfg.SetDebug(true)
	}
	if *realtime {
		cfg.SetRealtime(true)
	}
	if pflag.CommandLine.Changed("nac") {
		cfg.SetNAC(*nac)
	}

	logger := newLogger(cfg.GetLogLevel())
	log.SetDefault(logger)
	logger.Info("p25decode starting", "version", VERSION, "config", *configFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	decoder, err := NewDecoder(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create decoder", "err", err)
	}

	runErr := decoder.Run(ctx)
	if err := decoder.Close(); err != nil {
		logger.Warn("outputs closed with errors", "err", err)
	}
	if runErr != nil {
		logger.Fatal("decoder stopped", "err", runErr)
	}
	logger.Info("p25decode stopped")
}
