package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"scarastylus/core"
	"scarastylus/host/daemon"
	"scarastylus/host/logging"
	"scarastylus/host/maestro"
	"scarastylus/host/serial"
	"scarastylus/host/sim"
	"scarastylus/scara"
	"scarastylus/scara/config"
	"scarastylus/scara/kinematics"
	"scarastylus/scara/manager"
)

var (
	configPath  = flag.String("config", "", "YAML config file (defaults when empty)")
	device      = flag.String("device", "", "Command port: serial device path or - for stdin/stdout")
	baud        = flag.Int("baud", 0, "Command port baud rate")
	stepsPerMM  = flag.Float64("steps-per-mm", 0, "Path interpolation density")
	slideLength = flag.Float64("slide-length", 0, "Slide length in mm")
	backend     = flag.String("backend", "sim", "Servo backend: sim or maestro")
	servoDevice = flag.String("servo-device", "/dev/ttyACM0", "Maestro command port")
	servoBaud   = flag.Int("servo-baud", 115200, "Maestro baud rate")
	compact     = flag.Bool("compact", true, "Use the Maestro compact protocol")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	printConfig = flag.Bool("print-config", false, "Print the effective config as YAML and exit")
)

func main() {
	flag.Parse()

	logger, err := logging.NewLogger("scara-host", *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("exiting", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if *printConfig {
		out, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Serial.Device == "" {
		return fmt.Errorf("no command port: set serial.device or -device")
	}

	driver, closeDriver, err := openDriver(logger, cfg)
	if err != nil {
		return err
	}
	defer closeDriver()

	debug := core.NewDebug(logging.DebugWriter(logger.Named("core")))
	defer debug.DumpRing()

	mgr, err := manager.NewManager(cfg, driver, clock.New(), debug)
	if err != nil {
		return err
	}
	if err := mgr.Initialize(); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	port, err := serial.Open(&serial.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: 100,
	})
	if err != nil {
		return err
	}

	logger.Info("serving",
		zap.String("device", cfg.Serial.Device),
		zap.Int("baud", cfg.Serial.Baud),
		zap.String("backend", *backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(logger, port, mgr, daemon.Options{
		Poll:      cfg.Timing.Poll,
		ExitOnEOF: cfg.Serial.Device == serial.StdioDevice,
	})
	err = d.Run(ctx)

	st := mgr.Stats()
	logger.Info("stopped",
		zap.Uint32("commands", st.Commands),
		zap.Uint32("slides", st.Slides),
		zap.Uint32("unknown", st.Unknown),
		zap.Uint32("failures", st.Failures),
	)
	return err
}

// loadConfig reads the config file, if any, and applies flags that were set
func loadConfig() (*scara.Config, error) {
	cfg := scara.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfigFile(*configPath)
		if err != nil {
			return nil, err
		}
	}

	var o config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			o.Device = device
		case "baud":
			o.Baud = baud
		case "steps-per-mm":
			o.StepsPerMM = stepsPerMM
		case "slide-length":
			o.SlideLength = slideLength
		}
	})
	o.Apply(cfg)
	return cfg, nil
}

func openDriver(logger *zap.Logger, cfg *scara.Config) (core.ServoDriver, func(), error) {
	switch *backend {
	case "sim":
		kin, err := kinematics.NewFiveBar(cfg.Geometry)
		if err != nil {
			return nil, nil, err
		}
		return sim.New(logger.Named("sim"), kin, cfg.Servos), func() {}, nil

	case "maestro":
		port, err := serial.Open(&serial.Config{
			Device:      *servoDevice,
			Baud:        *servoBaud,
			ReadTimeout: 100,
		})
		if err != nil {
			return nil, nil, err
		}
		ctrl := maestro.NewController(port, cfg.Servos, maestro.DefaultDevice, *compact)
		if err := ctrl.Check(); err != nil {
			logger.Warn("maestro reported errors", zap.Error(err))
		}
		return ctrl, func() { port.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", *backend)
	}
}
