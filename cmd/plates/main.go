package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/config"
	"github.com/eugenenazirov/barbell-plates/internal/report"
	"github.com/eugenenazirov/barbell-plates/internal/storage"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

var version = "dev"

const (
	formatText = "text"
	formatJSON = "json"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "plates: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	kingpinApp := kingpin.New("plates", "Computes the plates to load on each side of the bar for a percentage of a one-rep max")
	kingpinApp.Version(version)
	oneRepMax := kingpinApp.Flag("one-rep-max", "One-rep max; missing or unparseable input counts as zero").Short('r').Default("").String()
	unit := kingpinApp.Flag("unit", "Unit of the one-rep max (kg or lb)").Short('u').Default(string(units.Kilogram)).String()
	percentage := kingpinApp.Flag("percentage", "Percentage of the one-rep max to load").Short('p').Default("75").Float64()
	bar := kingpinApp.Flag("bar", "Bar type").Short('b').Default(string(units.BarStandard)).String()
	format := kingpinApp.Flag("format", "Output format").Default(formatText).Enum(formatText, formatJSON)
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	coarsePlates := kingpinApp.Flag("coarse-plates", "Coarse plate inventory, e.g. lb:45,35,25,15,10").String()
	finePlates := kingpinApp.Flag("fine-plates", "Fine plate inventory, e.g. kg:2.5,2,1.5,1,0.5").String()
	storagePath := kingpinApp.Flag("storage-path", "Read plates from this SQLite database").String()

	if _, err := kingpinApp.Parse(args); err != nil {
		return err
	}

	overrides := &config.CLIOverrides{ConfigFile: *configFile}
	if *coarsePlates != "" {
		overrides.CoarsePlates = coarsePlates
	}
	if *finePlates != "" {
		overrides.FinePlates = finePlates
	}
	if *storagePath != "" {
		overrides.StoragePath = storagePath
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	setup, err := loadSetup(cfg)
	if err != nil {
		return err
	}

	parsedUnit, err := units.ParseUnit(*unit)
	if err != nil {
		return err
	}

	plan, err := calculator.New().Plan(calculator.Request{
		OneRepMax:  calculator.ParseWeight(*oneRepMax),
		Unit:       parsedUnit,
		Percentage: *percentage,
		Bar:        units.BarType(*bar),
	}, setup)
	if err != nil {
		return err
	}

	return render(stdout, report.New(plan), *format)
}

// loadSetup reads inventories from SQLite when a storage path is configured.
func loadSetup(cfg config.Config) (calculator.Setup, error) {
	setup := cfg.Setup()
	if cfg.StoragePath == "" {
		return setup, nil
	}

	store, err := storage.OpenSQLiteWithSeed(cfg.StoragePath, cfg.Inventories)
	if err != nil {
		return calculator.Setup{}, fmt.Errorf("open plate storage: %w", err)
	}
	defer store.Close()

	inv, err := store.GetInventories()
	if err != nil {
		return calculator.Setup{}, fmt.Errorf("read plates: %w", err)
	}
	setup.Inventories = inv
	return setup, nil
}

func render(w io.Writer, r report.Report, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := io.WriteString(w, r.Text())
	return err
}
