package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/ratio-dashboard/internal/config"
	"github.com/iwvelando/ratio-dashboard/internal/logging"
	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/internal/store"
	"github.com/iwvelando/ratio-dashboard/pkg/constants"
	"github.com/iwvelando/ratio-dashboard/pkg/output"
	"github.com/iwvelando/ratio-dashboard/pkg/validation"
	"go.uber.org/zap"
)

// fieldEdit is one -set field=value pair.
type fieldEdit struct {
	field ratios.Field
	raw   string
}

type editFlags []fieldEdit

func (e *editFlags) String() string {
	parts := make([]string, 0, len(*e))
	for _, edit := range *e {
		parts = append(parts, string(edit.field)+"="+edit.raw)
	}
	return strings.Join(parts, ",")
}

func (e *editFlags) Set(value string) error {
	name, raw, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected field=value, got %q", value)
	}
	field, err := ratios.ParseField(name)
	if err != nil {
		return err
	}
	*e = append(*e, fieldEdit{field: field, raw: raw})
	return nil
}

func main() {
	var edits editFlags

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", "", "optional .env file with RATIO_* overrides")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Var(&edits, "set", "input edit applied in order, e.g. -set revenue=120000 (repeatable)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = strings.ToLower(*outputFormatFlag)
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	policy, err := conf.TrendPolicy()
	if err != nil {
		logger.Fatal("failed to build trend policy",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	inputs := store.New(logging.Named(logger, "store"), conf.Inputs)
	unsubscribe := inputs.Subscribe(func(in ratios.FinancialInputs, res ratios.RatioResult) {
		logger.Debug("ratios recomputed",
			zap.String("op", "main"),
			zap.Float64("currentRatio", res.CurrentRatio),
			zap.Float64("netMargin", res.NetMargin),
		)
	})
	for _, edit := range edits {
		inputs.SetField(edit.field, edit.raw)
	}
	unsubscribe()

	report := output.NewReport(inputs.Snapshot(), policy, conf.CurrencySymbol)

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, report)
	case constants.OutputFormatCSV:
		output.CsvFormat(os.Stdout, report)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(os.Stdout, report); err != nil {
			logger.Fatal("failed to write JSON report",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
