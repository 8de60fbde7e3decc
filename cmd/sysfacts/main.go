package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"sysfacts/internal/config"
	"sysfacts/internal/engine"
	"sysfacts/internal/facts"
	"sysfacts/internal/logging"
)

var (
	configPath   string
	customDirs   []string
	externalDirs []string
	debug        bool
	jsonOutput   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sysfacts [fact...]",
	Short: "sysfacts - gather and resolve system facts",
	Long: `sysfacts gathers machine facts from built-in probes, static fact
files (YAML, JSON, key=value text, executables) and custom fact scripts
evaluated in an embedded Go interpreter.

With fact names as arguments it prints those facts; without arguments it
resolves and prints every fact.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args)
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sysfacts version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(engine.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringArrayVar(&customDirs, "custom-dir", nil, "directory to search for custom fact scripts (repeatable)")
	rootCmd.PersistentFlags().StringArrayVar(&externalDirs, "external-dir", nil, "directory to search for external fact files (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print facts as JSON instead of YAML")
	rootCmd.AddCommand(versionCmd)
}

func run(args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger, err = logging.New(level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	collection := facts.NewCollection(logger, facts.DefaultProbers()...)
	runtime, err := engine.New(logger, collection, engine.Options{
		LoadPath:    cfg.LoadPath,
		SearchPaths: append(cfg.CustomDirs, customDirs...),
	})
	if err != nil {
		return err
	}
	defer runtime.Close()

	runtime.AddExternalSearchPath(cfg.ExternalDirs...)
	runtime.AddExternalSearchPath(externalDirs...)

	if len(args) == 1 {
		return printValue(runtime.Value(args[0]))
	}

	result := make(map[string]facts.Value)
	if len(args) > 1 {
		for _, name := range args {
			result[facts.NormalizeName(name)] = runtime.Value(name)
		}
	} else {
		result = runtime.ToMap()
	}
	return printMap(result)
}

func printValue(value facts.Value) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case string:
		fmt.Println(v)
		return nil
	default:
		return printStructured(value)
	}
}

func printMap(result map[string]facts.Value) error {
	return printStructured(result)
}

func printStructured(value interface{}) error {
	if jsonOutput {
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
