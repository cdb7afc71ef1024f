package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akashicode/pdfsect/internal/config"
	"github.com/akashicode/pdfsect/internal/display"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfsect",
	Short: "Split PDFs into clean, TOC-aligned sections.",
	Long: `pdfsect extracts text from PDF files, strips repeated page headers and
footers, drops parser noise and splits the result at table-of-contents titles.

Sections can be indexed for semantic search and served over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		display.ErrorMsg(err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.pdfsect/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print extraction details")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(outlineCmd)
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			display.Warn(fmt.Sprintf("could not determine home directory: %v", err))
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".pdfsect"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err != nil {
		// config.yaml is optional; an explicit --config must exist
		if cfgFile != "" {
			display.Warn(fmt.Sprintf("read config %q: %v", cfgFile, err))
		}
	}
}

// logger returns the slog logger handed to the extraction pipeline.
func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(display.NewHandler(display.Out, slog.LevelDebug))
}
