// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-image-extract CLI. It saves
// every embedded raster image of a PDF as page<N>_img<M>.<format> in an
// output folder.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-image-extract/internal/secrets"
	"github.com/pdiddy/pdf-image-extract/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	appName   = "pdf-image-extract"
	envPrefix = "PDF_IMAGE_EXTRACT"
	usageLine = "Usage: " + appName + " <pdf_path> <output_folder> <image_format>"
)

// Config keys, each bound to the flag of the same name with dashes.
const (
	keyStrict      = "strict"
	keyVerbose     = "verbose"
	keyJPEGQuality = "jpeg_quality"
	keyPassword    = "password"
	keySecretsDir  = "secrets_dir"
	keyReport      = "report"
	keyCatalog     = "catalog"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code. The
// contract lines go to stdout; diagnostics go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil {
		log.Error().Err(err).Int("exit", code).Msg(appName + " failed")
	}
	return code
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   appName + " <pdf_path> <output_folder> <image_format>",
		Short: "Extract embedded images from a PDF",
		Long: `pdf-image-extract opens a PDF, walks its pages in order and saves every
embedded raster image as <output_folder>/page<N>_img<M>.<image_format>.

Images with four or more channels (CMYK, RGBA) are converted to RGB before
saving. Supported formats: png, jpg, jpeg, bmp.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				fmt.Fprintln(stdout, usageLine)
				return exitError{code: exitUsage, err: fmt.Errorf("expected 3 arguments, got %d", len(args))}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, args, stdout)
			if err != nil {
				return err
			}
			return runExtract(cmd.Context(), cfg, stdout)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default: ./"+appName+".yaml or ~/.config/"+appName+"/"+appName+".yaml)")
	cmd.Flags().BoolP("verbose", "v", false, "log per-page and per-image details to stderr")
	cmd.Flags().Bool("strict", false, "exit with a non-zero status when the PDF does not exist")
	cmd.Flags().Int("jpeg-quality", types.DefaultJPEGQuality, "quality (1-100) for jpg and jpeg output")
	cmd.Flags().String("password", "", "password for encrypted PDFs (default: .secrets/pdf-password)")
	cmd.Flags().String("secrets-dir", ".secrets/", "directory of secret files")
	cmd.Flags().String("report", "", "write a run report to this path (.json for JSON, YAML otherwise)")
	cmd.Flags().String("catalog", "", "record saved images in this SQLite database")

	return cmd
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range []string{keyStrict, keyVerbose, keyJPEGQuality, keyPassword, keySecretsDir, keyReport, keyCatalog} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(strings.ReplaceAll(key, "_", "-"))); err != nil {
			return fmt.Errorf("binding flag %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return exitError{code: exitUsage, err: fmt.Errorf("reading config %s: %w", cfgFile, err)}
		}
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("using config file")
	}

	if v.GetBool(keyVerbose) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return nil
}

// secretDefault returns fallback when it is set, otherwise the secret stored
// under key in the configured secrets directory.
func secretDefault(v *viper.Viper, key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	value, err := secrets.Read(v.GetString(keySecretsDir), key)
	if err != nil {
		log.Warn().Err(err).Msg("secret not loaded")
		return ""
	}
	if value != "" {
		log.Debug().Str("secret", key).Msg("loaded secret")
	}
	return value
}

// loadConfig validates the positional arguments and resolves the remaining
// settings. An unsupported format is reported on stdout before anything
// touches the filesystem.
func loadConfig(v *viper.Viper, args []string, stdout io.Writer) (types.ExtractionConfig, error) {
	format, err := types.ParseImageFormat(args[2])
	if err != nil {
		names := make([]string, len(types.SupportedFormats))
		for i, f := range types.SupportedFormats {
			names[i] = string(f)
		}
		fmt.Fprintf(stdout, "Error: Unsupported image format. Supported formats: %s.\n", strings.Join(names, ", "))
		return types.ExtractionConfig{}, exitError{code: exitUsage, err: err}
	}

	password := secretDefault(v, secrets.KeyPDFPassword, v.GetString(keyPassword))

	return types.ExtractionConfig{
		PDFPath:     args[0],
		OutputDir:   args[1],
		Format:      format,
		JPEGQuality: v.GetInt(keyJPEGQuality),
		Password:    password,
		Strict:      v.GetBool(keyStrict),
		ReportPath:  v.GetString(keyReport),
		CatalogPath: v.GetString(keyCatalog),
	}, nil
}
