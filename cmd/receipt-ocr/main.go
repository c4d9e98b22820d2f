package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/rs/zerolog/log"

	"github.com/zombor/receipt-ocr/internal/logger"
	"github.com/zombor/receipt-ocr/internal/receipt"
	"github.com/zombor/receipt-ocr/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// backendFlags configure the OCR backend and logging for every command
type backendFlags struct {
	backend     *string
	tessdata    *string
	geminiKey   *string
	geminiModel *string
	ollamaURL   *string
	ollamaModel *string
	logLevel    *string
	logFormat   *string
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootFlags := ff.NewFlagSet("receipt-ocr")
	flags := backendFlags{
		backend:     rootFlags.StringLong("backend", "tesseract", "OCR backend: 'tesseract', 'gemini' or 'ollama'"),
		tessdata:    rootFlags.StringLong("tessdata", "", "Tesseract language data directory (optional)"),
		geminiKey:   rootFlags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel: rootFlags.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name"),
		ollamaURL:   rootFlags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL"),
		ollamaModel: rootFlags.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, qwen2.5vl, minicpm-v)"),
		logLevel:    rootFlags.StringLong("log-level", "info", "Log level: trace, debug, info, warn, error"),
		logFormat:   rootFlags.StringLong("log-format", "console", "Log format: 'console' or 'json'"),
	}
	showVersion := rootFlags.BoolLong("version", "Show version information")

	serveFlags := ff.NewFlagSet("serve").SetParent(rootFlags)
	port := serveFlags.IntLong("port", 8080, "HTTP server port")
	authUser := serveFlags.StringLong("auth-user", "", "Basic auth username (optional)")
	authPass := serveFlags.StringLong("auth-pass", "", "Basic auth password (optional)")

	serveCmd := &ff.Command{
		Name:      "serve",
		Usage:     "receipt-ocr serve [FLAGS]",
		ShortHelp: "serve the receipt scanning HTTP API",
		Flags:     serveFlags,
		Exec: func(ctx context.Context, args []string) error {
			return runServe(ctx, flags, *port, receipt.BasicAuth{Username: *authUser, Password: *authPass})
		},
	}

	scanFlags := ff.NewFlagSet("scan").SetParent(rootFlags)
	raw := scanFlags.BoolLong("raw", "Also print the raw and normalized OCR text to stderr")

	scanCmd := &ff.Command{
		Name:      "scan",
		Usage:     "receipt-ocr scan [FLAGS] FILE",
		ShortHelp: "extract the total and date from a receipt image",
		Flags:     scanFlags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("scan requires exactly one FILE argument")
			}
			return runScan(ctx, flags, args[0], *raw)
		},
	}

	rootCmd := &ff.Command{
		Name:        "receipt-ocr",
		Usage:       "receipt-ocr [FLAGS] <SUBCOMMAND> ...",
		ShortHelp:   "read the final total and date from receipt photos",
		Flags:       rootFlags,
		Subcommands: []*ff.Command{serveCmd, scanCmd},
		Exec: func(ctx context.Context, args []string) error {
			if *showVersion {
				fmt.Println(version)
				return nil
			}
			return ff.ErrHelp
		},
	}

	err := rootCmd.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("RECEIPT_OCR"))
	switch {
	case err == nil:
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(rootCmd.GetSelected()))
	default:
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(rootCmd.GetSelected()))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup configures logging and builds the OCR backend selected by flags
func setup(ctx context.Context, flags backendFlags) (scanning.Recognizer, error) {
	cfg := logger.DefaultConfig()
	cfg.Level = *flags.logLevel
	cfg.Format = *flags.logFormat
	if err := logger.Setup(cfg); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	switch *flags.backend {
	case "tesseract":
		log.Info().Str("tessdata", *flags.tessdata).Msg("Initializing Tesseract recognizer...")
		return scanning.NewTesseract(*flags.tessdata), nil
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *flags.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		log.Info().Str("model", *flags.geminiModel).Msg("Initializing Gemini recognizer...")
		recognizer, err := scanning.NewGemini(ctx, apiKey, *flags.geminiModel)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
		return recognizer, nil
	case "ollama":
		log.Info().Str("url", *flags.ollamaURL).Str("model", *flags.ollamaModel).Msg("Initializing Ollama recognizer...")
		return scanning.NewOllama(*flags.ollamaURL, *flags.ollamaModel), nil
	default:
		return nil, fmt.Errorf("invalid backend %q: valid backends are tesseract, gemini or ollama", *flags.backend)
	}
}

func runServe(ctx context.Context, flags backendFlags, port int, auth receipt.BasicAuth) error {
	recognizer, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer recognizer.Close()

	service := receipt.NewService(scanning.NewSelector(recognizer))
	server := receipt.NewServer(service, auth)

	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("address", fmt.Sprintf("http://localhost%s", addr)).Str("version", version).Msg("Server started")
	if auth.Username != "" || auth.Password != "" {
		log.Info().Str("user", auth.Username).Msg("Basic auth enabled")
	}

	if err := server.Start(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info().Msg("Shut down")
	return nil
}

func runScan(ctx context.Context, flags backendFlags, path string, raw bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading receipt: %w", err)
	}

	recognizer, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer recognizer.Close()

	service := receipt.NewService(scanning.NewSelector(recognizer))
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))

	record, err := service.Scan(ctx, data, contentType, func(percent int) {
		log.Debug().Int("progress", percent).Msg("OCR progress")
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}

	if raw {
		fmt.Fprintf(os.Stderr, "--- raw text ---\n%s\n--- normalized text ---\n%s\n", record.RawText, record.NormalizedText)
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
