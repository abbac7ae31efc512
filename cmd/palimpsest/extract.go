package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/palimpsest"
	"github.com/tsawler/palimpsest/model"
	"github.com/tsawler/palimpsest/score"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract text from a document",
	Long: `Extract text from a PDF or raster image.

Examples:
  # Extract with defaults (standard quality, 300 DPI)
  palimpsest extract scan.pdf

  # High quality pass in French, JSON report to a file
  palimpsest extract lettre.pdf --quality high --language fra --format json -o report.json

  # Disable digit-confusion fixes for part-number catalogs
  palimpsest extract parts.pdf --clean=false
`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	flags := extractCmd.Flags()
	flags.StringP("quality", "q", "standard", "Recognition effort: fast, standard, high")
	flags.Int("dpi", palimpsest.DefaultDPI, "Rendering density in DPI (72-600)")
	flags.StringP("language", "l", "eng", `Recognition language(s), "+"-separated`)
	flags.Bool("deskew", true, "Correct page rotation before recognition")
	flags.Bool("clean", true, "Fix digit/letter confusions in recognized text")
	flags.Int("workers", 0, "Concurrent pages (0 = automatic)")
	flags.Duration("ocr-timeout", 30*time.Second, "Per-pass recognition deadline")
	flags.StringP("output", "o", "", "Write output to a file instead of stdout")
	flags.StringP("format", "f", "text", "Output format: text, json")
	flags.String("pages", "", "Export per-page PNG and text files into this directory")

	// Processing options come from flag > env > config file; output
	// routing is per-invocation and stays on the flags alone.
	for _, name := range []string{"quality", "dpi", "language", "deskew", "clean", "workers", "ocr-timeout"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]

	outputPath, _ := cmd.Flags().GetString("output")
	outputFormat, _ := cmd.Flags().GetString("format")
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", outputFormat)
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	p := palimpsest.Open(path).
		Quality(model.Quality(viper.GetString("quality"))).
		DPI(viper.GetInt("dpi")).
		Language(viper.GetString("language")).
		Deskew(viper.GetBool("deskew")).
		EnhancedCleaning(viper.GetBool("clean")).
		OCRTimeout(viper.GetDuration("ocr-timeout")).
		WithLogger(logger)
	if n := viper.GetInt("workers"); n > 0 {
		p = p.Workers(n)
	}

	result, err := p.Process(cmd.Context())
	if err != nil {
		return processingError{fmt.Errorf("extraction failed: %w", err)}
	}

	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	if pagesDir, _ := cmd.Flags().GetString("pages"); pagesDir != "" {
		if err := exportPages(pagesDir, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Page files written to %s\n", pagesDir)
	}

	var out []byte
	switch outputFormat {
	case "json":
		out, err = sonic.MarshalIndent(buildReport(path, result), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		out = append(out, '\n')
	default:
		out = []byte(result.Text())
		if len(out) > 0 && out[len(out)-1] != '\n' {
			out = append(out, '\n')
		}
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		fmt.Fprintf(os.Stderr, "Extracted %d page(s) to %s\n", result.PageCount(), outputPath)
		return nil
	}
	_, err = os.Stdout.Write(out)
	return err
}

// exportPages writes one PNG raster and one text file per page.
func exportPages(dir string, result *model.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for i, page := range result.Pages {
		base := filepath.Join(dir, fmt.Sprintf("page-%04d", i+1))

		f, err := os.Create(base + ".png")
		if err != nil {
			return fmt.Errorf("writing page %d image: %w", i+1, err)
		}
		if err := png.Encode(f, page.Image); err != nil {
			_ = f.Close()
			return fmt.Errorf("encoding page %d image: %w", i+1, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing page %d image: %w", i+1, err)
		}

		if err := os.WriteFile(base+".txt", []byte(page.Text+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing page %d text: %w", i+1, err)
		}
	}
	return nil
}

// pageReport is one page of the JSON report.
type pageReport struct {
	Page        int              `json:"page"`
	Source      string           `json:"source"`
	Text        string           `json:"text"`
	OCRAttempts int              `json:"ocr_attempts,omitempty"`
	Score       *score.Breakdown `json:"score,omitempty"`
}

// extractReport is the full JSON report for one document.
type extractReport struct {
	File     string       `json:"file"`
	Pages    int          `json:"pages"`
	Duration string       `json:"duration"`
	Warnings []string     `json:"warnings,omitempty"`
	Results  []pageReport `json:"results"`
}

func buildReport(path string, result *model.Result) extractReport {
	report := extractReport{
		File:     path,
		Pages:    result.PageCount(),
		Duration: result.Duration.Round(time.Millisecond).String(),
		Results:  make([]pageReport, 0, result.PageCount()),
	}
	for _, w := range result.Warnings {
		report.Warnings = append(report.Warnings, w.String())
	}
	for _, page := range result.Pages {
		report.Results = append(report.Results, pageReport{
			Page:        page.Index + 1,
			Source:      string(page.Source),
			Text:        page.Text,
			OCRAttempts: page.OCRAttempts,
			Score:       page.Score,
		})
	}
	return report
}
