package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/liyue/office-engine/internal/config"
	"github.com/liyue/office-engine/internal/generation"
	"github.com/liyue/office-engine/internal/observability"
	"github.com/liyue/office-engine/internal/storage"
	"github.com/liyue/office-engine/internal/styleparse"
	"github.com/liyue/office-engine/internal/types"
)

// batchConcurrency bounds how many batch requests generate in parallel.
const batchConcurrency = 4

var generateCmd = &cobra.Command{
	Use:   "generate \"<request text>\"",
	Short: "Generate an office artifact from a natural-language request",
	Long: `Generate a Word document, Excel workbook or PowerPoint deck from a
natural-language request. The document type is detected from the text unless
--type is given. With --from-file, each line of the file is treated as one
request and the batch runs concurrently.`,
	RunE: runGenerate,
}

var (
	generateType     string
	generateTitle    string
	generateOut      string
	generateStyle    string
	generateFromFile string
	generateVerbose  bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateType, "type", "t", "", "Document type: word, excel or ppt (detected when omitted)")
	generateCmd.Flags().StringVar(&generateTitle, "title", "", "Document title")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output directory (defaults to \"output\")")
	generateCmd.Flags().StringVarP(&generateStyle, "style", "s", "", "Extra style directives, e.g. \"Arial 14pt, centered\"")
	generateCmd.Flags().StringVar(&generateFromFile, "from-file", "", "Batch mode: path to a file with one request per line")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print parsed style, structure outline and result details")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, args []string) error {
	// Validate mutually exclusive inputs
	if len(args) == 0 && generateFromFile == "" {
		return fmt.Errorf("either request text or --from-file must be provided")
	}
	if len(args) > 0 && generateFromFile != "" {
		return fmt.Errorf("request text and --from-file are mutually exclusive; provide only one")
	}

	svc, err := buildGenerationService(generateOut)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if generateFromFile != "" {
		return runBatchGenerate(ctx, svc, generateFromFile)
	}

	req, warnings, err := buildRequest(strings.Join(args, " "), generateType, generateTitle, generateStyle)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	if generateVerbose {
		parsed, _ := styleparse.Parse(req.Text)
		observability.NewPrinter(os.Stdout).PrintStyleDirectives(parsed)
	}

	res, err := svc.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	if generateVerbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintStructure(res.Structure)
		printer.PrintResult(res)
	}

	fmt.Fprintf(os.Stdout, "Successfully generated %s\n", res.DocType)
	fmt.Fprintf(os.Stdout, "Output: %s\n", filepath.Join(svc.Store().Dir(), res.Filename))
	return nil
}

func runBatchGenerate(ctx context.Context, svc *generation.Service, path string) error {
	requests, err := readBatchRequests(path)
	if err != nil {
		return err
	}

	results := make([]*types.GenerationResult, len(requests))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, text := range requests {
		g.Go(func() error {
			req, _, err := buildRequest(text, generateType, generateTitle, generateStyle)
			if err != nil {
				return fmt.Errorf("request %d: %w", i+1, err)
			}
			res, err := svc.Generate(ctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, res := range results {
		fmt.Fprintf(os.Stdout, "%2d. %-12s %s\n", i+1, res.DocType, res.Filename)
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: request %d: %s\n", i+1, w)
		}
	}
	fmt.Fprintf(os.Stdout, "Successfully generated %d artifacts\n", len(results))
	fmt.Fprintf(os.Stdout, "Output: %s\n", svc.Store().Dir())
	return nil
}

// buildGenerationService wires an artifact store and generation service from
// defaults, environment overrides and an optional output directory.
func buildGenerationService(outputDir string) (*generation.Service, error) {
	cfg := config.Default()
	cfg.ApplyEnv()
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}
	return generation.NewService(store, cfg.LLMBase()), nil
}

// buildRequest assembles a generation request from CLI inputs. Style text
// given via --style runs through the same directive parser as request text;
// unrecognized directives come back as warnings rather than errors.
func buildRequest(text, docType, title, style string) (*types.GenerationRequest, []string, error) {
	req := &types.GenerationRequest{Text: text, Title: title}

	if docType != "" {
		dt, err := types.ParseDocType(docType)
		if err != nil {
			return nil, nil, err
		}
		req.DocType = dt
	}

	var warnings []string
	if style != "" {
		patch, warns := styleparse.Parse(style)
		warnings = styleparse.Strings(warns)
		if patch.IsZero() {
			warnings = append(warnings, fmt.Sprintf("no style directives recognized in %q", style))
		} else {
			req.Style = patch
		}
	}
	return req, warnings, nil
}

// readBatchRequests loads one request per line, skipping blanks and lines
// starting with '#'.
func readBatchRequests(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var requests []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		requests = append(requests, line)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("batch file %s contains no requests", path)
	}
	return requests, nil
}

