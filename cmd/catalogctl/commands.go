package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lifescientific.com/web/internal/catalog"
	"lifescientific.com/web/internal/cms"
	"lifescientific.com/web/internal/platform/config"
	"lifescientific.com/web/internal/platform/observability"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

// source selects where products come from: a YAML export, or the CMS client configured
// from LS_WEB_* settings (which itself falls back to the local content directory).
type source struct {
	file     string
	content  string
	lang     string
	envFile  string
	logLevel string
	output   string
}

func (s *source) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.file, "file", "", "products YAML export to read instead of the CMS")
	f.StringVar(&s.content, "content", "", "local content directory (overrides LS_WEB_CONTENT_DIR)")
	f.StringVar(&s.lang, "lang", "en", "catalog language")
	f.StringVar(&s.envFile, "env-file", ".env", "dotenv file read before the environment")
	f.StringVar(&s.logLevel, "log-level", "warn", "log level for CMS diagnostics")
	f.StringVarP(&s.output, "output", "o", outputTable, "output format: table or json")
}

func (s *source) validate() error {
	switch s.output {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output %q (want table or json)", s.output)
	}
}

func (s *source) products(ctx context.Context) ([]catalog.Product, error) {
	if s.file != "" {
		return cms.ReadProductsFile(s.file)
	}
	cfg, err := config.Load(ctx, config.WithEnvFile(s.envFile))
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(s.logLevel, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	dir := cfg.Paths.Content
	if s.content != "" {
		dir = s.content
	}
	client := cms.NewClient(cms.Options{
		ProjectID:  cfg.CMS.ProjectID,
		Dataset:    cfg.CMS.Dataset,
		APIVersion: cfg.CMS.APIVersion,
		Token:      cfg.CMS.Token,
		UseCDN:     cfg.CMS.UseCDN,
		BaseURL:    cfg.CMS.BaseURL,
		ContentDir: dir,
		HTTPClient: &http.Client{Timeout: cfg.CMS.Timeout},
		Logger:     logger.Named("cms"),
	})
	logger.Debug("loading catalog", zap.String("lang", s.lang), zap.Bool("remote", client.Remote()))
	return client.ListProducts(ctx, s.lang)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect the product catalog and its facets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFilterCmd(), newCropsCmd(), newCategoriesCmd())
	return root
}

func newFilterCmd() *cobra.Command {
	var (
		src      source
		query    string
		category string
		crops    []string
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "List the products a catalog page would show for the given facets",
		Example: `  catalogctl filter --category fungicide --crop Wheat
  catalogctl filter --file export.yaml --q prothio -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := src.validate(); err != nil {
				return err
			}
			state := catalog.FilterState{SearchText: strings.TrimSpace(query)}
			if category != "" {
				c, ok := catalog.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				state.ActiveCategory = c
			}
			for _, c := range crops {
				if c = strings.TrimSpace(c); c != "" && !state.HasCrop(c) {
					state.SelectedCrops = append(state.SelectedCrops, c)
				}
			}

			products, err := src.products(cmd.Context())
			if err != nil {
				return err
			}
			results := catalog.Filter(products, state)
			if src.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"count": len(results),
					"total": len(products),
					"items": results,
				})
			}
			return writeProductTable(cmd.OutOrStdout(), results, len(products))
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&query, "q", "", "search text (name, tagline, crop, ingredient)")
	cmd.Flags().StringVar(&category, "category", "", "herbicide, fungicide, insecticide or pesticide")
	cmd.Flags().StringSliceVar(&crops, "crop", nil, "crop to include; repeat or comma separate for any-of")
	return cmd
}

func newCropsCmd() *cobra.Command {
	var src source
	cmd := &cobra.Command{
		Use:   "crops",
		Short: "List every crop offered as a facet, in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := src.validate(); err != nil {
				return err
			}
			products, err := src.products(cmd.Context())
			if err != nil {
				return err
			}
			crops := catalog.UniqueCrops(products)
			if src.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), crops)
			}
			rows := make([][]string, 0, len(crops))
			for _, c := range crops {
				n := len(catalog.Filter(products, catalog.FilterState{SelectedCrops: []string{c}}))
				rows = append(rows, []string{c, strconv.Itoa(n)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"CROP", "PRODUCTS"}, rows)
		},
	}
	src.register(cmd)
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	var src source
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show product counts per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := src.validate(); err != nil {
				return err
			}
			products, err := src.products(cmd.Context())
			if err != nil {
				return err
			}
			counts := catalog.CategoryCounts(products)
			if src.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), counts)
			}
			rows := make([][]string, 0, len(counts))
			for _, c := range catalog.Categories() {
				rows = append(rows, []string{string(c), strconv.Itoa(counts[c])})
			}
			return renderTable(cmd.OutOrStdout(), []string{"CATEGORY", "PRODUCTS"}, rows)
		},
	}
	src.register(cmd)
	return cmd
}

func writeProductTable(w io.Writer, products []catalog.Product, total int) error {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.Name,
			p.DisplayCategory(),
			strings.Join(p.IngredientNames(), ", "),
			strings.Join(p.CropNames(), ", "),
		})
	}
	if err := renderTable(w, []string{"PRODUCT", "CATEGORY", "INGREDIENTS", "CROPS"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d products\n", len(products), total)
	return err
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
