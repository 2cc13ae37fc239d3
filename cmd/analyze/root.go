package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"analyst_backend/internal/app/di"
	"analyst_backend/internal/feature/analysis/domain/entity"
	"analyst_backend/internal/platform/config"
	"analyst_backend/internal/platform/render"
)

// errReported はユーザー向けのメッセージを出力済みであることを示します。
var errReported = errors.New("already reported")

// fileAnalyzer はファイルを分析してレポートを返します。
type fileAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*entity.Report, error)
}

// analyzerFactory は設定から分析器と、その解放処理を生成します。
type analyzerFactory func(ctx context.Context, cfg config.Config, save bool) (fileAnalyzer, func() error, error)

func newAnalyzer(ctx context.Context, cfg config.Config, save bool) (fileAnalyzer, func() error, error) {
	c, err := di.NewContainer(ctx, cfg, di.Options{History: save})
	if err != nil {
		return nil, nil, err
	}
	return c.Analysis, c.Close, nil
}

type analyzeOptions struct {
	format  string
	timeout time.Duration
	save    bool
}

// NewRootCmd はCLIのルートコマンドを生成します。
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.Load, newAnalyzer)
}

func newRootCmd(loadConfig func() config.Config, factory analyzerFactory) *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Generate an investment analysis report from a startup document",
		Long: `analyze extracts text from a pitch deck or transcript (.txt or .pdf),
runs the financial, market, team, public data, risk, benchmark and
recommendation agents, and prints the resulting investment report.

Credentials are read from the environment (or a .env file):
  GOOGLE_CLOUD_PROJECT + GOOGLE_CLOUD_LOCATION   Vertex AI backend
  GOOGLE_API_KEY                                 Gemini API backend`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), loadConfig(), factory, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", string(render.FormatText), "Output format (text or markdown)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Maximum time for the whole analysis (0 for no limit)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the report in the history database")

	cmd.AddCommand(newTokenCmd(loadConfig))
	cmd.AddCommand(newCacheCmd(loadConfig))
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, cfg config.Config, factory analyzerFactory, path string, opts analyzeOptions) error {
	renderer, err := render.New(render.Format(opts.format))
	if err != nil {
		return err
	}

	if err := cfg.Gemini.Validate(); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return errReported
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	analyzer, closeFn, err := factory(ctx, cfg, opts.save)
	if err != nil {
		fmt.Fprintf(out, "Analysis failed: %v\n", err)
		return errReported
	}
	defer func() { _ = closeFn() }()

	// 進捗メッセージはMarkdown出力を汚さないようstderrへ
	fmt.Fprintf(os.Stderr, "Analyzing %s...\n", path)
	report, err := analyzer.AnalyzeFile(ctx, path)
	if err != nil {
		fmt.Fprintf(out, "Analysis failed: %v\n", err)
		return errReported
	}

	return renderer.Render(out, report)
}

// Execute はルートコマンドを実行します。
func Execute() {
	config.LoadDotEnv()
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
