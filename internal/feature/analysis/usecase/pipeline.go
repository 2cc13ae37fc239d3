package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"analyst_backend/internal/feature/analysis/domain/entity"
)

// ReportGenerator はAnalysisInputから投資分析レポートを生成するインターフェースです。
type ReportGenerator interface {
	Generate(ctx context.Context, in entity.AnalysisInput) (*entity.Report, error)
}

// Pipeline はエージェント呼び出しを順序付けて実行し、最終レポートを組み立てます。
//
// 実行は3段階です。
//  1. 独立ウェーブ: financial / market / team（本文）と public_data（企業名）
//  2. 依存ウェーブ: risk / benchmark（独立ウェーブの結合結果）
//  3. 最終統合: recommendation（全結果の結合）
//
// ウェーブ内の呼び出しは最大concurrency件まで並行に実行されます（1なら逐次実行）。
// どこかで致命的エラーが発生した場合、残りの呼び出しはキャンセルされ、部分的なレポートは返しません。
type Pipeline struct {
	runner      AgentRunner
	concurrency int
}

var _ ReportGenerator = (*Pipeline)(nil)

// NewPipeline はPipelineの新しいインスタンスを生成します。
// concurrencyが0以下の場合はウェーブ内の呼び出しをすべて並行に実行します。
func NewPipeline(runner AgentRunner, concurrency int) *Pipeline {
	return &Pipeline{runner: runner, concurrency: concurrency}
}

type agentCall struct {
	spec  AgentSpec
	input any
}

// Generate はパイプライン全体を実行してレポートを返します。
func (p *Pipeline) Generate(ctx context.Context, in entity.AnalysisInput) (*entity.Report, error) {
	slog.Info("分析パイプラインを開始", "company", in.CompanyName)

	independent, err := p.runWave(ctx, []agentCall{
		{spec: FinancialAgent, input: in.Text},
		{spec: MarketAgent, input: in.Text},
		{spec: TeamAgent, input: in.Text},
		{spec: PublicDataAgent, input: in.CompanyName},
	})
	if err != nil {
		return nil, err
	}
	financial, market, team, public := independent[0], independent[1], independent[2], independent[3]

	combined := mergeResults("independent",
		entity.AgentResult{"company_name": in.CompanyName},
		financial, market, team, public,
	)

	dependent, err := p.runWave(ctx, []agentCall{
		{spec: RiskAgent, input: combined.Clone()},
		{spec: BenchmarkAgent, input: combined.Clone()},
	})
	if err != nil {
		return nil, err
	}
	risk, benchmark := dependent[0], dependent[1]

	final := mergeResults("dependent", combined, risk, benchmark)

	recommendation, err := p.runner.Run(ctx, RecommendationAgent, final)
	if err != nil {
		return nil, err
	}

	slog.Info("分析パイプラインが完了", "company", in.CompanyName)
	return &entity.Report{
		CompanyName:    in.CompanyName,
		Recommendation: recommendation.Clone(),
		Metrics: entity.Metrics{
			Revenue: financial["revenue"],
			CAC:     financial["cac"],
			LTV:     financial["ltv"],
			TAM:     market["tam"],
			SAM:     market["sam"],
			SOM:     market["som"],
			Country: market["country"],
		},
		Team:       team.Clone(),
		PublicData: public.Clone(),
		Risk:       risk.Clone(),
		Benchmark:  benchmark.Clone(),
	}, nil
}

// runWave は互いに依存しない呼び出しを実行し、呼び出し順と同じ順序で結果を返します。
// 完了順に関わらず結果はスロットに格納されるため、後段の結合順序は決定的です。
func (p *Pipeline) runWave(ctx context.Context, calls []agentCall) ([]entity.AgentResult, error) {
	results := make([]entity.AgentResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, call := range calls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.runner.Run(gctx, call.spec, call.input)
			if err != nil {
				slog.Error("エージェントの実行に失敗", "agent", call.spec.Name, "error", err)
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mergeResults は後勝ちで結果を結合し、キーの衝突があれば警告を出します。
func mergeResults(stage string, parts ...entity.AgentResult) entity.AgentResult {
	merged, collisions := entity.Merge(parts...)
	if len(collisions) > 0 {
		slog.Warn("結果の結合でキーが衝突、後勝ちで上書き", "stage", stage, "keys", collisions)
	}
	return merged
}
