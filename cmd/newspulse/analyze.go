package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsPulse/internal/analysis"
	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

var (
	analyzeSources  string
	analyzeMax      int
	analyzeFormat   string
	analyzeStore    bool
	analyzeSearch   bool
	analyzeProvider string
	analyzeModel    string
)

// analyzeCmd creates the "analyze" subcommand.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [keyword]",
		Short: "Analyze news sentiment for a keyword",
		Long: `Search the selected news sources for a keyword, extract the articles and
their comments, classify sentiment and print the analysis result.

Join keywords with "||" or " OR " to analyze each one and merge the results:
  newspulse analyze "삼성전자 || LG전자" -s naver,google -n 6`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&analyzeSources, "sources", "s", "", "comma-separated sources: naver, google (default: config)")
	cmd.Flags().IntVarP(&analyzeMax, "max-articles", "n", 0, "maximum articles per source (default: config)")
	cmd.Flags().StringVarP(&analyzeFormat, "output", "o", "pretty", "output format: json, pretty")
	cmd.Flags().BoolVar(&analyzeStore, "store", false, "persist the result to the configured storage")
	cmd.Flags().BoolVar(&analyzeSearch, "search-only", false, "only list candidate article URLs")
	cmd.Flags().StringVar(&analyzeProvider, "llm", "", "LLM provider override: openai, ollama, custom, local")
	cmd.Flags().StringVar(&analyzeModel, "model", "", "LLM model override")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeProvider != "" {
		cfg.LLM.Provider = config.LLMProvider(strings.ToLower(analyzeProvider))
	}
	if analyzeModel != "" {
		cfg.LLM.Model = analyzeModel
	}
	logger := setupLogger(cfg.Logging)

	p, err := newPipeline(cfg, logger, analyzeStore)
	if err != nil {
		return err
	}
	defer p.coordinator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keyword := strings.Join(args, " ")
	sources := splitList(analyzeSources)

	if analyzeSearch {
		found, err := p.coordinator.Search(ctx, keyword, sources, analyzeMax)
		if err != nil {
			return err
		}
		return printSearch(os.Stdout, found)
	}

	result := p.coordinator.Analyze(ctx, analysis.AnalyzeRequest{
		Keyword:     keyword,
		Sources:     sources,
		MaxArticles: analyzeMax,
	})

	if strings.EqualFold(analyzeFormat, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else {
		printPretty(os.Stdout, result)
	}

	if result.IsError() {
		return fmt.Errorf("analysis failed: %s", result.Error)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSearch(w io.Writer, found map[types.SourceID][]string) error {
	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		urls := found[types.SourceID(id)]
		fmt.Fprintf(w, "%s (%d)\n", types.SourceID(id).Label(), len(urls))
		for _, u := range urls {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
	return nil
}

func printPretty(w io.Writer, r *types.AnalysisResult) {
	if r.IsError() {
		fmt.Fprintf(w, "\n❌ %s\n", r.Error)
		if len(r.SupportedSources) > 0 {
			fmt.Fprintf(w, "   Supported sources: %s\n", strings.Join(r.SupportedSources, ", "))
		}
		return
	}

	fmt.Fprintf(w, "\n✅ '%s' analysis complete (%s)\n", r.Keyword, strings.Join(r.Sources, ", "))
	fmt.Fprintf(w, "   Session:   %s\n", r.SessionID)
	fmt.Fprintf(w, "   Articles:  %d\n", r.TotalArticles)
	if d := r.SentimentDistribution; d != nil {
		fmt.Fprintf(w, "   Sentiment: 긍정 %d / 부정 %d / 중립 %d\n", d.Positive, d.Negative, d.Neutral)
	}
	if t := r.Trend; t != nil {
		fmt.Fprintf(w, "   Comments:  %d (overall %s)\n", t.TotalComments, t.OverallSentiment.Korean())
		if len(t.Topics) > 0 {
			fmt.Fprintf(w, "   Topics:    %s\n", strings.Join(t.Topics, ", "))
		}
	}
	if r.Timing != nil {
		fmt.Fprintf(w, "   Time:      %s\n", time.Duration(r.Timing.TotalTime*float64(time.Second)).Round(time.Millisecond))
	}
	if u := r.TokenUsage; u != nil {
		fmt.Fprintf(w, "   Tokens:    %d (≈ $%.4f, %s)\n", u.TotalTokens, u.EstimatedCost, u.Model)
	}

	for _, kr := range r.KeywordResults {
		if kr.Error != "" {
			fmt.Fprintf(w, "   • %s: %s\n", kr.Keyword, kr.Error)
			continue
		}
		fmt.Fprintf(w, "   • %s: %d articles (긍정 %d / 부정 %d / 중립 %d)\n", kr.Keyword, kr.TotalArticles,
			kr.SentimentDistribution.Positive, kr.SentimentDistribution.Negative, kr.SentimentDistribution.Neutral)
	}

	fmt.Fprintln(w)
	for i, a := range r.Articles {
		label := "-"
		if a.Sentiment != nil {
			label = a.Sentiment.Label.Korean()
		}
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, label, a.Title)
		fmt.Fprintf(w, "    %s (%s, 댓글 %d)\n", a.URL, a.Source.Label(), a.CommentCount)
		if a.Summary != "" {
			fmt.Fprintf(w, "    %s\n", a.Summary)
		}
	}

	if len(r.Keywords) > 0 {
		parts := make([]string, len(r.Keywords))
		for i, k := range r.Keywords {
			parts[i] = fmt.Sprintf("%s(%d)", k.Keyword, k.Frequency)
		}
		fmt.Fprintf(w, "\nKeywords: %s\n", strings.Join(parts, ", "))
	}
	if r.Trend != nil && r.Trend.Summary != "" {
		fmt.Fprintf(w, "\nComment trend:\n  %s\n", r.Trend.Summary)
	}
	if r.OverallSummary != "" {
		fmt.Fprintf(w, "\nSummary:\n  %s\n", r.OverallSummary)
	}
}
