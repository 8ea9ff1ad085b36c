package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dietrichf/geocss/internal/filter"
)

var matchCmd = &cobra.Command{
	Use:   "match <stylesheet> [features.jsonl]",
	Short: "Evaluate features against a stylesheet's rule filters",
	Long: `Match reads one JSON feature per line (from a file or stdin) and reports,
per feature, which stylesheet rules match it. Rules are evaluated in
stylesheet order; use --cascade to evaluate the unified cascade instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().Bool("cascade", false, "evaluate the unified cascade instead of raw rules")
	matchCmd.Flags().Bool("first", false, "report only the first matching rule per feature")
}

type matchResult struct {
	Line    int       `json:"line"`
	Matches []ruleHit `json:"matches"`
	Error   string    `json:"error,omitempty"`
}

type ruleHit struct {
	Rule     int    `json:"rule"`
	Title    string `json:"title,omitempty"`
	Selector string `json:"selector,omitempty"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	unify, _ := cmd.Flags().GetBool("cascade")
	firstOnly, _ := cmd.Flags().GetBool("first")

	docs, rules, err := compileStylesheet(cfg, log, args[0], unify)
	if err != nil {
		return err
	}

	engine := filter.NewEngine()
	preds := make([]filter.Predicate, len(rules))
	for i, r := range rules {
		preds[i], err = r.GetFilter(engine)
		if err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}

	var in io.Reader = os.Stdin
	if len(args) == 2 {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open features: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		feature := bytes.TrimSpace(scanner.Bytes())
		if len(feature) == 0 {
			continue
		}

		result := matchResult{Line: line, Matches: []ruleHit{}}
		for i, p := range preds {
			ok, err := p.Matches(feature)
			if err != nil {
				result.Error = err.Error()
				log.Warn("feature evaluation failed", zap.Int("line", line), zap.Int("rule", i), zap.Error(err))
				break
			}
			if !ok {
				continue
			}
			result.Matches = append(result.Matches, ruleHit{
				Rule:     i,
				Title:    docs[i].Title,
				Selector: docs[i].Selector,
			})
			if firstOnly {
				break
			}
		}

		if err := out.Encode(result); err != nil {
			return err
		}
	}
	return scanner.Err()
}
