package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dietrichf/geocss/internal/cascade"
	"github.com/dietrichf/geocss/internal/core/config"
	"github.com/dietrichf/geocss/internal/filter"
	"github.com/dietrichf/geocss/internal/parser"
	"github.com/dietrichf/geocss/internal/types"
)

var compileCmd = &cobra.Command{
	Use:   "compile <stylesheet>",
	Short: "Compile a stylesheet to rule documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().Bool("cascade", false, "unify overlapping rules into mutually exclusive ones")
	compileCmd.Flags().StringP("output", "o", "", "write JSON output to file instead of stdout")
}

func runCompile(cmd *cobra.Command, args []string) error {
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
	output, _ := cmd.Flags().GetString("output")

	docs, _, err := compileStylesheet(cfg, log, args[0], unify)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	payload = append(payload, '\n')

	if output == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	return os.WriteFile(output, payload, 0o644)
}

// compileStylesheet reads, parses, and optionally cascades a stylesheet,
// returning both the encoded documents and the compiled rules.
func compileStylesheet(cfg *config.CompilerConfig, log *zap.Logger, path string, unify bool) ([]cascade.Doc, []cascade.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read stylesheet: %w", err)
	}

	engine := filter.NewEngine()
	rules, err := parser.NewParser(engine, log).Parse(data, path)
	if err != nil {
		return nil, nil, err
	}

	if len(rules) > cfg.MaxRules {
		return nil, nil, fmt.Errorf("stylesheet has %d rules, limit is %d: %w",
			len(rules), cfg.MaxRules, types.ErrTooManyRules)
	}

	if unify {
		rules, err = cascade.Unify(engine, rules)
		if err != nil {
			return nil, nil, err
		}
	}

	docs := make([]cascade.Doc, 0, len(rules))
	for _, r := range rules {
		doc, err := cascade.Encode(engine, r)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, doc)
	}

	log.Debug("compiled stylesheet",
		zap.String("path", path),
		zap.Bool("cascade", unify),
		zap.Int("rules", len(docs)))
	return docs, rules, nil
}
