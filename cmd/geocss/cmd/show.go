package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dietrichf/geocss/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <sheet-id>",
	Short: "Print a stored stylesheet's compiled rule documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("source", false, "print the stored stylesheet source instead of the rule documents")
}

func runShow(cmd *cobra.Command, args []string) error {
	sheetID, err := types.ParseSheetID(args[0])
	if err != nil {
		return fmt.Errorf("invalid sheet id %q: %w", args[0], err)
	}
	source, _ := cmd.Flags().GetBool("source")

	catalog, closeDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	name, src, docs, err := catalog.GetStylesheet(sheetID)
	if err != nil {
		return err
	}

	if source {
		if !strings.HasSuffix(src, "\n") {
			src += "\n"
		}
		_, err = os.Stdout.WriteString(src)
		return err
	}

	// Header to stderr so stdout stays valid JSON.
	fmt.Fprintf(os.Stderr, "%s (created %s, %d rules)\n",
		name, types.SheetIDTime(sheetID).Format("2006-01-02 15:04:05"), len(docs))

	payload, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	payload = append(payload, '\n')
	_, err = os.Stdout.Write(payload)
	return err
}
