package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store <stylesheet>",
	Short: "Compile a stylesheet and store it in the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runStore,
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.Flags().String("name", "", "catalog name (defaults to the file name)")
	storeCmd.Flags().Bool("cascade", false, "store the unified cascade instead of raw rules")
}

func runStore(cmd *cobra.Command, args []string) error {
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
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = filepath.Base(args[0])
	}

	docs, _, err := compileStylesheet(cfg, log, args[0], unify)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read stylesheet: %w", err)
	}

	catalog, closeDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	sheetID, err := catalog.SaveStylesheet(name, string(source), docs)
	if err != nil {
		return err
	}

	fmt.Println(sheetID)
	return nil
}
