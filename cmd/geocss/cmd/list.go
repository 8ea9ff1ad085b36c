package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stylesheets stored in the catalog",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	catalog, closeDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	rows, err := catalog.ListStylesheets()
	if err != nil {
		return err
	}

	fmt.Printf("%-36s  %-20s  %-5s  %s\n", "SHEET ID", "CREATED", "RULES", "NAME")
	for _, r := range rows {
		fmt.Printf("%-36s  %-20s  %-5d  %s\n",
			r.SheetID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.RuleCount, r.Name)
	}
	return nil
}
