package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shouni/go-persona-kit/internal/builder"

	"github.com/spf13/cobra"
)

// stylesCmd は、選べるスタイルと配偶者モードの作例を一覧表示するのだ。
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "スタイルカタログを一覧表示するのだ。",
	RunE:  stylesCommand,
}

func stylesCommand(cmd *cobra.Command, args []string) error {
	cat, err := builder.LoadCatalog(opts.CatalogFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREFERENCES\tCONSTRAINT")
	for _, s := range cat.All() {
		constraint := string(s.Constraint)
		if constraint == "" {
			constraint = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Name, len(s.ReferenceImages), constraint)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	gallery := cat.Gallery()
	if len(gallery) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Spouse gallery:")
	for _, g := range gallery {
		fmt.Printf("  - %s: %s\n", g.Name, g.Caption)
	}
	return nil
}
