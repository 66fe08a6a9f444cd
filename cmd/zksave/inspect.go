package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"text/tabwriter"

	"github.com/nholik/zksave/internal/archive"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the entries of a saved archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := archive.Read(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ENTRY\tBYTES\tSHA256")
			for _, entry := range entries {
				sum := sha256.Sum256(entry.Data)
				fmt.Fprintf(w, "%s\t%d\t%s\n", entry.Name, len(entry.Data), hex.EncodeToString(sum[:8]))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if check {
				return checkOrder(entries, archive.DefaultManifest)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Fail unless entries follow the manifest order")
	return cmd
}

// checkOrder verifies entries appear in manifest order, each at most once.
// Missing entries are allowed.
func checkOrder(entries []archive.Entry, manifest []string) error {
	next := 0
	for _, entry := range entries {
		index := -1
		for i := next; i < len(manifest); i++ {
			if manifest[i] == entry.Name {
				index = i
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("entry %q is unknown or out of order", entry.Name)
		}
		next = index + 1
	}
	return nil
}
