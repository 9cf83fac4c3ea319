// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/snowfork/lane-relayer/store"
)

func watermarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watermarks",
		Short:   "Print the persisted watermarks of a stopped relayer",
		Args:    cobra.ExactArgs(0),
		Example: "lane-relay watermarks --path /var/lib/lane-relay --relayer-id default",
		RunE:    watermarksFn,
	}
	cmd.Flags().String("path", "", "Watermark store directory")
	cmd.MarkFlagRequired("path")
	cmd.Flags().String("relayer-id", "default", "Relayer id the watermarks are namespaced by")
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}

func watermarksFn(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("path")
	relayerID, _ := cmd.Flags().GetString("relayer-id")
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := store.OpenReadOnly(path, relayerID)
	if err != nil {
		return fmt.Errorf("open watermark store (is the relayer still running?): %w", err)
	}
	defer s.Close()

	watermarks, err := s.List()
	if err != nil {
		return err
	}

	if asJSON {
		type entry struct {
			Lane      string `json:"lane"`
			Direction string `json:"direction"`
			Nonce     uint64 `json:"nonce"`
		}
		entries := make([]entry, 0, len(watermarks))
		for _, w := range watermarks {
			entries = append(entries, entry{w.Lane.Hex(), w.Direction.String(), w.Nonce})
		}
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LANE\tDIRECTION\tNONCE")
	for _, mark := range watermarks {
		fmt.Fprintf(w, "%s\t%s\t%d\n", mark.Lane.Hex(), mark.Direction, mark.Nonce)
	}
	return w.Flush()
}
