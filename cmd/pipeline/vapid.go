package main

import (
	"encoding/json"
	"fmt"

	"github.com/nguyentantai21042004/announce-flow/internal/webpush"
	"github.com/spf13/cobra"
)

func newVAPIDCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair for push notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := webpush.GenerateVAPID()
			if err != nil {
				return err
			}
			if out == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(keys)
			}
			if err := webpush.SaveVAPID(out, keys); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VAPID keys written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the keys to this file instead of stdout")
	return cmd
}
