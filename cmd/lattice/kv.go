package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/lattice/pkg/config"
	"github.com/cuemby/lattice/pkg/lattice"
)

var kvCmd = &cobra.Command{
	Use:   "kv",
	Short: "Read and write raw ordered key-value pairs",
}

func init() {
	kvCmd.AddCommand(kvGetCmd)
	kvCmd.AddCommand(kvSetCmd)
	kvCmd.AddCommand(kvDeleteCmd)
	kvCmd.AddCommand(kvScanCmd)
}

func openHandle(cmd *cobra.Command) (*lattice.Handle, error) {
	path, _ := cmd.Flags().GetString("db")
	return lattice.Open(config.Config{Path: path})
}

var kvGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		val, ok, err := h.Get(context.Background(), []byte(args[0]))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %q not found", args[0])
		}
		fmt.Println(string(val))
		return nil
	},
}

var kvSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write value under key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		return h.Set(context.Background(), []byte(args[0]), []byte(args[1]))
	},
}

var kvDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		n, err := h.Delete(context.Background(), []byte(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("removed %d\n", n)
		return nil
	},
}

var kvScanCmd = &cobra.Command{
	Use:   "scan <start> <end>",
	Short: "Print rows in [start, end)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		rows, err := h.Query(context.Background(), []byte(args[0]), []byte(args[1]), 0, limit)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Printf("%s = %s\n", r.Key, r.Value)
		}
		return nil
	},
}

func init() {
	kvScanCmd.Flags().Int("limit", -1, "maximum rows to print (-1 for unbounded)")
}
