package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/lattice/pkg/codec"
	"github.com/cuemby/lattice/pkg/kv"
	"github.com/cuemby/lattice/pkg/nstore"
	"github.com/cuemby/lattice/pkg/query"
)

var nstoreCmd = &cobra.Command{
	Use:   "nstore",
	Short: "Add, remove, and query tuples in an n-ary relation",
	Long: `A relation's permutation indices are a pure function of its name and
arity, so nothing needs to persist between invocations beyond the tuples
themselves: naming the same relation with the same arity always addresses
the same data.`,
}

func init() {
	nstoreCmd.AddCommand(nstoreAddCmd)
	nstoreCmd.AddCommand(nstoreDeleteCmd)
	nstoreCmd.AddCommand(nstoreQueryCmd)
}

func openRelation(name string, arity int) (*nstore.NStore, error) {
	return nstore.New(name, codec.Tuple{codec.String(name)}, arity)
}

var nstoreAddCmd = &cobra.Command{
	Use:   "add <relation> <element>...",
	Short: "Insert a tuple into a relation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		relation := args[0]
		tup := parseTuple(args[1:])
		ns, err := openRelation(relation, len(tup))
		if err != nil {
			return err
		}

		_, err = h.Apply(context.Background(), "cli.nstore.add", false, func(conn *kv.RawConn) (any, error) {
			return nil, ns.Add(conn, tup)
		})
		return err
	},
}

var nstoreDeleteCmd = &cobra.Command{
	Use:   "delete <relation> <element>...",
	Short: "Remove a tuple from a relation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		relation := args[0]
		tup := parseTuple(args[1:])
		ns, err := openRelation(relation, len(tup))
		if err != nil {
			return err
		}

		_, err = h.Apply(context.Background(), "cli.nstore.delete", false, func(conn *kv.RawConn) (any, error) {
			return nil, ns.Delete(conn, tup)
		})
		return err
	},
}

var nstoreQueryCmd = &cobra.Command{
	Use:   "query <relation> <pattern-element>...",
	Short: `Scan a relation by pattern, using "_" for a free position`,
	Long: `Each pattern element is either a concrete value or an underscore,
naming a free position. Bound positions narrow the scan to a single
contiguous range; free positions are returned as-is.

Example:
  lattice nstore query friends alice _`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHandle(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		relation := args[0]
		pattern := parsePattern(args[1:])
		ns, err := openRelation(relation, len(pattern))
		if err != nil {
			return err
		}

		bindings, err := h.Run(context.Background(), query.Clause{Relation: ns, Pattern: pattern})
		if err != nil {
			return err
		}
		for _, b := range bindings {
			fmt.Println(b)
		}
		return nil
	},
}

func parseTuple(args []string) codec.Tuple {
	tup := make(codec.Tuple, len(args))
	for i, a := range args {
		tup[i] = parseScalar(a)
	}
	return tup
}

func parsePattern(args []string) nstore.Pattern {
	pattern := make(nstore.Pattern, len(args))
	for i, a := range args {
		if a == "_" {
			pattern[i] = nstore.Unbound(fmt.Sprintf("v%d", i))
			continue
		}
		pattern[i] = nstore.Bound(parseScalar(a))
	}
	return pattern
}
