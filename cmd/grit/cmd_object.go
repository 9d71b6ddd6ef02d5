package main

import (
	"fmt"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd(a *app) *cobra.Command {
	var pretty, showType, showSize bool

	cmd := &cobra.Command{
		Use:   "cat-file (-p | -t | -s) <object>",
		Short: "Print the content, kind or size of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			switch {
			case showType || showSize:
				typ, size, err := r.ObjectInfo(h)
				if err != nil {
					return err
				}
				if showType {
					fmt.Fprintln(cmd.OutOrStdout(), typ)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), size)
				}
				return nil
			case pretty:
				return r.CatFile(h, cmd.OutOrStdout())
			default:
				return fmt.Errorf("cat-file: %w: only -p, -t and -s are supported", object.ErrUnsupported)
			}
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "print blob content")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object kind")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the object size")
	cmd.MarkFlagsMutuallyExclusive("pretty", "type", "size")

	return cmd
}

func newHashObjectCmd(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object [-w] <file>",
		Short: "Compute the blob hash of a file, optionally storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				h   object.Hash
				err error
			)
			if write {
				r, openErr := a.openRepo()
				if openErr != nil {
					return openErr
				}
				h, err = r.WriteFile(args[0])
			} else {
				h, err = repo.HashFile(args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "store the blob in the object database")

	return cmd
}

func newLsTreeCmd(a *app) *cobra.Command {
	var nameOnly bool

	cmd := &cobra.Command{
		Use:   "ls-tree [--name-only] <tree>",
		Short: "List the entries of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return r.ListTree(h, !nameOnly, func(item repo.TreeListing) error {
				_, err := fmt.Fprintln(out, repo.FormatTreeListing(item, nameOnly))
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")

	return cmd
}
