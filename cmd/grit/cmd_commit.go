package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

// identityFlags overrides the configured commit identity and clock.
type identityFlags struct {
	authorName  string
	authorEmail string
	date        int64
	tz          string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.authorName, "author-name", "", "override author name (default: grit.toml user.name)")
	cmd.Flags().StringVar(&f.authorEmail, "author-email", "", "override author email (default: grit.toml user.email)")
	cmd.Flags().Int64Var(&f.date, "date", 0, "commit timestamp in unix seconds (default: now)")
	cmd.Flags().StringVar(&f.tz, "tz", "", "zone offset recorded with the timestamp, e.g. +0200 (default: local zone)")
}

// parseZoneOffset reads a "+hhmm" or "-hhmm" offset.
func parseZoneOffset(s string) (*time.Location, error) {
	t, err := time.Parse("-0700", s)
	if err != nil {
		return nil, fmt.Errorf("invalid zone offset %q: want +hhmm or -hhmm", s)
	}
	_, offset := t.Zone()
	return time.FixedZone("", offset), nil
}

func (f *identityFlags) options(cmd *cobra.Command, r *repo.Repo) (repo.CommitOptions, error) {
	opts := r.DefaultCommitOptions()
	if f.authorName != "" {
		opts.Author.Name = f.authorName
		opts.Committer.Name = f.authorName
	}
	if f.authorEmail != "" {
		opts.Author.Email = f.authorEmail
		opts.Committer.Email = f.authorEmail
	}
	now := opts.Now
	if cmd.Flags().Changed("date") {
		when := time.Unix(f.date, 0)
		now = func() time.Time { return when }
	}
	if cmd.Flags().Changed("tz") {
		loc, err := parseZoneOffset(f.tz)
		if err != nil {
			return repo.CommitOptions{}, err
		}
		base := now
		now = func() time.Time { return base().In(loc) }
	}
	opts.Now = now
	return opts, nil
}

func newWriteTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Snapshot the working directory as tree objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, ok, err := r.WriteTree(r.RootDir)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
}

func newCommitTreeCmd(a *app) *cobra.Command {
	var message, parent string
	var id identityFlags

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p <parent>] -m <message>",
		Short: "Create a commit object for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			parentHash := object.ZeroHash
			if parent != "" {
				if parentHash, err = object.ParseHash(parent); err != nil {
					return err
				}
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			opts, err := id.options(cmd, r)
			if err != nil {
				return err
			}
			h, err := r.CommitTree(tree, parentHash, message, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent commit hash")
	_ = cmd.MarkFlagRequired("message")
	id.register(cmd)

	return cmd
}

func newCommitCmd(a *app) *cobra.Command {
	var message string
	var id identityFlags

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Snapshot the working directory and advance the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			opts, err := id.options(cmd, r)
			if err != nil {
				return err
			}
			h, err := r.Commit(message, opts)
			if err != nil {
				return err
			}

			branch := "HEAD"
			head, err := r.Head()
			if err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h, message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	id.register(cmd)

	return cmd
}
