package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type archiveOptions struct {
	*rootOptions
	loop bool
}

func newArchiveCommand(root *rootOptions) *cobra.Command {
	opts := &archiveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Drain the audit queue into an archive file",
		Long: `Receive one batch from the audit queue, write it as an archive
file and delete the archived messages. With --loop, repeat every
archive interval until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := opts.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			arch, err := a.archiver()
			if err != nil {
				return err
			}
			if opts.loop {
				return arch.Run(ctx)
			}
			res, err := arch.RunOnce(ctx)
			if err != nil {
				return err
			}
			if res.Records == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "audit queue is empty, nothing archived")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived %d records to %s\n", res.Records, res.File)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.loop, "loop", false, "keep archiving on the configured interval")
	return cmd
}

func newArchivesCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "Inspect stored audit archive files",
	}
	cmd.AddCommand(newArchivesListCommand(root))
	cmd.AddCommand(newArchivesGetCommand(root))
	return cmd
}

func newArchivesListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archive files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			files, err := a.files().ListFiles(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.LastModified.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func newArchivesGetCommand(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Download an archive file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			_, rc, err := a.files().ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer rc.Close()

			if output == "" || output == "-" {
				_, err = io.Copy(cmd.OutOrStdout(), rc)
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if _, err := io.Copy(f, rc); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", output, err)
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
