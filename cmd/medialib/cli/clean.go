package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	models "medialib/internal/domain/models/media"
	"medialib/internal/service/media"
)

func newCleanCommand(a *app) *cobra.Command {
	var (
		days      int
		dryRun    bool
		force     bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "clean [kind[:days]...]",
		Short: "Remove empty folders, lonely files, expired shares and pending attachments",
		Long: `Without arguments the tasks configured under clean_ups.clean run in order.
Kinds: empty-folders, lonely-files, expired-shares, attachments.
An explicit --days applies to every task and wins over a task's ":days" suffix.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := a.open(ctx)
			if err != nil {
				return err
			}

			tasks := args
			if len(tasks) == 0 {
				tasks = a.cfg.CleanUps.Clean
			}
			for _, task := range tasks {
				if _, _, err := media.ParseTask(task); err != nil {
					return err
				}
			}

			opts := models.SweepOptions{
				DryRun:    dryRun,
				Force:     force,
				BatchSize: batchSize,
				Confirm:   confirm(cmd.InOrStdin(), cmd.OutOrStdout()),
			}
			if cmd.Flags().Changed("days") {
				opts.Days = &days
			}

			reports, err := services.Reaper.Clean(ctx, tasks, opts)
			if rerr := a.render(cmd.OutOrStdout(), reports, func(w io.Writer) { printReports(w, reports) }); rerr != nil && err == nil {
				err = rerr
			}
			return err
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "only remove records older than this many days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without removing them")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	cmd.Flags().IntVar(&batchSize, "batch-size", models.DefaultSweepBatchSize, "records removed per transaction")
	return cmd
}

// confirm asks on the terminal before each sweep removes anything.
func confirm(in io.Reader, out io.Writer) func(models.SweepKind, int) bool {
	reader := bufio.NewReader(in)
	return func(kind models.SweepKind, count int) bool {
		fmt.Fprintf(out, "Remove %d %s? [y/N] ", count, strings.ReplaceAll(string(kind), "-", " "))
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}
