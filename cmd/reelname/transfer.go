package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/transfer"
)

// progressBuffer sizes the channel between the scheduler and the renderer.
// In-flight updates beyond it are dropped.
const progressBuffer = 64

func newTransferCommand(ctx *commandContext) *cobra.Command {
	var (
		dest     string
		groupIDs []int64
		jobIDs   []int64
	)
	cmd := &cobra.Command{
		Use:   "transfer --dest <id|name>",
		Short: "Copy confirmed files to a destination under their new names",
		Long: `Copy confirmed files to a destination, renamed for Jellyfin or Plex.

Listed groups contribute all of their confirmed files. Without --groups
or --jobs every confirmed file in the library is transferred.

Only one transfer may run per library at a time. While reelnamed is
running, start transfers through its API instead.`,
		Example: `  reelname transfer --dest nas
  reelname transfer --dest seedbox --groups 3,4 --jobs 51`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dest == "" {
				return fmt.Errorf("--dest is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := app.AcquireLock(cfg.Database.Path)
			if err != nil {
				if errors.Is(err, app.ErrLocked) {
					return fmt.Errorf("%w; is reelnamed running?", err)
				}
				return err
			}
			defer func() { _ = lock.Unlock() }()

			return ctx.withServices(cmd, func(svc *app.Services) error {
				d, err := resolveDestination(svc.Store, dest)
				if err != nil {
					return err
				}
				ids, err := selectJobs(svc.Store, groupIDs, jobIDs)
				if err != nil {
					return err
				}
				names, err := jobNames(svc.Store, ids)
				if err != nil {
					return err
				}

				// progress goes to stderr when stdout carries JSON
				out := cmd.OutOrStdout()
				if ctx.json() {
					out = cmd.ErrOrStderr()
				}
				ch := make(chan transfer.Progress, progressBuffer)
				done := make(chan struct{})
				r := &progressRenderer{w: out, live: isTerminal(out), names: names, total: len(ids)}
				go func() {
					defer close(done)
					r.consume(ch)
				}()

				res, err := svc.Transfers.Run(cmd.Context(), ids, d.ID, transfer.NewChannelSink(ch))
				close(ch)
				<-done
				if err != nil {
					return fmt.Errorf("transfer: %w", err)
				}

				if err := ctx.output(cmd, res, func(w io.Writer) error {
					_, _ = fmt.Fprintf(w, "Transferred %d of %d to %s (%d failed)\n", res.Completed, res.Queued, d.Name, res.Failed)
					return nil
				}); err != nil {
					return err
				}
				if res.Failed > 0 {
					return fmt.Errorf("%d of %d transfers failed", res.Failed, res.Queued)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination ID or name")
	cmd.Flags().Int64SliceVar(&groupIDs, "groups", nil, "Group IDs (comma separated)")
	cmd.Flags().Int64SliceVar(&jobIDs, "jobs", nil, "Job IDs (comma separated)")
	return cmd
}

// selectJobs expands the selection, defaulting to every confirmed job.
func selectJobs(store *library.Store, groupIDs, jobIDs []int64) ([]int64, error) {
	if len(groupIDs) > 0 || len(jobIDs) > 0 {
		return transfer.ExpandGroups(store, groupIDs, jobIDs)
	}
	jobs, _, err := store.ListJobs(library.JobFilter{Statuses: []library.Status{library.StatusConfirmed}})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, transfer.ErrNothingToTransfer
	}
	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids, nil
}

func jobNames(store *library.Store, ids []int64) (map[int64]string, error) {
	jobs, _, err := store.ListJobs(library.JobFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(jobs))
	for _, j := range jobs {
		names[j.ID] = j.FileName
	}
	return names, nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressRenderer prints one line per finished job. On a terminal it also
// keeps a live status line for the latest in-flight update.
type progressRenderer struct {
	w     io.Writer
	live  bool
	names map[int64]string
	total int

	finished int
	lineLen  int
}

func (r *progressRenderer) name(id int64) string {
	if n, ok := r.names[id]; ok {
		return n
	}
	return fmt.Sprintf("job %d", id)
}

func (r *progressRenderer) consume(ch <-chan transfer.Progress) {
	for p := range ch {
		if p.Terminal() {
			r.finished++
			r.clearLine()
			if p.Status == transfer.StatusCompleted {
				_, _ = fmt.Fprintf(r.w, "[%d/%d] ok     %s -> %s\n", r.finished, r.total, r.name(p.JobID), p.DestinationPath)
			} else {
				_, _ = fmt.Fprintf(r.w, "[%d/%d] failed %s: %s\n", r.finished, r.total, r.name(p.JobID), p.Error)
			}
			continue
		}
		if r.live {
			r.status(p)
		}
	}
	r.clearLine()
}

func (r *progressRenderer) status(p transfer.Progress) {
	line := fmt.Sprintf("%3.0f%% %s (%s / %s)", p.Progress*100, truncate(r.name(p.JobID), 50),
		formatSize(p.BytesTransferred), formatSize(p.TotalBytes))
	pad := ""
	if n := r.lineLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	_, _ = fmt.Fprint(r.w, "\r"+line+pad)
	r.lineLen = len(line)
}

func (r *progressRenderer) clearLine() {
	if !r.live || r.lineLen == 0 {
		return
	}
	_, _ = fmt.Fprint(r.w, "\r"+strings.Repeat(" ", r.lineLen)+"\r")
	r.lineLen = 0
}
