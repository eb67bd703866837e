package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/lfskit/internal/chunk"
	"github.com/bamsammich/lfskit/internal/event"
	"github.com/bamsammich/lfskit/internal/size"
	"github.com/bamsammich/lfskit/internal/stats"
)

const defaultPartSize = "90M"

type chunkFlags struct {
	mode     chunk.Mode
	partSize string
}

func (a *app) newSplitCmd() *cobra.Command {
	var f chunkFlags
	cmd := &cobra.Command{
		Use:   "split [file...]",
		Short: "Split files into numbered part files",
		Long: `Split each file into parts of --part-size bytes named <file>.part0,
<file>.part1, ... next to it, then remove the original. Files that already
have parts, and files that do not exist, are left alone.

Without arguments the [chunk] files list from the config file is used.`,
		Example: `  lfskit split model/pytorch_model.bin
  lfskit split --part-size 49M weights/*.safetensors`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.mode = chunk.ModeSplit
			return a.runChunk(cmd, args, f)
		},
	}
	addPartSizeFlag(cmd, &f)
	return cmd
}

func (a *app) newMergeCmd() *cobra.Command {
	var f chunkFlags
	cmd := &cobra.Command{
		Use:   "merge [file...]",
		Short: "Join part files back into the original files",
		Long: `Concatenate <file>.part0, <file>.part1, ... in index order into <file>,
then remove the parts. Files without parts are left alone.

Without arguments the [chunk] files list from the config file is used.`,
		Example: `  lfskit merge model/pytorch_model.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.mode = chunk.ModeMerge
			return a.runChunk(cmd, args, f)
		},
	}
	return cmd
}

func (a *app) newChunkCmd() *cobra.Command {
	var f chunkFlags
	cmd := &cobra.Command{
		Use:   "chunk --mode split|merge [file...]",
		Short: "Split or merge a batch of files",
		Long: `Split or merge every file in order, stopping at the first failure.

--mode falls back to [chunk] mode and the file list to [chunk] files from
the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mode") {
				if a.cfg.Chunk.Mode == nil {
					return errors.New("--mode is required (split or merge)")
				}
				if err := f.mode.Set(*a.cfg.Chunk.Mode); err != nil {
					return fmt.Errorf("config [chunk] mode: %w", err)
				}
			}
			return a.runChunk(cmd, args, f)
		},
	}
	cmd.Flags().VarP(&f.mode, "mode", "m", "split or merge")
	addPartSizeFlag(cmd, &f)
	return cmd
}

func addPartSizeFlag(cmd *cobra.Command, f *chunkFlags) {
	cmd.Flags().StringVarP(&f.partSize, "part-size", "s", defaultPartSize,
		"maximum part size (e.g. 90M, 1.5G; plain numbers are bytes)")
}

func (a *app) runChunk(cmd *cobra.Command, args []string, f chunkFlags) error {
	files := args
	if len(files) == 0 {
		files = a.cfg.Chunk.Files
	}
	if len(files) == 0 {
		return errors.New("no files given (arguments or [chunk] files in config)")
	}

	var partSize int64
	if f.mode == chunk.ModeSplit {
		s := pick(cmd.Flags().Changed("part-size"), f.partSize, a.cfg.Chunk.PartSize)
		n, err := size.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid --part-size: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("invalid --part-size %q: %w", s, chunk.ErrInvalidPartSize)
		}
		partSize = n
	}

	return a.execute(cmd.Context(), "",
		func(ctx context.Context, events chan<- event.Event, collector *stats.Collector) error {
			c := chunk.New(chunk.Config{Events: events, Stats: collector})
			return c.ProcessBatchBytes(ctx, files, f.mode, partSize)
		})
}
