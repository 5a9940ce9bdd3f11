package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leengari/tabular/internal/domain/errors"
	"github.com/leengari/tabular/internal/domain/run"
	"github.com/leengari/tabular/internal/engine"
	"github.com/leengari/tabular/internal/query/operations/join"
)

type joinFlags struct {
	modes        join.Flags
	noHeaders    bool
	ignoreCase   bool
	keysOutput   string
	output       string
	delimiter    string
	outDelimiter string
	format       string
	compression  string
	caseFold     string
	jobs         int
	batchSize    int
	stats        bool
}

func (a *App) joinCommand() *cobra.Command {
	var f joinFlags

	cmd := &cobra.Command{
		Use:   "join <key-columns-1> <input-1> <key-columns-2> <input-2>",
		Short: "Join two tables on key columns",
		Long: `Join two tables by matching one or more key columns.

Key columns are comma-separated header names, or 1-based positions with --no-headers.
Both sides must name the same number of columns; they are paired by position.
Use "-" to read one of the inputs from stdin. The default mode is an inner join.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 4 {
				return errors.NewUsageError("join expects 4 arguments (key columns and input for each side), got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runJoin(cmd, args, &f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.noHeaders, "no-headers", "n", false, "inputs have no header row; key columns are 1-based positions")
	flags.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "compare keys case-insensitively")
	flags.BoolVar(&f.modes.Left, "left", false, "left outer join")
	flags.BoolVar(&f.modes.Right, "right", false, "right outer join")
	flags.BoolVar(&f.modes.Full, "full", false, "full outer join")
	flags.BoolVar(&f.modes.Cross, "cross", false, "cartesian product; both key column specs must be empty")
	flags.BoolVar(&f.modes.LeftSemi, "left-semi", false, "left rows with at least one match")
	flags.BoolVar(&f.modes.LeftAnti, "left-anti", false, "left rows without a match")
	flags.BoolVar(&f.modes.RightSemi, "right-semi", false, "right rows with at least one match")
	flags.BoolVar(&f.modes.RightAnti, "right-anti", false, "right rows without a match")
	flags.StringVar(&f.keysOutput, "keys-output", "", "write the distinct matched (or, for anti joins, unmatched) keys to this file")
	flags.StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	flags.StringVarP(&f.delimiter, "delimiter", "d", "", `input field delimiter (default ","; "\t" for tabs)`)
	flags.StringVar(&f.outDelimiter, "out-delimiter", "", "output field delimiter (default: the input delimiter)")
	flags.StringVar(&f.format, "output-format", "", "output format: csv or parquet (default: from the output extension)")
	flags.StringVar(&f.compression, "compression", "snappy", "parquet compression: snappy, gzip, zstd or none")
	flags.StringVar(&f.caseFold, "case-fold", "", "case folding for --ignore-case: ascii or unicode")
	flags.IntVarP(&f.jobs, "jobs", "j", 0, "probe workers (default: number of CPUs)")
	flags.IntVar(&f.batchSize, "batch-size", 0, "probe rows per batch")
	flags.BoolVar(&f.stats, "stats", false, "print join statistics to stderr")

	return cmd
}

func (a *App) runJoin(cmd *cobra.Command, args []string, f *joinFlags) error {
	mode, err := join.ModeFromFlags(f.modes)
	if err != nil {
		return err
	}

	r := run.New("join")
	cfg, err := a.setup(r)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("delimiter") {
		cfg.Join.Delimiter = f.delimiter
	}
	if flags.Changed("case-fold") {
		cfg.Join.CaseFold = f.caseFold
	}
	if flags.Changed("jobs") {
		cfg.Join.Workers = f.jobs
	}
	if flags.Changed("batch-size") {
		cfg.Join.BatchSize = f.batchSize
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	eng := engine.New(cfg.Join, a.Stdin, a.Stdout)
	eng.AddObserver(engine.NewLoggingObserver(nil))

	res, err := eng.Execute(cmd.Context(), engine.Request{
		Run:          r,
		LeftSpec:     args[0],
		LeftPath:     args[1],
		RightSpec:    args[2],
		RightPath:    args[3],
		Mode:         mode,
		NoHeaders:    f.noHeaders,
		IgnoreCase:   f.ignoreCase,
		KeysOutput:   f.keysOutput,
		Output:       f.output,
		OutFormat:    f.format,
		Compression:  f.compression,
		OutDelimiter: f.outDelimiter,
	})
	if err != nil {
		return err
	}

	if f.stats {
		printStats(a.Stderr, res)
	}
	return nil
}

func printStats(w io.Writer, res *engine.Result) {
	s := res.Stats
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "mode\t%s\n", s.Mode)
	fmt.Fprintf(tw, "build rows\t%d\n", s.BuildRows)
	fmt.Fprintf(tw, "distinct keys\t%d\n", s.DistinctKeys)
	fmt.Fprintf(tw, "probe rows\t%d\n", s.ProbeRows)
	fmt.Fprintf(tw, "probe batches\t%d\n", s.Batches)
	fmt.Fprintf(tw, "matched probe rows\t%d\n", s.ProbeMatched)
	fmt.Fprintf(tw, "matched build rows\t%d\n", s.BuildMatched)
	fmt.Fprintf(tw, "tail rows\t%d\n", s.TailRows)
	fmt.Fprintf(tw, "output rows\t%d\n", s.OutputRows)
	if res.KeysWritten {
		fmt.Fprintf(tw, "recorded keys\t%d\n", s.RecordedKeys)
	}
	fmt.Fprintf(tw, "elapsed\t%s\n", res.Elapsed)
	tw.Flush()
}
