package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/BaSui01/roundtable/config"
	"github.com/BaSui01/roundtable/quick"
	"github.com/BaSui01/roundtable/sink"
	"github.com/BaSui01/roundtable/types"
)

// =============================================================================
// 📜 transcript 命令
// =============================================================================

func runTranscript(args []string) int {
	fs := flag.NewFlagSet("transcript", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	source := fs.String("source", "", "db or redis")
	limit := fs.Int("limit", 20, "Number of runs to list")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ctx := context.Background()
	if err := transcript(ctx, cfg, *source, fs.Arg(0), *limit, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "transcript: %v\n", err)
		return 1
	}
	return 0
}

// transcript lists recent runs, or replays runID through the console sink.
// Listing needs the database; replay works from either source.
func transcript(ctx context.Context, cfg *config.Config, source, runID string, limit int, out io.Writer, logger *zap.Logger) error {
	if source == "" {
		source = "db"
		if !cfg.Database.Enabled && cfg.Redis.Enabled {
			source = "redis"
		}
	}

	var (
		load func(context.Context, string) (*types.RunResult, error)
		list func(context.Context, int) ([]sink.TranscriptRun, error)
	)
	switch source {
	case "db":
		tr, closer, err := quick.OpenTranscript(ctx, cfg.Database, logger, nil)
		if err != nil {
			return err
		}
		defer closer.Close()
		load, list = tr.Load, tr.Runs
	case "redis":
		rs, closer, err := quick.OpenRedisStream(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer closer.Close()
		load = rs.Read
	default:
		return fmt.Errorf("unknown source %q (db, redis)", source)
	}

	if runID == "" {
		if list == nil {
			return fmt.Errorf("listing runs needs the database source; pass a run ID to read from %s", source)
		}
		runs, err := list(ctx, limit)
		if err != nil {
			return err
		}
		printRuns(out, runs)
		return nil
	}

	res, err := load(ctx, runID)
	if err != nil {
		return err
	}
	console := sink.NewConsole(out, sink.WithColor(cfg.Chat.Color))
	for _, msg := range res.Messages {
		if err := console.OnMessage(ctx, msg); err != nil {
			return err
		}
	}
	console.OnComplete(ctx, res)
	return nil
}

func printRuns(out io.Writer, runs []sink.TranscriptRun) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No archived runs.")
		return
	}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Run ID", "Started", "Turns", "Stop Reason", "Participants"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")

	for _, r := range runs {
		reason := r.StopReason
		if reason == "" {
			reason = "(running)"
		}
		table.Append([]string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Turns),
			reason,
			r.Participants,
		})
	}
	table.Render()
}
