package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/tally/internal/domain/leaderboard"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/probe"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printBoard(w io.Writer, b leaderboard.Board) error {
	tw := table(w)
	fmt.Fprintln(tw, "#\tUSER\tTOTAL\tVERIFIED\tCOMPLETED\tPROGRESSED\tPACKS")
	for _, r := range b.Rows {
		names := make([]string, len(r.Packs))
		for i, p := range r.Packs {
			names[i] = p.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%d\t%d\t%d\t%s\n",
			r.Position, r.User, r.Total, len(r.Verified), len(r.Completed), len(r.Progressed), strings.Join(names, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(b.Errors) > 0 {
		_, err := fmt.Fprintf(w, "\nfailed to load: %s\n", strings.Join(b.Errors, ", "))
		return err
	}
	return nil
}

func printLevels(w io.Writer, levels []model.LevelResult) error {
	tw := table(w)
	fmt.Fprintln(tw, "RANK\tNAME\tPATH\tVERIFIER\tRECORDS")
	for _, r := range levels {
		if r.Failed() {
			fmt.Fprintf(tw, "%s\t(failed)\t%s\t\t\n", rank(r.Rank), r.Err)
			continue
		}
		l := r.Level
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", rank(r.Rank), l.Name, l.Path, l.Verifier, len(l.Records))
	}
	return tw.Flush()
}

func printPacks(w io.Writer, packs []model.Pack) error {
	tw := table(w)
	fmt.Fprintln(tw, "NAME\tCOLOUR\tLEVELS")
	for _, p := range packs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Colour, strings.Join(p.Levels, ","))
	}
	return tw.Flush()
}

func printPackLevels(w io.Writer, levels []model.PackLevel) error {
	tw := table(w)
	fmt.Fprintln(tw, "RANK\tPATH\tNAME")
	for _, pl := range levels {
		name := "(failed)"
		if pl.Level != nil {
			name = pl.Level.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", rank(pl.ListRank), pl.Path, name)
	}
	return tw.Flush()
}

func printReport(w io.Writer, rep *probe.Report) {
	fmt.Fprintf(w, "list %s snapshot %s: %d rows, %d ranks checked in %s\n",
		rep.List, rep.Snapshot, rep.Rows, rep.RanksChecked, rep.Duration.Round(time.Millisecond))
	if len(rep.FailedLevels) > 0 {
		fmt.Fprintf(w, "failed to load: %s\n", strings.Join(rep.FailedLevels, ", "))
	}
	if rep.OK() {
		fmt.Fprintln(w, "ok")
		return
	}
	for _, v := range rep.Violations {
		fmt.Fprintln(w, "violation:", v)
	}
}

// rank renders a catalog rank; pending and unranked levels show a dash.
func rank(r int) string {
	if r <= 0 {
		return "-"
	}
	return fmt.Sprint(r)
}
