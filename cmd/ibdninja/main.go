// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"ibdninja/internal/config"
	"ibdninja/internal/ddl"
	"ibdninja/internal/dict"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/inspector"
	"ibdninja/internal/output"
)

type rootFlags struct {
	file          string
	configPath    string
	format        string
	noPrintRecord bool
}

// version is the tool's release version, surfaced through cobra's built-in
// --version flag.
const version = "1.0.0"

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:     "ibdninja",
		Short:   "Offline inspector for a single InnoDB .ibd tablespace file",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&flags.file, "file", "", "Path to the .ibd tablespace file (required)")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Optional TOML file carrying CLI defaults")
	rootCmd.PersistentFlags().StringVarP(&flags.format, "format", "f", "", "Output format: human, json, or summary")
	rootCmd.PersistentFlags().BoolVar(&flags.noPrintRecord, "no-print-record", false, "Suppress per-record detail")

	rootCmd.AddCommand(tablesCmd(flags))
	rootCmd.AddCommand(levelsCmd(flags))
	rootCmd.AddCommand(analyzeCmd(flags))
	rootCmd.AddCommand(pageCmd(flags))
	rootCmd.AddCommand(describeCmd(flags))
	rootCmd.AddCommand(dumpCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolve fills every flag still at its zero value from the config file, so
// a non-empty --file or --format on the command line wins. --no-print-record
// can only be switched on this way: an explicit --no-print-record=false does
// not override no_print_record = true in the config file.
func resolve(flags *rootFlags) error {
	defaults, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.file == "" {
		flags.file = defaults.File
	}
	if flags.format == "" {
		flags.format = defaults.Format
	}
	if !flags.noPrintRecord {
		flags.noPrintRecord = defaults.NoPrintRecord
	}
	if flags.file == "" {
		return ibderr.New(ibderr.InvalidArgument, "--file is required")
	}
	return nil
}

func openSession(flags *rootFlags) (*inspector.Session, output.Formatter, error) {
	if err := resolve(flags); err != nil {
		return nil, nil, err
	}
	f, err := output.NewFormatter(flags.format)
	if err != nil {
		return nil, nil, err
	}
	sess, err := inspector.Open(flags.file)
	if err != nil {
		return nil, nil, err
	}
	return sess, f, nil
}

func tablesCmd(flags *rootFlags) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables recovered from SDI",
		RunE: func(_ *cobra.Command, _ []string) error {
			sess, f, err := openSession(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			report := &output.TableListReport{}
			for _, t := range sess.Tables {
				if !all && !t.IsTableSupported() {
					continue
				}
				report.Tables = append(report.Tables, output.TableRef{
					ID:         t.SEPrivateID,
					Name:       t.Name,
					SchemaName: t.SchemaName,
					Supported:  t.IsTableSupported(),
					Reason:     t.UnsupportedReasonString(),
				})
			}
			rendered, err := f.FormatTableList(report)
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List all tables, including unsupported ones")
	return cmd
}

func levelsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels <table-id> <index-id>",
		Short: "Show the leftmost page at every level of an index",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, f, err := openSession(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			_, idx, err := lookupIndex(sess, args[0], args[1])
			if err != nil {
				return err
			}
			levels, err := sess.Levels(idx)
			if err != nil {
				return err
			}
			rendered, err := f.FormatLevels(&output.LevelsReport{IndexName: idx.Name, Levels: levels})
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
	return cmd
}

func analyzeCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Walk a table or index, decoding every record",
	}
	cmd.AddCommand(analyzeTableCmd(flags))
	cmd.AddCommand(analyzeIndexCmd(flags))
	return cmd
}

func analyzeTableCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "table <table-id>",
		Short: "Analyze every supported index on a table, by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, f, err := openSession(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t := sess.FindTableByID(id)
			if t == nil {
				return ibderr.New(ibderr.InvalidArgument, "no table with id %d", id)
			}
			stats, recordsByIndex, err := sess.AnalyzeTable(t, !flags.noPrintRecord)
			if err != nil {
				return err
			}
			report := &output.TableReport{TableName: t.Name}
			for _, idx := range t.Indexes {
				s, ok := stats[idx.Name]
				if !ok {
					continue
				}
				report.Indexes = append(report.Indexes, output.IndexReport{
					IndexName: idx.Name,
					Stats:     s,
					Records:   recordsByIndex[idx.Name],
				})
			}
			rendered, err := f.FormatTable(report)
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
}

func analyzeIndexCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "index <table-id> <index-id>",
		Short: "Analyze a single index, by table and index id",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, f, err := openSession(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			_, idx, err := lookupIndex(sess, args[0], args[1])
			if err != nil {
				return err
			}
			stats, records, err := sess.AnalyzeIndex(idx, !flags.noPrintRecord)
			if err != nil {
				return err
			}
			rendered, err := f.FormatIndex(&output.IndexReport{IndexName: idx.Name, Stats: stats, Records: records})
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
}

func pageCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "page <table-id> <index-id> <page-no>",
		Short: "Parse a single page belonging to an index",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, f, err := openSession(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			_, idx, err := lookupIndex(sess, args[0], args[1])
			if err != nil {
				return err
			}
			pageNo, err := parsePageNo(args[2])
			if err != nil {
				return err
			}
			stats, recs, err := sess.ParsePage(idx, pageNo, !flags.noPrintRecord)
			if err != nil {
				return err
			}
			rendered, err := f.FormatPage(&output.PageReport{PageNo: pageNo, Stats: stats, Records: recs})
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
}

func describeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table-id>",
		Short: "Render an approximate CREATE TABLE for a table, by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, f, err := openSession(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t := sess.FindTableByID(id)
			if t == nil {
				return ibderr.New(ibderr.InvalidArgument, "no table with id %d", id)
			}
			stmt, err := ddl.Describe(t)
			if err != nil {
				return err
			}
			rendered, err := f.FormatDescribe(&output.DescribeReport{TableName: t.Name, DDL: stmt})
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
}

func dumpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <table-id>",
		Short: "Dump the full decoded dictionary model of a table, field by field",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, f, err := openSession(flags)
			if err != nil {
				return err
			}
			defer sess.Close()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t := sess.FindTableByID(id)
			if t == nil {
				return ibderr.New(ibderr.InvalidArgument, "no table with id %d", id)
			}
			rendered, err := f.FormatDump(&output.DumpReport{TableName: t.Name, Table: t})
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}
}

func lookupIndex(sess *inspector.Session, tableArg, indexArg string) (*dict.Table, *dict.Index, error) {
	tableID, err := parseID(tableArg)
	if err != nil {
		return nil, nil, err
	}
	indexID, err := parseID(indexArg)
	if err != nil {
		return nil, nil, err
	}
	t := sess.FindTableByID(tableID)
	if t == nil {
		return nil, nil, ibderr.New(ibderr.InvalidArgument, "no table with id %d", tableID)
	}
	owner, idx := sess.FindIndexByID(indexID)
	if idx == nil || owner != t {
		return nil, nil, ibderr.New(ibderr.InvalidArgument, "no index with id %d on table %q", indexID, t.Name)
	}
	return t, idx, nil
}

func parseID(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ibderr.Wrap(ibderr.InvalidArgument, err, "parse id %q", s)
	}
	return v, nil
}

func parsePageNo(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, ibderr.Wrap(ibderr.InvalidArgument, err, "parse page number %q", s)
	}
	return uint32(v), nil
}
