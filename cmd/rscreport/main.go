// rscreport 离线渲染报表：读取工作簿，输出制表符分隔文本或 xlsx（多个视图时每个视图一个工作表）。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"rscboard/internal/calculator"
	"rscboard/internal/config"
	"rscboard/internal/exporter"
	"rscboard/internal/filter"
	"rscboard/internal/importer"
	"rscboard/internal/logger"
	"rscboard/internal/model"
	"rscboard/internal/parser"
	"rscboard/internal/report"
)

var (
	filePath   = flag.String("file", "", "工作簿路径 (.xlsx / .xls)")
	viewNames  = flag.String("view", "region_summary", "报表视图，逗号分隔；all 表示全部")
	regions    = flag.String("region", "", "地区筛选，逗号分隔")
	years      = flag.String("year", "", "年份筛选，逗号分隔")
	status     = flag.String("status", "", "状态筛选 (默认取配置 passed_status)")
	outPath    = flag.String("out", "", "导出 xlsx 路径 (为空时输出到终端)")
	configPath = flag.String("config", "", "配置文件路径")
	listViews  = flag.Bool("list", false, "列出可用视图")
)

func main() {
	flag.Parse()
	if err := run(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(w io.Writer) error {
	if *listViews {
		for _, v := range report.Describe() {
			fmt.Fprintf(w, "%-24s %s (needs: %s)\n", v.Name, v.Title, strings.Join(v.Requires, ", "))
		}
		return nil
	}
	if *filePath == "" {
		return errors.New("-file is required")
	}

	cfg, _, err := config.LoadConfigWithInfo(*configPath)
	if err != nil {
		return err
	}
	cfg.Log.Output = "stdout"
	if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", *filePath, err)
	}

	coord := importer.NewCoordinator(nil, importer.Options{
		Load:     parser.LoadOptions{SheetName: cfg.Report.SheetName, SkipRows: cfg.Report.SkipRows},
		YearFrom: cfg.Report.YearFrom,
		YearTo:   cfg.Report.YearTo,
		Aliases:  cfg.Schema.Aliases,
	})
	ds, _, err := coord.Load(context.Background(), data, *filePath)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"rows":    ds.Stats.TotalRows,
		"working": ds.Stats.WorkingRows,
	}).Info("workbook loaded")

	opts := filter.Options{Status: *status, Regions: splitList(*regions)}
	for _, y := range splitList(*years) {
		n, err := strconv.Atoi(y)
		if err != nil {
			return fmt.Errorf("invalid year %q", y)
		}
		opts.Years = append(opts.Years, n)
	}

	names, err := resolveViews(*viewNames)
	if err != nil {
		return err
	}

	settings := report.Settings{PassedStatus: cfg.Report.PassedStatus, TopN: cfg.Report.TopN}
	sheets, err := renderViews(ds, names, opts, settings)
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		fmt.Fprintln(w, "no data for the current selection")
		return nil
	}

	if *outPath != "" {
		return writeWorkbook(w, sheets, *outPath)
	}

	for i, sh := range sheets {
		if len(sheets) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s\n", sh.Title)
		}
		if err := printTable(w, sh.Table); err != nil {
			return err
		}
	}
	return nil
}

// resolveViews 解析 -view 参数并校验视图名
func resolveViews(arg string) ([]string, error) {
	names := splitList(arg)
	if len(names) == 1 && names[0] == "all" {
		names = names[:0]
		for _, v := range report.Catalog() {
			names = append(names, v.Name)
		}
	}
	if len(names) == 0 {
		return nil, errors.New("-view is required")
	}
	for _, name := range names {
		if _, err := report.Lookup(name); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// renderViews 依次渲染视图；单个视图时错误直接返回，多个视图时跳过无数据或缺列的视图
func renderViews(ds *model.Dataset, names []string, opts filter.Options, settings report.Settings) ([]exporter.Sheet, error) {
	sheets := make([]exporter.Sheet, 0, len(names))
	for _, name := range names {
		table, err := report.Render(ds, name, opts, settings)
		switch {
		case errors.Is(err, filter.ErrEmptyResult) || errors.Is(err, calculator.ErrEmptyInput):
			logrus.WithField("view", name).Warn("no data for the current selection")
			continue
		case errors.Is(err, model.ErrMissingColumn) && len(names) > 1:
			logrus.WithError(err).WithField("view", name).Warn("view skipped")
			continue
		case err != nil:
			return nil, err
		}
		view, _ := report.Lookup(name)
		sheets = append(sheets, exporter.Sheet{Name: view.Title, Title: view.Title, Table: table})
	}
	return sheets, nil
}

func writeWorkbook(w io.Writer, sheets []exporter.Sheet, path string) error {
	f, err := exporter.ExportWorkbook(sheets, func(ev exporter.ProgressEvent) {
		logrus.WithFields(logrus.Fields{
			"sheet":    ev.Sheet,
			"progress": fmt.Sprintf("%d/%d", ev.Done, ev.Total),
			"percent":  ev.Percent(),
		}).Info("sheet written")
	})
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	rows := 0
	for _, sh := range sheets {
		rows += len(sh.Table.Rows)
	}
	fmt.Fprintf(w, "written %s (%d sheets, %d rows)\n", path, len(sheets), rows)
	return nil
}

func printTable(w io.Writer, table *calculator.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Header(), "\t"))
	for _, row := range table.Rows {
		cells := append([]string(nil), row.Key...)
		for _, m := range table.Measures {
			cells = append(cells, row.Value(m).StringFixed(2))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
