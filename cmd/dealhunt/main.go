package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"stillgrove.com/godealyourself/pkg/collection"
	gdy "stillgrove.com/godealyourself/pkg/dealservice"
	config "stillgrove.com/godealyourself/pkg/dealservice/config"
	"stillgrove.com/godealyourself/pkg/ranking"
)

const (
	ConfigUsage      = "path to the sources yaml file"
	SourcesUsage     = "comma-separated source names to run, empty runs all enabled"
	MinDiscountUsage = "override the minimum discount percentage from the config"
	YouthUsage       = "keep only youth-flagged or youth-sized deals"
	LimitUsage       = "truncate the ranked output, 0 keeps everything"
	OutUsage         = "override the report output directory from the config"
	VerboseUsage     = "debug logging"
)

var (
	configFlag      string
	sourcesFlag     string
	minDiscountFlag float64
	youthFlag       bool
	limitFlag       int
	outFlag         string
	verboseFlag     bool
	// BuildTime will be populated by the linker to tell builds apart after they were shipped
	BuildTime string
)

func init() {
	flag.StringVar(&configFlag, "config", "config/sources.yaml", ConfigUsage)
	flag.StringVar(&sourcesFlag, "sources", "", SourcesUsage)
	flag.Float64Var(&minDiscountFlag, "min-discount", -1, MinDiscountUsage)
	flag.BoolVar(&youthFlag, "youth-only", false, YouthUsage)
	flag.IntVar(&limitFlag, "limit", 0, LimitUsage)
	flag.StringVar(&outFlag, "out", "", OutUsage)
	flag.BoolVar(&verboseFlag, "v", false, VerboseUsage)
}

func main() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}

	log.WithFields(
		log.Fields{
			"Image Built on": BuildTime,
			"Started at":     time.Now().UTC(),
		},
	).Println("Application Started")

	cfg, err := config.New(configFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if sourcesFlag != "" {
		filterSources(cfg, sourcesFlag)
	}
	if minDiscountFlag >= 0 {
		cfg.Ranking.MinDiscount = minDiscountFlag
	}
	if outFlag != "" {
		cfg.Report.OutDir = outFlag
	}

	svc, err := gdy.New(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ranked, err := svc.Run(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if youthFlag {
		ranked = ranking.FilterYouth(ranked)
	}
	if limitFlag > 0 {
		ranked = ranking.Limit(ranked, limitFlag)
	}

	for i, d := range ranked {
		line := fmt.Sprintf("%3d. [%5.1f] %s - $%s at %s", i+1, d.Score, d.Title, d.Price.StringFixed(2), d.Retailer)
		if pct, ok := d.DiscountPct(); ok {
			line += fmt.Sprintf(" (%.0f%% off)", pct)
		}
		fmt.Println(line)
	}

	log.WithField("deals", len(ranked)).Println("Done")
}

// filterSources disables every source not named on the flag
func filterSources(cfg *config.File, names string) {
	keep := make([]string, 0)
	for _, n := range strings.Split(names, ",") {
		keep = append(keep, strings.TrimSpace(n))
	}

	off := false
	for i := range cfg.Sources {
		if !collection.StringInList(cfg.Sources[i].Name, keep) {
			cfg.Sources[i].Enabled = &off
		}
	}
}
