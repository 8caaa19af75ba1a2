package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/i5heu/GoRingBuffer/internal/logging"
	"github.com/i5heu/GoRingBuffer/internal/report"
	"github.com/i5heu/GoRingBuffer/internal/testbench"
	"github.com/i5heu/GoRingBuffer/pkg/config"
	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// verifyTimeout bounds one counted integrity run.
const verifyTimeout = 2 * time.Minute

// outputMarkdownTable loads the JSON file and writes a Markdown table of the
// last session to w, one row per implementation and concurrency setting.
func outputMarkdownTable(log *slog.Logger, w io.Writer, jsonFile string) error {
	sessions, err := report.Load(jsonFile)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions found in %q", jsonFile)
	}
	lastSession := sessions[len(sessions)-1]
	log.Debug("rendering markdown", "session", lastSession.SessionTime, "results", len(lastSession.Benchmarks))

	implMetaMap := make(map[string]Implementation[int])
	for _, impl := range getImplementations[int]() {
		implMetaMap[impl.name] = impl
	}

	type tableRow struct {
		implementation string
		pkgName        string
		authors        string
		features       string
		concurrency    string
		throughput     float64
		dropRate       float64
	}
	var rows []tableRow
	for _, bench := range lastSession.Benchmarks {
		meta := implMetaMap[bench.Implementation]
		rows = append(rows, tableRow{
			implementation: bench.Implementation,
			pkgName:        meta.pkgName,
			authors:        strings.Join(meta.authors, ", "),
			features:       strings.Join(meta.features, ", "),
			concurrency:    fmt.Sprintf("%dP/%dC b%d", bench.NumProducers, bench.NumConsumers, bench.MaxBatch),
			throughput:     bench.Throughput,
			dropRate:       bench.DropRate() * 100,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].throughput > rows[j].throughput
	})

	fmt.Fprintln(w, "## Last Session Benchmark Summary")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Implementation                 | Package     | Author                            | Features                                 | Concurrency     | Throughput (msgs/sec) | Dropped % |")
	fmt.Fprintln(w, "|--------------------------------|-------------|-----------------------------------|------------------------------------------|-----------------|-----------------------|-----------|")
	for _, r := range rows {
		fmt.Fprintf(w, "| %-30s | %-11s | %-33s | %-40s | %-15s | %21.0f | %9.2f |\n",
			r.implementation, r.pkgName, r.authors, r.features, r.concurrency, r.throughput, r.dropRate)
	}
	return nil
}

// loadPlan builds the bench plan from -config and the flags that override it.
func loadPlan(path string, set map[string]bool, iterations int, duration time.Duration, capacity uint64, highConcurrency bool) (config.Plan, error) {
	plan := config.Default()
	if path != "" {
		var err error
		if plan, err = config.Load(path); err != nil {
			return plan, err
		}
	}
	if set["iter"] {
		plan.Iterations = iterations
	}
	if set["duration"] {
		plan.Duration = duration
	}
	if set["capacity"] {
		plan.Capacity = capacity
	}
	if highConcurrency {
		plan.Concurrency = append(plan.Concurrency, config.HighConcurrency()...)
	}
	return plan, plan.Validate()
}

// verify pushes plan.VerifyItems sequence-numbered items through a fresh queue
// and checks none were lost, duplicated or reordered.
func verify(impl Implementation[testbench.Item], cfg config.Config, plan config.Plan) error {
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	q := impl.newQueue(plan.Capacity)
	res, err := testbench.RunCountedTest(ctx, q, cfg, plan.VerifyItems, uint64(time.Now().UnixNano()))
	if err != nil {
		return err
	}
	return res.Verify()
}

func main() {
	// Flags.
	testIterations := flag.Int("iter", 5, "Number of test iterations per concurrency setting")
	cpuMaxFlag := flag.Int("cpu", 0, "If non-zero, test only that GOMAXPROCS value; if 0, test common CPU/vCPU values up to runtime.NumCPU()")
	jsonExport := flag.Bool("json", false, "Export results as JSON to test-results.json")
	highConcurrency := flag.Bool("high-concurrency", false, "Include high concurrency configurations")
	markdownTable := flag.Bool("markdown-table", false, "Output markdown table from test-results.json and exit")
	jsonFileForMarkdown := flag.String("jsonfile", "test-results.json", "Path to JSON file for markdown table and export")
	progressFlag := flag.Bool("progress", false, "Display a progress bar with ETA")
	configPath := flag.String("config", "", "Optional YAML bench plan")
	duration := flag.Duration("duration", 5*time.Second, "Duration of each timed run")
	capacity := flag.Uint64("capacity", 1024, "Buffer capacity (power of two)")
	verifyFlag := flag.Bool("verify", false, "Run a counted integrity check per implementation and concurrency setting")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := logging.New(level)

	if *markdownTable {
		if err := outputMarkdownTable(log, os.Stdout, *jsonFileForMarkdown); err != nil {
			log.Error("cannot render markdown table", "err", err)
			os.Exit(1)
		}
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	plan, err := loadPlan(*configPath, set, *testIterations, *duration, *capacity, *highConcurrency)
	if err != nil {
		log.Error("invalid bench plan", "err", err)
		os.Exit(1)
	}
	log.Info("bench plan",
		"capacity", plan.Capacity,
		"duration", plan.Duration,
		"iterations", plan.Iterations,
		"configs", len(plan.Concurrency),
		"verify", *verifyFlag,
	)

	trueCpuCount := runtime.NumCPU()
	var cpuSettings []int
	// Define the common CPU/vCPU settings.
	commonCPUs := []int{1, 2, 3, 4, 6, 8, 12, 16, 32, 48, 56, 64, 96, 128, 192, 256, 384, 512}

	if *cpuMaxFlag > 0 {
		cpuSettings = []int{min(*cpuMaxFlag, trueCpuCount)}
	} else {
		for _, v := range commonCPUs {
			if v <= trueCpuCount {
				cpuSettings = append(cpuSettings, v)
			}
		}
	}

	impls := getImplementations[int]()
	verifyImpls := getImplementations[testbench.Item]()
	for _, impl := range impls {
		log.Debug("implementation", "name", impl.name, "description", impl.description)
	}

	totalTests := len(cpuSettings) * len(plan.Concurrency) * plan.Iterations * len(impls)
	var bar *progressbar.ProgressBar
	if *progressFlag {
		bar = progressbar.NewOptions(totalTests,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("benchmarking"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	var allSessions []report.FullReport

	// Iterate over the desired GOMAXPROCS settings.
	for _, cpus := range cpuSettings {
		runtime.GOMAXPROCS(cpus)
		sysInfo := gatherSystemInfo(log)
		sysInfo.NumCPU = cpus
		sysInfo.TrueCPU = trueCpuCount
		sysInfo.SimulatedCPUCount = cpus

		log.Info("GOMAXPROCS", "cpus", cpus)

		var results []report.BenchmarkResult

		for _, cfg := range plan.Concurrency {
			log.Info("concurrency", "producers", cfg.NumProducers, "consumers", cfg.NumConsumers, "max_batch", cfg.MaxBatch)

			verified := make([]bool, len(impls))
			if *verifyFlag && plan.VerifyItems > 0 {
				for i, impl := range verifyImpls {
					if err := verify(impl, cfg, plan); err != nil {
						log.Error("integrity check failed", "impl", impl.name, "err", err)
						os.Exit(1)
					}
					verified[i] = true
					log.Debug("integrity check passed", "impl", impl.name, "items", plan.VerifyItems)
				}
			}

			for iteration := 1; iteration <= plan.Iterations; iteration++ {
				log.Debug("iteration", "n", iteration, "of", plan.Iterations)
				for i, impl := range impls {
					runtime.GC()
					q := impl.newQueue(plan.Capacity)
					time.Sleep(250 * time.Millisecond)

					produced, consumed, dropped, actualTime := testbench.RunTimedTest(
						q,
						cfg,
						plan.Duration,
						func(i int) int { return i },
					)
					throughput := float64(consumed) / actualTime.Seconds()

					if bar != nil {
						_ = bar.Add(1)
					} else {
						log.Info("result",
							"impl", impl.name,
							"produced", produced,
							"consumed", consumed,
							"dropped", dropped,
							"throughput", fmt.Sprintf("%.0f msg/s", throughput),
							"took", actualTime,
						)
					}

					results = append(results, report.BenchmarkResult{
						Implementation:      impl.name,
						NumProducers:        cfg.NumProducers,
						NumConsumers:        cfg.NumConsumers,
						MaxBatch:            cfg.MaxBatch,
						Capacity:            plan.Capacity,
						NumMessages:         produced,
						NumMessagesConsumed: consumed,
						NumMessagesDropped:  dropped,
						TestDuration:        plan.Duration.String(),
						ActualElapsed:       actualTime.String(),
						Throughput:          throughput,
						Verified:            verified[i],
						Timestamp:           time.Now().Unix(),
						GoVersion:           runtime.Version(),
					})
				}
			}
		}

		allSessions = append(allSessions, report.FullReport{
			SessionTime: time.Now().Format(time.RFC3339),
			SystemInfo:  sysInfo,
			Benchmarks:  results,
		})
	}

	if bar != nil {
		_ = bar.Finish()
	}

	// If JSON export is requested, append the new sessions to the JSON file.
	if *jsonExport {
		if err := report.Append(*jsonFileForMarkdown, allSessions...); err != nil {
			log.Error("cannot export results", "err", err)
			os.Exit(1)
		}
		log.Info("wrote results", "file", *jsonFileForMarkdown, "sessions", len(allSessions))
	}
}

// gatherSystemInfo collects basic CPU and memory details.
func gatherSystemInfo(log *slog.Logger) report.SystemInfo {
	info := report.SystemInfo{
		NumCPU: runtime.NumCPU(),
		GOARCH: runtime.GOARCH,
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
		info.CPUSpeedMHz = infos[0].Mhz
	} else if err != nil {
		log.Warn("cannot read CPU info", "err", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	} else {
		log.Warn("cannot read memory info", "err", err)
	}

	return info
}
