package maps

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dGrid/cmd/util"
	"github.com/ValentinKolb/dGrid/rpc/client"
	"github.com/ValentinKolb/dGrid/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf [map]",
		Short:   "Performance testing tool for dGrid servers",
		Long:    "Runs concurrent load against a map and reports throughput and latency percentiles per operation.",
		Args:    cobra.ExactArgs(1),
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// latency timers of all tests
	perfLatencies = gometrics.NewRegistry()
)

// perfPercentiles are the latency percentiles that are reported
var perfPercentiles = []float64{0.5, 0.99}

// perfTest is a single benchmark, op is called with the key of the current iteration
type perfTest struct {
	name    string
	prepare bool // store all keys before the test starts
	op      func(key string, counter int) error
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m := rpcClient.GetMap(args[0])

	fmt.Println("Performance testing tool for dGrid servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Map: %s\n", m.Name())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	tests := []perfTest{
		{name: "put", op: func(key string, _ int) error {
			_, err := m.Put(ctx, key, "test")
			return err
		}},
		{name: "put-large", op: func(key string, _ int) error {
			_, err := m.Put(ctx, key, largeValue)
			return err
		}},
		{name: "get", prepare: true, op: func(key string, _ int) error {
			_, err := m.Get(ctx, key)
			return err
		}},
		{name: "has", prepare: true, op: func(key string, _ int) error {
			_, err := m.ContainsKey(ctx, key)
			return err
		}},
		{name: "has-not", op: func(_ string, counter int) error {
			_, err := m.ContainsKey(ctx, fmt.Sprintf("%s/has-not-%d", perfKeyPrefix, counter%100))
			return err
		}},
		{name: "remove", prepare: true, op: func(key string, _ int) error {
			_, err := m.Remove(ctx, key)
			return err
		}},
		{name: "keys", prepare: true, op: func(_ string, _ int) error {
			_, err := m.KeysWhere(ctx, "this = 'test'")
			return err
		}},
		{name: "mixed", prepare: true, op: func(key string, counter int) error {
			var err error
			switch counter % 4 {
			case 0: // put
				_, err = m.Put(ctx, key, "test")
			case 1: // get
				_, err = m.Get(ctx, key)
			case 2: // remove
				_, err = m.Remove(ctx, key)
			case 3: // has
				_, err = m.ContainsKey(ctx, key)
			}
			return err
		}},
	}

	// Create results map
	results := make(map[string]testing.BenchmarkResult)
	for _, test := range tests {
		result := runPerfTest(ctx, m, test)
		results[test.name] = result
		printResult(test.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runPerfTest runs a single test in parallel and records the latency of every operation
func runPerfTest(ctx context.Context, m client.IMap, test perfTest) testing.BenchmarkResult {
	timer := gometrics.GetOrRegisterTimer(test.name, perfLatencies)

	return testing.Benchmark(func(b *testing.B) {
		if shouldSkip(test.name) {
			return
		}

		// prepare keys
		getKey, iter := getKeys(test.name)

		if test.prepare {
			iter(func(k string) {
				if _, err := m.Put(ctx, k, "test"); err != nil {
					log.Printf("(%s) - error setting key: %v\n", test.name, err)
				}
			})
		}

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				if _, err := m.Remove(ctx, k); err != nil {
					log.Printf("(%s) - error removing key: %v\n", test.name, err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := test.op(getKey(counter), counter); err != nil {
					log.Printf("(%s) - error performing operation: %v\n", test.name, err)
				}
				timer.UpdateSince(start)
				counter++
			}
		})
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// latencies returns the recorded latency percentiles of a test
func latencies(test string) []time.Duration {
	out := make([]time.Duration, len(perfPercentiles))
	timer, ok := perfLatencies.Get(test).(gometrics.Timer)
	if !ok {
		return out
	}
	for i, p := range timer.Snapshot().Percentiles(perfPercentiles) {
		out[i] = time.Duration(p)
	}
	return out
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	l := latencies(test)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec, l[0], l[1])
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Codec", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}
		l := latencies(test)

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			l[0].String(),
			l[1].String(),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("codec"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
