package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/downfa11-org/caskdb/pkg/bench"
)

func main() {
	dir := flag.String("dir", "bench-data", "store directory")
	writers := flag.Int("writers", 4, "number of concurrent writers")
	readers := flag.Int("readers", 4, "number of concurrent readers")
	ops := flag.Int("ops", 10000, "operations per worker")
	valueSize := flag.Int("value-size", 256, "value size in bytes")
	compression := flag.String("compression", "none", "value compression (none, gzip, lz4)")
	flag.Parse()

	runner := bench.NewBenchmarkRunner(*dir, *writers, *readers, *ops, *valueSize, *compression)
	if err := runner.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "benchmark failed:", err)
		os.Exit(1)
	}
}
