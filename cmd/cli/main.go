package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/downfa11-org/caskdb/pkg/config"
	"github.com/downfa11-org/caskdb/pkg/store"
)

const usage = `Usage: caskdb [-config FILE] COMMAND [ARGS]

Commands:
  set KEY VALUE   store VALUE under KEY
  get KEY         print the value for KEY, or "Key not found"
  rm KEY          remove KEY
  compact         force a log compaction

The store is rooted at the current working directory.`

func main() {
	configPath := flag.String("config", "", "Path to YAML/JSON config file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
	}
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	st, err := store.Open(dir, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to open store:", err)
		os.Exit(1)
	}
	defer st.Close()

	switch args[0] {
	case "set":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: caskdb set KEY VALUE")
			os.Exit(2)
		}
		if err := st.Set([]byte(args[1]), []byte(args[2])); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

	case "get":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: caskdb get KEY")
			os.Exit(2)
		}
		value, err := st.Get([]byte(args[1]))
		if errors.Is(err, store.ErrKeyNotFound) {
			fmt.Println("Key not found")
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(value))

	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: caskdb rm KEY")
			os.Exit(2)
		}
		if err := st.Remove([]byte(args[1])); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

	case "compact":
		if err := st.Compact(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s\n", args[0], usage)
		os.Exit(2)
	}
}
