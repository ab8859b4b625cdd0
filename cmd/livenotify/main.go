package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"livenotify/internal/app"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "./config.json", "path to config file (json or yaml)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "enable debug logging")
	flag.BoolVar(&opts.DebugAPI, "debug-api", false, "log API request details (secrets redacted)")
	test := flag.Bool("test", false, "send a test notification and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(opts)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer a.Close()

	if *test {
		if err := a.SendTest(ctx); err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		return
	}

	if err := a.Run(ctx); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
