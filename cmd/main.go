package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drgkaleda/go-echoping"
	"github.com/drgkaleda/go-echoping/pinger"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	cfg := echoping.DefaultConfig()
	var (
		timeoutSec int
		intervalMS int
		only4      bool
		only6      bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "echoping [flags] <target>",
		Short: "Send ICMP echo requests to a host and report latency and loss",
		Long: `Send ICMP echo requests to a host and report latency and loss.

  The target is a host name or an IPv4/IPv6 address. Raw ICMP sockets need
  root or CAP_NET_RAW; --privileged=false switches to unprivileged datagram
  ICMP sockets where the system allows them.

  Examples:
    echoping 1.1.1.1
    echoping -c 10 -i 200 -s 56 example.com
    echoping -6 --privileged=false localhost`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if only4 && only6 {
				return fmt.Errorf("-4 and -6 are mutually exclusive")
			}
			if timeoutSec <= 0 {
				return fmt.Errorf("timeout must be positive")
			}
			if intervalMS < 0 {
				return fmt.Errorf("interval cannot be negative")
			}

			cfg.Target = args[0]
			cfg.Timeout = time.Duration(timeoutSec) * time.Second
			cfg.Interval = time.Duration(intervalMS) * time.Millisecond
			switch {
			case only4:
				cfg.Network = "ip4"
			case only6:
				cfg.Network = "ip6"
			}

			ep, err := echoping.New(cfg)
			if err != nil {
				return err
			}
			if verbose {
				ep.SetLogger(pinger.StdLogger{Logger: log.New(os.Stderr, "echoping: ", log.LstdFlags|log.Lmicroseconds)})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = ep.Run(ctx, newPrinter(cmd.OutOrStdout()))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.Count, "count", "c", cfg.Count, "number of echo requests to send")
	flags.IntVarP(&timeoutSec, "timeout", "t", int(cfg.Timeout/time.Second), "per-probe timeout in seconds")
	flags.IntVarP(&cfg.Size, "size", "s", cfg.Size, "payload size in bytes")
	flags.IntVarP(&intervalMS, "interval", "i", int(cfg.Interval/time.Millisecond), "interval between probes in milliseconds")
	flags.BoolVarP(&only4, "ipv4", "4", false, "resolve and ping over IPv4 only")
	flags.BoolVarP(&only6, "ipv6", "6", false, "resolve and ping over IPv6 only")
	flags.BoolVar(&cfg.Privileged, "privileged", cfg.Privileged, "use raw ICMP sockets (needs root or CAP_NET_RAW)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log discarded datagrams and other diagnostics to stderr")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✖ error:", err)
		os.Exit(1)
	}
}
