package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"

	"github.com/abhi-fuelbuddy/dispenser-sdk/helpers/cli"
	"github.com/abhi-fuelbuddy/dispenser-sdk/log2"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump"
	pump_config "github.com/abhi-fuelbuddy/dispenser-sdk/pump/config"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump/sanki"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump/serialport"
	"github.com/abhi-fuelbuddy/dispenser-sdk/pump/zcheng"
	"github.com/abhi-fuelbuddy/dispenser-sdk/sale"
)

const usage = `syntax: <command> [arg]
commands take an optional argument, e.g. setPreset 10.50
sale N runs one full preset sale of N litres and reports progress

(meta)
- help     this text
- log=yes  enable debug logging
- log=no   disable debug logging
- quit     exit
`

var log = log2.NewStderr(log2.LInfo)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "", "HCL config path, overrides other flags")
	devicePath := cmdline.String("device", "/dev/ttyUSB0", "serial device")
	vendorName := cmdline.String("vendor", "sanki", "zcheng|sanki")
	baud := cmdline.Int("baud", 9600, "")
	address := cmdline.Int("address", 1, "zcheng head address")
	timeoutMs := cmdline.Int("timeout", 2000, "reply timeout, milliseconds")
	scopeName := cmdline.String("checksum-scope", "delimiter", "sanki checksum scope delimiter|data")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	cfg := &pump_config.Config{
		Vendor:        *vendorName,
		Device:        *devicePath,
		Baud:          *baud,
		Address:       *address,
		TimeoutMs:     *timeoutMs,
		ChecksumScope: *scopeName,
	}
	if *configPath != "" {
		var err error
		if cfg, err = pump_config.ReadFile(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if cfg.LogDebug {
		log.SetLevel(log2.LDebug)
	}

	port, err := serialport.Open(cfg.Device, cfg.Baud, log)
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	session := pump.NewSession(port, cfg.Timeout(), log)
	var commands map[string]pump.CommandFunc
	var ctl sale.Controller
	switch cfg.Vendor {
	case "zcheng":
		c := zcheng.NewController(session, byte(cfg.Address), log)
		commands, ctl = c.Commands(), c
	case "sanki":
		scope, err := sanki.ParseChecksumScope(cfg.ChecksumScope)
		if err != nil {
			log.Fatal(err)
		}
		c := sanki.NewController(session, scope, log)
		commands, ctl = c.Commands(), c
	default:
		log.Fatalf("unknown vendor=%s", cfg.Vendor)
	}
	commands["sale"] = newSaleCommand(ctl, cfg, log)

	cli.MainLoop("pump-cli", newExecutor(commands), newCompleter(commands))
}

func newSaleCommand(ctl sale.Controller, cfg *pump_config.Config, log *log2.Log) pump.CommandFunc {
	return func(ctx context.Context, arg string) (string, error) {
		target, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", errors.Annotatef(err, "sale target=%s", arg)
		}
		runner := sale.NewRunner(ctl, cfg.PollInterval(), log)
		progress, err := runner.Run(ctx, target)
		if err != nil {
			return "", errors.Trace(err)
		}
		return fmt.Sprintf("dispensed=%.2f percent=%.2f", progress.Dispensed, progress.Percentage), nil
	}
}

func newExecutor(commands map[string]pump.CommandFunc) func(line string) {
	return func(line string) {
		line = strings.TrimSpace(line)
		switch line {
		case "":
			return
		case "help":
			log.Infof(usage)
			return
		case "log=yes":
			log.SetLevel(log2.LDebug)
			return
		case "log=no":
			log.SetLevel(log2.LError)
			return
		case "quit", "exit":
			os.Exit(0)
		}

		name, arg := line, ""
		if i := strings.IndexByte(line, ' '); i >= 0 {
			name, arg = line[:i], strings.TrimSpace(line[i+1:])
		}
		fn, ok := commands[name]
		if !ok {
			log.Errorf("unknown command=%s try help", name)
			return
		}
		out, err := fn(context.Background(), arg)
		if err != nil {
			log.Errorf("%s err=%v", name, err)
			return
		}
		if out == "" {
			out = "ok"
		}
		log.Infof("%s: %s", name, out)
	}
}

func newCompleter(commands map[string]pump.CommandFunc) func(d prompt.Document) []prompt.Suggest {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	suggests := make([]prompt.Suggest, 0, len(names)+4)
	for _, name := range names {
		suggests = append(suggests, prompt.Suggest{Text: name})
	}
	suggests = append(suggests,
		prompt.Suggest{Text: "help"},
		prompt.Suggest{Text: "log=yes", Description: "enable debug logging"},
		prompt.Suggest{Text: "log=no", Description: "disable debug logging"},
		prompt.Suggest{Text: "quit"},
	)
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}
