package main

import (
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"code-sourcery.de/time-elapsed/common"
	"code-sourcery.de/time-elapsed/config"
	"code-sourcery.de/time-elapsed/elapsed"
	"code-sourcery.de/time-elapsed/logger"
	"code-sourcery.de/time-elapsed/restapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var log = logger.GetLogger("main")

var gitCommit string
var buildTimestamp string
var buildVersion string

func printUsage() {
	println("Usage: [-h|-help|--help] [-e|--env <file>] [-c|--check <start> <end> <amount> [-u|--unit <unit>]] <CONFIG FILE>")
	println()
	println("-h | -help | --help => Print help")
	println("-e | --env <file> => Load environment variables from <file> (default: .env if present)")
	println("-c | --check <start> <end> <amount> => Check once whether <amount> units elapsed between <start> and <end>, then exit")
	println("-u | --unit <unit> => Unit for --check, one of " + common.Join(elapsed.Units(), "|", func(u elapsed.TimeUnit) string {
		return u.Singular() + "[s]"
	}) + " (default: " + elapsed.DefaultUnit + ")")
	println()
	println("Timestamps are RFC3339, 'YYYY-MM-DD hh:mm:ss' or 'YYYY-MM-DD'. Exit code of --check is 0 if elapsed, 1 if not and 2 on error.")
}

func requireArgs(arg string, idx int, count int) {
	if (idx + count) >= len(os.Args) {
		panic("'" + arg + "' option requires " + strconv.Itoa(count) + " argument(s)")
	}
}

func main() {
	if buildVersion != "" {
		common.APPLICATION_VERSION = buildVersion
	}
	log.Info("time-elapsed v" + common.APPLICATION_VERSION + " (" + buildTimestamp + " @ " + gitCommit + ")")

	configFile := ""
	envFile := ""
	var check []string
	unit := elapsed.DefaultUnit

	for idx := 0; idx < len(os.Args); idx = idx + 1 {
		arg := os.Args[idx]
		if idx > 0 {
			if arg == "-h" || arg == "-help" || arg == "--help" {
				printUsage()
				return
			} else if arg == "-e" || arg == "--env" {
				requireArgs(arg, idx, 1)
				envFile = os.Args[idx+1]
				idx = idx + 1
			} else if arg == "-c" || arg == "--check" {
				requireArgs(arg, idx, 3)
				check = os.Args[idx+1 : idx+4]
				idx = idx + 3
			} else if arg == "-u" || arg == "--unit" {
				requireArgs(arg, idx, 1)
				unit = os.Args[idx+1]
				idx = idx + 1
			} else {
				if strings.HasPrefix(arg, "-") {
					panic("Invalid command line - unknown option '" + arg + "'")
				}
				if configFile != "" {
					panic("Invalid command line - unknown extra argument '" + arg + "'")
				}
				configFile = arg
			}
		}
	}

	if check != nil {
		os.Exit(runCheck(check[0], check[1], check[2], unit, time.Local, os.Stdout))
	}

	if envFile != "" {
		if err := config.LoadEnv(envFile, true); err != nil {
			panic(err)
		}
	} else if err := config.LoadEnv(".env", false); err != nil {
		panic(err)
	}

	if configFile == "" {
		panic("Invalid command line - expected config file as only argument")
	}
	appConfig, err := config.LoadConfig(configFile, true)
	if err != nil {
		panic(err)
	}

	log.Info("Configuration loaded, using log level " + appConfig.GetLogLevel().String())
	logger.SetLogLevel(appConfig.GetLogLevel())

	if config.StartWatching(configFile) == nil {
		defer config.StopWatching()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	log.Debug("Starting REST api....")
	err = restapi.Init(appConfig, registry)
	if err != nil {
		panic(err)
	}
	log.Debug("REST api started.")

	defer func() {
		_ = restapi.Shutdown()
	}()

	// Create a channel to receive signals.
	sigChan := make(chan os.Signal, 1)

	// Register the channel to be notified of SIGINT and SIGTERM.
	// SIGINT is for Ctrl+C, SIGTERM is for 'kill' or systemd stop.
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Shutting down, received signal " + sig.String())
}
