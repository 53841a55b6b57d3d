package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chanrelay/internal/app"
	"chanrelay/internal/config"
	"chanrelay/pkg/systemd"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	var (
		cfgPath     string
		envFile     string
		exitZero    bool
		showVersion bool
	)
	flag.StringVar(&cfgPath, "config", "", "optional config file (json or yaml); environment overrides it")
	flag.StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment (missing is fine)")
	flag.BoolVar(&exitZero, "exit-zero", false, "always exit 0, even on failure")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("chanrelay", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res := app.Run(ctx, app.Options{
		ConfigPath: cfgPath,
		EnvFile:    envFile,
	})

	line := res.Line()
	fmt.Println(line)
	_, _ = systemd.Status(line)

	code := res.Status.ExitCode()
	if exitZero {
		code = 0
	}
	cancel()
	os.Exit(code)
}
