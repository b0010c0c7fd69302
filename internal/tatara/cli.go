package tatara

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// printHelp prints the commands table
func printHelp() {
	colSuccess.Println("Usage: tatara <command> [arguments]")
	fmt.Println()
	color.Info.Println("Available Commands:")

	type cmdInfo struct {
		Cmd  string
		Args string
		Desc string
	}
	cmds := []cmdInfo{
		{"build, b", "<gcc-version> [glibc-version]", "Build the toolchain and package it"},
		{"fetch, f", "<name> <version>", "Download and extract one source (gcc or glibc)"},
		{"version, --version", "", "Version information"},
	}

	maxLen := 0
	for _, c := range cmds {
		length := len(c.Cmd) + len(c.Args)
		if c.Args != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	for _, c := range cmds {
		var usageString string
		if c.Args != "" {
			usageString = fmt.Sprintf("  %s %s", c.Cmd, c.Args)
		} else {
			usageString = fmt.Sprintf("  %s", c.Cmd)
		}

		fmt.Print("  ")
		color.Bold.Print(c.Cmd)
		if c.Args != "" {
			fmt.Print(" ")
			color.Cyan.Print(c.Args)
		}

		pad := columnWidth - len(usageString)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))

		color.Info.Println(c.Desc)
	}

	fmt.Println()
}

// Main is the CLI entrypoint for cmd/tatara.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// Graceful cancellation on the first signal, forced exit on the second.
	go func() {
		for {
			select {
			case sig := <-sigs:
				colArrow.Print("\n-> ")
				color.Danger.Printf("Received %v. Cancelling process gracefully\n", sig)
				cancel()

				// Give the running command a moment to die and flush
				time.Sleep(100 * time.Millisecond)

				select {
				case <-sigs:
					colArrow.Print("\n-> ")
					color.Danger.Printf("Second interrupt received. Forcing immediate exit.")
					os.Exit(130)
				case <-time.After(2 * time.Second):
					colArrow.Print("\n-> ")
					color.Danger.Printf("Graceful shutdown timeout. Exiting.")
					os.Exit(130)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	if ctx.Err() != nil {
		return
	}

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	cfg, err := loadConfig(ConfigFile)
	if err != nil {
		colWarn.Printf("warning: failed to read %s: %v\n", ConfigFile, err)
	}
	initConfig(cfg)

	UserExec = &Executor{
		Context:         ctx,
		ShouldRunAsRoot: false,
	}
	RootExec = &Executor{
		Context:         ctx,
		ShouldRunAsRoot: true,
	}

	exitCode := 0

	switch os.Args[1] {
	case "version", "--version":
		fmt.Printf("tatara %s (%s, built %s)\n", version, hostArch, buildDate)

	case "fetch", "f":
		if len(os.Args) < 4 {
			fmt.Println("Usage: tatara fetch <name> <version>")
			exitCode = 1
			break
		}
		if err := os.MkdirAll(srcDir, 0o755); err != nil {
			colError.Println("Error:", err)
			exitCode = 1
			break
		}
		tree, err := fetchSource(os.Args[2], os.Args[3], cfg)
		if err != nil {
			colError.Println("Error:", err)
			exitCode = 1
			break
		}
		arrowf("Source ready: %s\n", tree.ExtractedPath)

	case "build", "b":
		req, err := newBuildRequest(cfg, os.Args[2:])
		if err != nil {
			colError.Println("Error:", err)
			exitCode = 1
			break
		}
		if err := runPipeline(ctx, cfg, req); err != nil {
			colArrow.Print("-> ")
			color.Danger.Printf("Pipeline failed: %v\n", err)
			exitCode = 1
		}

	default:
		fmt.Println("Unknown command:", os.Args[1])
		printHelp()
		exitCode = 1
	}

	os.Exit(exitCode)
}
