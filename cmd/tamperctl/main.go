package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go-tamper-inspector/internal/logger"
)

const version = "1.0.0"

// exitTampered is returned by verify when the verdict is positive
const exitTampered = 2

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func printAlert(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", alertColor("[!!!]"), fmt.Sprintf(format, args...))
}

// errTampered signals a completed verification with a tampered verdict
var errTampered = errors.New("potential tampering detected")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tamperctl",
		Short:         "Screenshot tamper heuristics from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newVerifyCmd())
	return root
}

func main() {
	// Keep stdout clean for --json
	logger.Logger.SetOutput(os.Stderr)

	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errTampered) {
			os.Exit(exitTampered)
		}
		printError("%v", err)
		os.Exit(1)
	}
}
