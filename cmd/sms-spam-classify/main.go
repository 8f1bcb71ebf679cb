package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/sms-spam-detector/internal/adapters/frontend"
	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/di"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		// The frontend has already printed the warning for blank input
		if !errors.Is(err, core.ErrEmptyInput) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand(stdin io.Reader, stdout io.Writer) *cobra.Command {
	flags := &di.CLIFlags{}

	cmd := &cobra.Command{
		Use:   "sms-spam-classify [message]",
		Short: "Classify a single SMS message as spam or ham",
		Long: `Classify a single SMS message with a fitted vectorizer and classifier.

The message is taken from the arguments, then --file, then stdin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(args, flags.InputFile, stdin)
			if err != nil {
				return err
			}
			return classify(cmd.Context(), flags, message, stdout)
		},
	}

	// Artifact flags
	cmd.Flags().StringVar(&flags.Vectorizer, "vectorizer", "", "Path to the fitted vectorizer artifact")
	cmd.Flags().StringVar(&flags.Classifier, "classifier", "", "Path to the fitted classifier artifact")
	cmd.Flags().StringVar(&flags.SpamLabel, "spam-label", "", "Classifier label that means spam")

	// Output flags
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output format (text, json)")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Print details and enable debug logging")
	cmd.Flags().BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	// Input flags
	cmd.Flags().StringVarP(&flags.InputFile, "file", "f", "", "Read the message from a file")
	cmd.Flags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file (flags override its values)")

	return cmd
}

// readMessage picks the message source: arguments first, then the input
// file, then stdin
func readMessage(args []string, inputFile string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func classify(ctx context.Context, flags *di.CLIFlags, message string, stdout io.Writer) error {
	container, err := di.BuildCLIContainer(flags, stdout)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(logger *zap.Logger, cli *frontend.CliFrontend) error {
		defer logger.Sync()

		_, err := cli.ProcessMessage(ctx, message)
		return err
	})
}
