package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/ports"
	"github.com/mikey/sms-spam-detector/internal/utils"
	"go.uber.org/zap"
)

// Output formats of the CLI frontend
const (
	OutputText = "text"
	OutputJSON = "json"
)

// CliFrontend classifies messages given on the command line and prints the
// result
type CliFrontend struct {
	service       *core.SpamDetectorService
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	out           io.Writer
	format        string
	verbose       bool
}

var _ ports.Frontend = (*CliFrontend)(nil)

// NewCliFrontend creates a new CLI frontend
func NewCliFrontend(
	service *core.SpamDetectorService,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	out io.Writer,
	format string,
	verbose bool,
) (*CliFrontend, error) {
	if format != OutputText && format != OutputJSON {
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return &CliFrontend{
		service:       service,
		textProcessor: textProcessor,
		logger:        logger,
		out:           out,
		format:        format,
		verbose:       verbose,
	}, nil
}

type cliResult struct {
	Outcome           string  `json:"outcome"`
	Confidence        float64 `json:"confidence"`
	ConfidenceDisplay string  `json:"confidence_display"`
	ProbabilitySpam   float64 `json:"probability_spam"`
	ProbabilityHam    float64 `json:"probability_ham"`
	NormalizedText    string  `json:"normalized_text"`
	Model             string  `json:"model"`
	DurationMS        float64 `json:"duration_ms"`
}

// ProcessMessage classifies a message and writes the outcome. Blank input
// prints the warning and returns core.ErrEmptyInput.
func (f *CliFrontend) ProcessMessage(ctx context.Context, message string) (*core.PredictionResult, error) {
	f.logger.Debug("Processing message", zap.String("preview", f.textProcessor.Preview(message)))

	startTime := time.Now()
	result, err := f.service.Classify(ctx, message)
	duration := time.Since(startTime)

	if errors.Is(err, core.ErrEmptyInput) {
		if f.format == OutputJSON {
			f.writeJSON(map[string]string{"outcome": "empty_input", "error": EmptyInputWarning})
		} else {
			fmt.Fprintln(f.out, EmptyInputWarning)
		}
		return nil, err
	}
	if err != nil {
		f.logger.Error("Failed to classify message", zap.Error(err))
		return nil, err
	}

	if f.format == OutputJSON {
		f.writeJSON(cliResult{
			Outcome:           result.Label.String(),
			Confidence:        result.Confidence,
			ConfidenceDisplay: result.ConfidenceDisplay(),
			ProbabilitySpam:   result.ProbabilityOfSpam,
			ProbabilityHam:    result.ProbabilityOfHam,
			NormalizedText:    result.NormalizedText,
			Model:             result.ModelUsed,
			DurationMS:        float64(duration.Microseconds()) / 1000,
		})
		return result, nil
	}

	if result.IsSpam() {
		fmt.Fprintf(f.out, "SPAM DETECTED\n")
		fmt.Fprintf(f.out, "This message is classified as SPAM with %s%% confidence.\n", result.ConfidenceDisplay())
	} else {
		fmt.Fprintf(f.out, "NOT SPAM\n")
		fmt.Fprintf(f.out, "This message is classified as HAM (not spam) with %s%% confidence.\n", result.ConfidenceDisplay())
	}

	if f.verbose {
		fmt.Fprintf(f.out, "\n=== Details ===\n")
		fmt.Fprintf(f.out, "Original message: %s\n", f.textProcessor.SanitizeUTF8(message))
		fmt.Fprintf(f.out, "Processed text: %s\n", result.NormalizedText)
		fmt.Fprintf(f.out, "Prediction probabilities:\n")
		fmt.Fprintf(f.out, "- Spam: %s%%\n", core.FormatPercent(result.ProbabilityOfSpam*100))
		fmt.Fprintf(f.out, "- Ham: %s%%\n", core.FormatPercent(result.ProbabilityOfHam*100))
		fmt.Fprintf(f.out, "Model used: %s\n", result.ModelUsed)
		fmt.Fprintf(f.out, "Processing time: %v\n", duration)
	}

	return result, nil
}

func (f *CliFrontend) writeJSON(v any) {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.logger.Error("Failed to write result", zap.Error(err))
	}
}

// Start is a no-op for the CLI frontend
func (f *CliFrontend) Start() error {
	return nil
}

// Stop is a no-op for the CLI frontend
func (f *CliFrontend) Stop() error {
	return nil
}
