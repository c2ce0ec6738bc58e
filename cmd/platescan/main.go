package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"platescan"
	"platescan/bootstrap"
	"platescan/pipeline"
	"platescan/slack"
)

func main() {
	var (
		imagePath = flag.String("image", "", "path to the food image")
		grams     = flag.Float64("grams", 100, "portion size in grams")
		dump      = flag.Bool("dump", false, "dump the full result structure")
		noOtel    = flag.Bool("no-otel", false, "skip OpenTelemetry setup")
	)
	flag.Parse()
	if *imagePath == "" && flag.NArg() > 0 {
		*imagePath = flag.Arg(0)
	}
	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: platescan -image <path> [-grams 150]")
		os.Exit(2)
	}

	if err := run(*imagePath, *grams, *dump, !*noOtel); err != nil {
		slog.Error("FAILURE: Run failed", "error", err)
		os.Exit(1)
	}
}

func run(imagePath string, grams float64, dump, withOtel bool) error {
	ctx := context.Background()

	cfg, err := platescan.LoadConfig()
	if err != nil {
		return fmt.Errorf("SETUP: %w", err)
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	logger, cleanup, err := newRunLogger(cfg.Provider.Classifier + "_" + cfg.Provider.Generator)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush run log", "error", err)
		}
	}()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("SETUP: Failed to close resources", "error", err)
		}
	}()

	r, shutdown, err := newRunner(ctx, app.Orchestrator, withOtel)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	out, err := r.Run(ctx, image, grams)
	if err == nil && out.Awaiting() {
		var answer string
		answer, err = ask(os.Stdin, out.Pending)
		if err == nil {
			var result *pipeline.Result
			result, err = r.Resume(ctx, *out.Pending, answer)
			out = pipeline.Outcome{Result: result}
			if result != nil {
				out.Status = result.Status
			}
		}
	}

	notify(ctx, cfg.Provider, out, err)

	if err != nil {
		var runErr *pipeline.RunError
		if errors.As(err, &runErr) {
			fmt.Print(platescan.FormatTrace(runErr.Trace))
		}
		return err
	}

	printResult(out.Result)
	if dump {
		spew.Dump(out.Result)
	}
	return nil
}

type runner interface {
	Run(ctx context.Context, image []byte, grams float64) (pipeline.Outcome, error)
	Resume(ctx context.Context, p pipeline.Pending, answer string) (*pipeline.Result, error)
}

func newRunner(ctx context.Context, o *pipeline.Orchestrator, withOtel bool) (runner, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !withOtel {
		return o, noop, nil
	}

	tracerProvider, meterProvider, otelShutdown, err := platescan.InitOtel(ctx)
	if err != nil {
		slog.Warn("SETUP: Failed to initialize OpenTelemetry, running uninstrumented", "error", err)
		return o, noop, nil
	}

	tracer := tracerProvider.Tracer(platescan.TracerNameCLI)
	meter := meterProvider.Meter(platescan.TracerNameCLI)

	_, span := tracer.Start(ctx, platescan.TracerNameCLI, trace.WithAttributes(
		attribute.String("service", platescan.TracerNameCLI),
	))
	shutdown := func(ctx context.Context) error {
		span.End()
		return otelShutdown(ctx)
	}
	return pipeline.NewInstrumentedOrchestrator(o, tracer, meter), shutdown, nil
}

// ask shows the clarification choices and reads one line: a number picks a choice, anything else is a free-text label.
func ask(in io.Reader, p *pipeline.Pending) (string, error) {
	fmt.Printf("Not sure what this is (confidence below %.0f%%). Pick one or type the food name:\n", p.Threshold*100)
	for i, c := range p.Choices {
		fmt.Printf("  %d) %s (%.1f%%)\n", i+1, platescan.HumanizeLabel(c.Label), c.Confidence*100)
	}
	fmt.Print("> ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	line = strings.TrimSpace(line)

	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(p.Choices) {
		return p.Choices[n-1].Label, nil
	}
	return line, nil
}

func printResult(r *pipeline.Result) {
	fmt.Printf("Food: %s (%s)\n", r.Food.Label, r.Food.Source)

	if r.Recipe != nil {
		fmt.Printf("\nRecipe: %s [%s]\n", r.Recipe.Title, r.Recipe.SourceStrategy)
		for _, ing := range r.Recipe.Ingredients {
			fmt.Printf("  - %g %s %s\n", ing.Quantity, ing.Unit, ing.Name)
		}
		for i, step := range r.Recipe.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
	} else {
		fmt.Println("\nRecipe: unavailable")
	}

	if n := r.Nutrition; n != nil {
		fmt.Printf("\nNutrition for %gg [%s]: %.1f kcal, %.1fg protein, %.1fg carbs, %.1fg fat\n",
			n.BasisGrams, n.SourceStrategy, n.CaloriesKcal, n.ProteinG, n.CarbsG, n.FatG)
	} else {
		fmt.Println("\nNutrition: unavailable")
	}

	fmt.Printf("\nStatus: %s\n\n%s", r.Status, platescan.FormatTrace(r.Trace))
}

func notify(ctx context.Context, p platescan.ProviderConfig, out pipeline.Outcome, err error) {
	if p.SlackWebhookURL == "" {
		return
	}
	client := slack.NewClient(p.SlackWebhookURL, http.DefaultClient)
	_ = slack.NewNotifier(client, p.SlackChannel).NotifyOutcome(ctx, out, err)
}

func newRunLogger(provider string) (platescan.RunLogger, func() error, error) {
	logFilePath := platescan.NewRunLogFilePath(provider)
	if err := os.MkdirAll("./logs", 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := platescan.NewFileRunLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
