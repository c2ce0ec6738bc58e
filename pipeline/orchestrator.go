package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"platescan"
	"platescan/fallback"
)

const (
	stageQuantity  = "quantity"
	stageClassify  = "classify"
	stageClarify   = "clarify"
	stageRecipe    = "recipe"
	stageNutrition = "nutrition"
)

type candidateClassifier interface {
	Classify(ctx context.Context, image []byte) ([]platescan.FoodCandidate, error)
}

type recipeResolver interface {
	Resolve(ctx context.Context, label string, policy fallback.Policy) (platescan.Recipe, []fallback.Attempt, error)
}

type nutritionCalculator interface {
	Compute(ctx context.Context, label string, grams float64, policy fallback.Policy) (platescan.NutritionFacts, []fallback.Attempt, error)
}

// Result is what a finished run hands back. Recipe and Nutrition are nil when their stage failed.
type Result struct {
	RunID     string                    `json:"run_id"`
	Food      platescan.ResolvedFood    `json:"resolved_food"`
	Recipe    *platescan.Recipe         `json:"recipe"`
	Nutrition *platescan.NutritionFacts `json:"nutrition"`
	Trace     []platescan.TraceEntry    `json:"trace"`
	Status    State                     `json:"status"`
}

// Pending is a run suspended for clarification. It holds everything Resume needs, so it can be
// serialised, handed to a person or a browser, and sent back later.
type Pending struct {
	RunID          string                    `json:"run_id"`
	RequestedGrams float64                   `json:"requested_grams"`
	Threshold      float64                   `json:"threshold"`
	Choices        []platescan.FoodCandidate `json:"choices"`
	Trace          []platescan.TraceEntry    `json:"trace"`
}

// Outcome of Run: exactly one of Result and Pending is set.
type Outcome struct {
	Status  State    `json:"status"`
	Result  *Result  `json:"result,omitempty"`
	Pending *Pending `json:"pending,omitempty"`
}

func (o Outcome) Awaiting() bool {
	return o.Pending != nil
}

// Options configures an Orchestrator. A zero Gate means DefaultGate.
type Options struct {
	Gate   Gate
	Policy fallback.Policy
	Logger platescan.RunLogger
}

// Orchestrator sequences classification, clarification and concurrent recipe/nutrition resolution.
// It holds no per-run state, so one Orchestrator can serve many runs at once.
type Orchestrator struct {
	classifier candidateClassifier
	recipes    recipeResolver
	nutrition  nutritionCalculator
	gate       Gate
	policy     fallback.Policy
	logger     platescan.RunLogger
}

func New(c candidateClassifier, r recipeResolver, n nutritionCalculator, opts Options) *Orchestrator {
	if opts.Gate == (Gate{}) {
		opts.Gate = DefaultGate()
	}
	opts.Gate.MaxChoices = opts.Gate.choiceLimit()
	if opts.Logger == nil {
		opts.Logger = platescan.NewNoOpRunLogger()
	}
	return &Orchestrator{
		classifier: c,
		recipes:    r,
		nutrition:  n,
		gate:       opts.Gate,
		policy:     opts.Policy,
		logger:     opts.Logger,
	}
}

type run struct {
	machine
	id    string
	grams float64
	food  *platescan.ResolvedFood
	trace *Trace
}

func newRun(id string, grams float64, state State, prior []platescan.TraceEntry) *run {
	if id == "" {
		id = uuid.NewString()
	}
	return &run{
		machine: machine{state: state},
		id:      id,
		grams:   grams,
		trace:   newTrace(prior),
	}
}

// Run classifies the image and either finishes the run or suspends it for clarification.
// Only an invalid quantity or a failed classification is returned as an error, always a *RunError.
func (o *Orchestrator) Run(ctx context.Context, image []byte, grams float64) (Outcome, error) {
	r := newRun("", grams, StateClassifying, nil)
	slog.Info("ORCHESTRATOR: Run started", "run_id", r.id, "image_bytes", len(image), "grams", grams)

	if err := o.checkQuantity(r); err != nil {
		return Outcome{}, err
	}

	candidates, attempts, err := fallback.Run(ctx, o.policy, image, fallback.Func(stageClassify, o.classifier.Classify))
	r.recordAttempts("", attempts, func() string {
		top := candidates[0]
		return fmt.Sprintf("%d candidate(s); top %q at %.1f%%", len(candidates), top.Label, top.Confidence*100)
	})
	if err != nil {
		msg := "could not identify the food in the image"
		if n := len(attempts); n > 0 {
			msg += ": " + attempts[n-1].Describe()
		} else {
			detail := "classification was not attempted: " + err.Error()
			if ctxErr := ctx.Err(); ctxErr != nil {
				detail = "classification was not attempted: " + describeContextErr(ctxErr)
			}
			r.trace.Append(stageClassify, platescan.OutcomeFailure, detail)
			msg += ": the request ended before classification started"
		}
		return Outcome{}, o.fail(r, platescan.ErrClassificationUnavailable, err, msg)
	}

	d := o.gate.Decide(candidates)
	if d.NeedsClarification() {
		if err := r.advance(StateAwaitingClarification); err != nil {
			return Outcome{}, err
		}
		top := candidates[0]
		r.trace.Append(stageClarify, platescan.OutcomeSkipped, fmt.Sprintf(
			"top candidate %q at %.1f%% is below the %.1f%% threshold; awaiting clarification among %d choice(s)",
			top.Label, top.Confidence*100, o.gate.Threshold*100, len(d.Choices)))

		p := &Pending{
			RunID:          r.id,
			RequestedGrams: grams,
			Threshold:      o.gate.Threshold,
			Choices:        d.Choices,
			Trace:          r.trace.Entries(),
		}
		slog.Info("ORCHESTRATOR: Awaiting clarification", "run_id", r.id, "choices", len(d.Choices))
		o.logRun(r, "")
		return Outcome{Status: StateAwaitingClarification, Pending: p}, nil
	}

	r.trace.Append(stageClarify, platescan.OutcomeSuccess, fmt.Sprintf(
		"accepted %q automatically at %.1f%%", d.Food.Label, candidates[0].Confidence*100))

	res, err := o.resolve(ctx, r, *d.Food)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: res.Status, Result: res}, nil
}

// Resume continues a suspended run with the caller's answer. The classifier is not consulted again.
func (o *Orchestrator) Resume(ctx context.Context, p Pending, answer string) (*Result, error) {
	r := newRun(p.RunID, p.RequestedGrams, StateAwaitingClarification, p.Trace)
	slog.Info("ORCHESTRATOR: Resuming", "run_id", r.id, "answer", answer)

	if !platescan.ValidGrams(p.RequestedGrams) {
		r.trace.Append(stageQuantity, platescan.OutcomeFailure, quantityDetail(p.RequestedGrams))
		return nil, o.fail(r, platescan.ErrInvalidQuantity, nil, fmt.Sprintf("invalid quantity: %v grams", p.RequestedGrams))
	}

	food, err := o.gate.Confirm(p.Choices, answer)
	if err != nil {
		r.trace.Append(stageClarify, platescan.OutcomeFailure, "no food name was supplied")
		return nil, o.fail(r, platescan.ErrInvalidClarification, err, "a food name or one of the offered choices is required")
	}

	verb := "provided"
	if food.Source == platescan.FoodSourceUserConfirmed {
		verb = "confirmed"
	}
	r.trace.Append(stageClarify, platescan.OutcomeSuccess, fmt.Sprintf("user %s %q", verb, food.Label))

	return o.resolve(ctx, r, food)
}

func (o *Orchestrator) checkQuantity(r *run) error {
	if !platescan.ValidGrams(r.grams) {
		r.trace.Append(stageQuantity, platescan.OutcomeFailure, quantityDetail(r.grams))
		return o.fail(r, platescan.ErrInvalidQuantity, nil, fmt.Sprintf("invalid quantity: %v grams", r.grams))
	}
	r.trace.Append(stageQuantity, platescan.OutcomeSuccess, fmt.Sprintf("%g g requested", r.grams))
	return nil
}

func quantityDetail(grams float64) string {
	return fmt.Sprintf("requested quantity must be a positive, finite number of grams, got %v", grams)
}

// resolve runs recipe and nutrition concurrently. Neither failure is returned as an error.
func (o *Orchestrator) resolve(ctx context.Context, r *run, food platescan.ResolvedFood) (*Result, error) {
	if err := r.advance(StateResolving); err != nil {
		return nil, err
	}
	r.food = &food
	start := time.Now()

	var (
		recipe            platescan.Recipe
		recipeAttempts    []fallback.Attempt
		recipeErr         error
		facts             platescan.NutritionFacts
		nutritionAttempts []fallback.Attempt
		nutritionErr      error
	)

	var g errgroup.Group
	g.Go(func() error {
		recipe, recipeAttempts, recipeErr = o.recipes.Resolve(ctx, food.Label, o.policy)
		return nil
	})
	g.Go(func() error {
		facts, nutritionAttempts, nutritionErr = o.nutrition.Compute(ctx, food.Label, r.grams, o.policy)
		return nil
	})
	_ = g.Wait()

	res := &Result{RunID: r.id, Food: food}

	r.recordAttempts(stageRecipe, recipeAttempts, func() string {
		return fmt.Sprintf("found %q", recipe.Title)
	})
	if recipeErr != nil {
		r.trace.Append(stageRecipe, platescan.OutcomeFailure, fmt.Sprintf("no recipe could be found or generated for %q", food.Label))
	} else {
		res.Recipe = &recipe
		r.trace.Append(stageRecipe, platescan.OutcomeSuccess, fmt.Sprintf("%q via %s: %d ingredient(s), %d step(s)",
			recipe.Title, recipe.SourceStrategy, len(recipe.Ingredients), len(recipe.Steps)))
	}

	r.recordAttempts(stageNutrition, nutritionAttempts, func() string {
		return fmt.Sprintf("per-%g g values for %q", facts.BasisGrams, food.Label)
	})
	if nutritionErr != nil {
		r.trace.Append(stageNutrition, platescan.OutcomeFailure, fmt.Sprintf("nutrition facts unavailable for %q", food.Label))
	} else {
		res.Nutrition = &facts
		r.trace.Append(stageNutrition, platescan.OutcomeSuccess, fmt.Sprintf("%.1f kcal, %.1f g protein, %.1f g carbs, %.1f g fat for %g g via %s",
			facts.CaloriesKcal, facts.ProteinG, facts.CarbsG, facts.FatG, facts.BasisGrams, facts.SourceStrategy))
	}

	next := StateDone
	if recipeErr != nil || nutritionErr != nil {
		next = StatePartialFailure
	}
	if err := r.advance(next); err != nil {
		return nil, err
	}

	res.Status = r.state
	res.Trace = r.trace.Entries()

	slog.Info("ORCHESTRATOR: Run finished",
		"run_id", r.id,
		"status", res.Status,
		"label", food.Label,
		"recipe_error", errString(recipeErr),
		"nutrition_error", errString(nutritionErr),
		"resolve_ms", time.Since(start).Milliseconds())
	o.logRun(r, "")
	return res, nil
}

// recordAttempts appends one entry per attempt. Stages are "<prefix>.<strategy>", or just the strategy name without a prefix.
func (r *run) recordAttempts(prefix string, attempts []fallback.Attempt, success func() string) {
	for _, a := range attempts {
		stage := a.Strategy
		if prefix != "" {
			stage = prefix + "." + a.Strategy
		}

		var (
			outcome = platescan.OutcomeFailure
			detail  = a.Describe()
		)
		if a.Succeeded() {
			outcome, detail = platescan.OutcomeSuccess, success()
		}
		if a.Of > 1 {
			detail = fmt.Sprintf("attempt %d/%d: %s", a.Try, a.Of, detail)
		}
		r.trace.Append(stage, outcome, detail)
	}
}

func (o *Orchestrator) fail(r *run, kind, cause error, message string) error {
	_ = r.advance(StateFailed)
	slog.Error("ORCHESTRATOR: Run failed", "run_id", r.id, "kind", kind, "error", cause)
	o.logRun(r, message)
	return &RunError{
		RunID:   r.id,
		Kind:    kind,
		Cause:   cause,
		Message: message,
		Trace:   r.trace.Entries(),
	}
}

func (o *Orchestrator) logRun(r *run, errMsg string) {
	err := o.logger.LogRun(platescan.RunLog{
		RunID:     r.id,
		Timestamp: time.Now(),
		Status:    string(r.state),
		Food:      r.food,
		Trace:     r.trace.Entries(),
		Error:     errMsg,
	})
	if err != nil {
		slog.Warn("ORCHESTRATOR: Failed to write run log", "run_id", r.id, "error", err)
	}
}

func describeContextErr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "deadline exceeded"
	}
	return "cancelled"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
