package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"platescan"
	"platescan/pipeline"
)

// Notifier posts a readable run summary, trace included, to a channel.
type Notifier struct {
	client  platescan.SlackClient
	channel string
}

func NewNotifier(client platescan.SlackClient, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

// NotifyOutcome reports whatever a Run or Resume call produced, including a fatal error.
func (n *Notifier) NotifyOutcome(ctx context.Context, out pipeline.Outcome, err error) error {
	msg := FormatOutcome(out, err)
	if err := n.client.PostMessage(ctx, n.channel, msg); err != nil {
		slog.Error("SLACK: Failed to post run summary", "channel", n.channel, "error", err)
		return err
	}
	slog.Info("SLACK: Posted run summary", "channel", n.channel, "message_len", len(msg))
	return nil
}

// FormatOutcome renders the Slack message text for a run.
func FormatOutcome(out pipeline.Outcome, err error) string {
	var b strings.Builder

	var runErr *pipeline.RunError
	switch {
	case errors.As(err, &runErr):
		fmt.Fprintf(&b, ":x: *Run %s failed*: %s\n", runErr.RunID, runErr.Message)
		writeTrace(&b, runErr.Trace)

	case err != nil:
		fmt.Fprintf(&b, ":x: *Run failed*: %s\n", err)

	case out.Pending != nil:
		p := out.Pending
		fmt.Fprintf(&b, ":thinking_face: *Run %s needs clarification* for %g g. Candidates:\n", p.RunID, p.RequestedGrams)
		for _, c := range p.Choices {
			fmt.Fprintf(&b, "• %s (%.0f%%)\n", platescan.HumanizeLabel(c.Label), c.Confidence*100)
		}
		writeTrace(&b, p.Trace)

	case out.Result != nil:
		writeResult(&b, out.Result)
	}

	return b.String()
}

func writeResult(b *strings.Builder, r *pipeline.Result) {
	icon := ":white_check_mark:"
	if r.Status != pipeline.StateDone {
		icon = ":warning:"
	}
	fmt.Fprintf(b, "%s *%s* (%s, run %s)\n", icon, platescan.HumanizeLabel(r.Food.Label), r.Status, r.RunID)

	if r.Recipe != nil {
		fmt.Fprintf(b, "*Recipe*: %s, %d ingredients, %d steps (%s)\n",
			r.Recipe.Title, len(r.Recipe.Ingredients), len(r.Recipe.Steps), r.Recipe.SourceStrategy)
	} else {
		b.WriteString("*Recipe*: unavailable\n")
	}

	if f := r.Nutrition; f != nil {
		fmt.Fprintf(b, "*Nutrition* for %g g: %.1f kcal, %.1f g protein, %.1f g carbs, %.1f g fat (%s)\n",
			f.BasisGrams, f.CaloriesKcal, f.ProteinG, f.CarbsG, f.FatG, f.SourceStrategy)
	} else {
		b.WriteString("*Nutrition*: unavailable\n")
	}

	writeTrace(b, r.Trace)
}

func writeTrace(b *strings.Builder, trace []platescan.TraceEntry) {
	if len(trace) == 0 {
		return
	}
	b.WriteString("```\n")
	b.WriteString(platescan.FormatTrace(trace))
	b.WriteString("```")
}
