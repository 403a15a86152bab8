package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"venue-recommender/internal/catalog"
	"venue-recommender/internal/llm"
	"venue-recommender/internal/retrieval"
	"venue-recommender/internal/shared/telemetry"
	"venue-recommender/internal/shared/validation"
)

// maxSimilarEvents bounds how many retrieved events are quoted as context.
const maxSimilarEvents = 5

// Input is what every task consumes. Each task gets its own copy of Candidates.
type Input struct {
	Request    catalog.EventRequest
	Candidates []retrieval.Candidate
}

// Task analyses candidates from one angle. Run never panics on bad model
// output and never returns an error: failures come back as a Failure outcome.
type Task interface {
	Kind() Kind
	Run(ctx context.Context, in Input) Outcome
}

// PromptTask renders a kind-specific prompt, calls the model and validates
// the response against the kind's payload schema.
type PromptTask struct {
	kind     Kind
	client   llm.Client
	budget   *llm.TokenBudget
	template template
}

// NewTask builds the task for kind. budget may be nil.
func NewTask(kind Kind, client llm.Client, budget *llm.TokenBudget) (*PromptTask, error) {
	tpl, ok := templates[kind]
	if !ok {
		return nil, fmt.Errorf("no template for analysis kind %q", kind)
	}
	return &PromptTask{kind: kind, client: client, budget: budget, template: tpl}, nil
}

// DefaultTasks returns one task per kind, in Kinds order.
func DefaultTasks(client llm.Client, budget *llm.TokenBudget) []Task {
	tasks := make([]Task, 0, len(Kinds))
	for _, k := range Kinds {
		t, _ := NewTask(k, client, budget)
		tasks = append(tasks, t)
	}
	return tasks
}

func (t *PromptTask) Kind() Kind { return t.kind }

func (t *PromptTask) Run(ctx context.Context, in Input) Outcome {
	prompt := t.Prompt(in)
	raw, err := t.client.Complete(ctx, prompt)
	if err != nil {
		return Failure(t.kind, fmt.Errorf("%w: %s: %w", ErrTaskFailure, t.kind, err), 1)
	}
	payload, err := Decode(t.kind, raw, venueIDs(in.Candidates))
	if err != nil {
		telemetry.Warn("analysis.schema_violation", map[string]any{"kind": string(t.kind), "error": err})
		return Failure(t.kind, fmt.Errorf("%w: %s: %w", ErrTaskFailure, t.kind, err), 1)
	}
	return Success(payload)
}

// Prompt renders the prompt for in.
func (t *PromptTask) Prompt(in Input) llm.Prompt {
	blocks := make([]string, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		blocks = append(blocks, t.template.venue(c))
	}
	similar := similarEvents(in.Candidates)

	request := t.template.request(in.Request)
	reserved := 0
	if t.budget != nil {
		reserved = t.budget.Count(t.template.system) + t.budget.Count(request) + t.budget.Count(strings.Join(blocks, "\n"))
	}
	similar = t.budget.Fit(reserved, similar)

	var b strings.Builder
	fmt.Fprintf(&b, "Event Requirements:\n%s\n\n", request)
	fmt.Fprintf(&b, "%s for each venue (%d venues, analyze each one separately):\n", t.template.venueHeading, len(blocks))
	for i, block := range blocks {
		fmt.Fprintf(&b, "\n[Venue %d]\n%s\n", i+1, block)
	}
	b.WriteString("\nRetrieved Similar Events (for context):\n")
	if len(similar) == 0 {
		b.WriteString("No similar events found in history.\n")
	}
	for i, s := range similar {
		fmt.Fprintf(&b, "\nSimilar Event %d:\n%s", i+1, s)
	}
	fmt.Fprintf(&b, "\nRespond with a single JSON object of this shape:\n%s\n", t.template.shape)

	return llm.Prompt{
		Name:   string(t.kind),
		System: t.template.system,
		User:   b.String(),
		JSON:   true,
	}
}

// Decode parses and validates model output for kind. Assessments of venues
// outside venueIDs are dropped; if none remain the output is a schema violation.
func Decode(kind Kind, raw string, venueIDs map[string]struct{}) (Payload, error) {
	p := newPayload(kind)
	if p == nil {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrSchemaViolation, kind)
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := validation.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	out := p.retain(venueIDs)
	if out.size() == 0 {
		return nil, fmt.Errorf("%w: no assessment matches a candidate venue", ErrSchemaViolation)
	}
	return out, nil
}

// extractJSON strips markdown fences and leading prose around a JSON object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}

func venueIDs(cs []retrieval.Candidate) map[string]struct{} {
	ids := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		ids[c.VenueID()] = struct{}{}
	}
	return ids
}

func similarEvents(cs []retrieval.Candidate) []string {
	n := min(len(cs), maxSimilarEvents)
	out := make([]string, 0, n)
	for _, c := range cs[:n] {
		out = append(out, c.Document.Text)
	}
	return out
}
