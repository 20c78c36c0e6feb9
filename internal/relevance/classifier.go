package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/pkg/anthropic"
)

const classifySystemPrompt = `You judge whether company industry labels fit a target audience. For every label in the list, answer exactly one of: relevant, maybe, irrelevant. Answer "relevant" when companies carrying the label clearly belong to the audience, "irrelevant" when they clearly do not, and "maybe" whenever the label is too broad or too vague to tell. Respond with a valid JSON object mapping every input label to its answer, and nothing else.`

const classifyUserPrompt = `Target audience:
%s

Industry labels to judge:
%s`

// ErrUnavailable is returned when the classifier cannot produce verdicts at
// all: the API stayed down through every retry or the response was not
// parseable. The filter pipeline skips the relevance stage on this error
// rather than guessing, so an outage never removes leads.
var ErrUnavailable = eris.New("relevance: classifier unavailable")

const defaultModel = "claude-haiku-4-5-20251001"

// Classifier judges industry labels against a campaign's audience intent.
// Cost scales with the number of distinct labels, never with the number of
// leads: all uncached labels go to the model in a single message.
type Classifier struct {
	client anthropic.Client
	cache  VerdictCache
	model  string
	retry  resilience.RetryConfig
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCache replaces the default in-memory verdict cache. A nil cache
// disables caching entirely.
func WithCache(cache VerdictCache) Option {
	return func(c *Classifier) { c.cache = cache }
}

// WithModel overrides the model used for classification.
func WithModel(model string) Option {
	return func(c *Classifier) { c.model = model }
}

// WithRetry overrides the retry policy for API calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Classifier) { c.retry = cfg }
}

// New builds a Classifier around an Anthropic client.
func New(client anthropic.Client, opts ...Option) *Classifier {
	c := &Classifier{
		client: client,
		cache:  NewMemoryCache(),
		model:  defaultModel,
		retry:  resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns a verdict for every distinct label, keyed by the trimmed
// label text. Cached verdicts are served without an API call; the rest are
// judged in one message. Cache failures degrade to a miss, never to an error.
func (c *Classifier) Classify(ctx context.Context, intent model.IndustryIntent, labels []string) (map[string]model.Verdict, error) {
	distinct := distinctLabels(labels)
	if len(distinct) == 0 {
		return map[string]model.Verdict{}, nil
	}

	sig := intent.Signature()
	out := make(map[string]model.Verdict, len(distinct))

	if c.cache != nil {
		cached, err := c.cache.GetVerdicts(ctx, sig, distinct)
		if err != nil {
			zap.L().Warn("relevance: verdict cache read failed", zap.Error(err))
		}
		for label, v := range cached {
			out[label] = v
		}
	}

	var remaining []string
	for _, label := range distinct {
		if _, ok := out[label]; !ok {
			remaining = append(remaining, label)
		}
	}
	if len(remaining) == 0 {
		zap.L().Debug("relevance: all labels served from cache",
			zap.Int("labels", len(distinct)),
		)
		return out, nil
	}

	judged, err := c.judge(ctx, intent, remaining)
	if err != nil {
		return nil, err
	}
	for label, v := range judged {
		out[label] = v
	}

	if c.cache != nil {
		if err := c.cache.PutVerdicts(ctx, sig, judged); err != nil {
			zap.L().Warn("relevance: verdict cache write failed", zap.Error(err))
		}
	}

	return out, nil
}

func (c *Classifier) judge(ctx context.Context, intent model.IndustryIntent, labels []string) (map[string]model.Verdict, error) {
	prompt := fmt.Sprintf(classifyUserPrompt, renderIntent(intent), "- "+strings.Join(labels, "\n- "))
	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   int64(256 + 24*len(labels)),
		System:      anthropic.BuildCachedSystemBlocks(classifySystemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	}

	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("anthropic", "classify_industries")
	}
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "judge %d labels: %v", len(labels), err)
	}
	resp.Usage.LogCost(c.model, "relevance")

	verdicts, err := parseVerdicts(extractText(resp), labels)
	if err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "judge %d labels: %v", len(labels), err)
	}

	zap.L().Info("relevance: judged industry labels",
		zap.Int("labels", len(labels)),
		zap.String("model", c.model),
	)
	return verdicts, nil
}

// renderIntent flattens the intent into the audience block of the prompt.
func renderIntent(intent model.IndustryIntent) string {
	var b strings.Builder
	writeList := func(name string, vals []string) {
		if len(vals) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", name, strings.Join(vals, ", "))
		}
	}
	writeList("Target industries", intent.IndustryLabels())
	writeList("Title keywords", intent.TitleKeywords)
	writeList("Seniorities", intent.Seniorities)
	writeList("Locations", intent.Locations)
	writeList("Company sizes", intent.CompanySizes)
	writeList("Other keywords", intent.Keywords)
	if b.Len() == 0 {
		return "No explicit audience constraints."
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseVerdicts decodes the model's JSON object into verdicts for the
// requested labels. Labels the model skipped or answered with an unknown
// token default to maybe, so ambiguity favors inclusion. A response that is
// not a JSON object at all is an error.
func parseVerdicts(text string, labels []string) (map[string]model.Verdict, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, eris.Wrap(err, "relevance: parse verdict response")
	}

	folded := make(map[string]string, len(raw))
	for k, v := range raw {
		folded[strings.ToLower(strings.TrimSpace(k))] = v
	}

	out := make(map[string]model.Verdict, len(labels))
	for _, label := range labels {
		tok, ok := raw[label]
		if !ok {
			tok = folded[strings.ToLower(label)]
		}
		v, valid := model.ParseVerdict(strings.ToLower(strings.TrimSpace(tok)))
		if !valid {
			zap.L().Debug("relevance: defaulting unrecognized verdict to maybe",
				zap.String("label", label),
				zap.String("token", tok),
			)
			v = model.VerdictMaybe
		}
		out[label] = v
	}
	return out, nil
}

// distinctLabels trims, deduplicates, and sorts the input so the prompt and
// the cache keys are stable regardless of lead order.
func distinctLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// cleanJSON strips markdown code fences and trims to the outermost JSON
// object, in case the model wraps its answer despite instructions.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}

// extractText concatenates the text blocks of a response.
func extractText(resp *anthropic.MessageResponse) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
