package analyzers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"compliance-backend/internal/findings"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/patterns"
)

// Framework identifiers.
const (
	FrameworkGDPR         = "gdpr"
	FrameworkSOC2         = "soc2"
	FrameworkContractRisk = "contract_risk"
)

// Metadata carries document context into a prompt.
type Metadata struct {
	Filename     string
	DocumentType string
}

// Input is everything an analyzer sees for one document.
type Input struct {
	DocumentText    string
	Metadata        Metadata
	MatchedPatterns []patterns.RiskPattern
}

// Analyzer inspects a document against one compliance framework.
type Analyzer interface {
	Name() string
	Framework() string
	Analyze(ctx context.Context, input Input) ([]findings.RawFinding, error)
}

// Registry holds analyzers keyed by framework id.
type Registry struct {
	byFramework map[string]Analyzer
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byFramework: make(map[string]Analyzer)}
}

// Register adds an analyzer; the last registration per framework wins.
func (r *Registry) Register(a Analyzer) {
	r.byFramework[a.Framework()] = a
}

// Get returns the analyzer for a framework.
func (r *Registry) Get(framework string) (Analyzer, bool) {
	a, ok := r.byFramework[framework]
	return a, ok
}

// Frameworks returns the registered framework ids, sorted.
func (r *Registry) Frameworks() []string {
	out := make([]string, 0, len(r.byFramework))
	for framework := range r.byFramework {
		out = append(out, framework)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry wires the three production analyzers over one client.
func DefaultRegistry(client llm.Client, maxDocumentChars int) *Registry {
	r := NewRegistry()
	r.Register(NewGDPRAnalyzer(client, maxDocumentChars))
	r.Register(NewSOC2Analyzer(client, maxDocumentChars))
	r.Register(NewContractRiskAnalyzer(client, maxDocumentChars))
	return r
}

// llmAnalyzer is the shared implementation: one system prompt, one user
// prompt with the document and any learned patterns folded in, one parse.
type llmAnalyzer struct {
	name         string
	framework    string
	systemPrompt string
	taskLine     string
	client       llm.Client
	maxChars     int
}

func (a *llmAnalyzer) Name() string      { return a.name }
func (a *llmAnalyzer) Framework() string { return a.framework }

func (a *llmAnalyzer) Analyze(ctx context.Context, input Input) ([]findings.RawFinding, error) {
	raw, err := a.client.Analyze(ctx, llm.AnalyzeInput{
		SystemPrompt: a.systemPrompt,
		UserPrompt:   a.buildUserPrompt(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	return parseFindings(raw, a.framework)
}

func (a *llmAnalyzer) buildUserPrompt(input Input) string {
	text := input.DocumentText
	if a.maxChars > 0 && len(text) > a.maxChars {
		text = text[:a.maxChars]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", a.taskLine)
	fmt.Fprintf(&b, "**Document Type:** %s\n", valueOr(input.Metadata.DocumentType, "unknown"))
	fmt.Fprintf(&b, "**Filename:** %s\n\n", valueOr(input.Metadata.Filename, "document"))

	if len(input.MatchedPatterns) > 0 {
		b.WriteString("**Previously learned risk patterns present in this document (verify each):**\n")
		for _, pattern := range input.MatchedPatterns {
			fmt.Fprintf(&b, "- %s\n", pattern.LearnedRule)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Document Content:**\n%s\n\n", text)
	b.WriteString("Provide a comprehensive analysis with specific findings, evidence, and recommendations.")
	return b.String()
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
