package analyzers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"compliance-backend/internal/findings"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/patterns"
)

// fakeClient returns a canned response and records the last input.
type fakeClient struct {
	response json.RawMessage
	err      error
	last     llm.AnalyzeInput
}

func (f *fakeClient) Analyze(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	f.last = input
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

const sampleResponse = `{
	"findings": [
		{
			"finding_type": "violation",
			"severity": "critical",
			"title": "No lawful basis",
			"description": "Processing lacks a lawful basis.",
			"evidence": "we may use your data however we see fit",
			"recommendation": "State the lawful basis."
		},
		{
			"finding_type": "gap",
			"severity": "medium",
			"title": "Fabricated claim",
			"description": "No supporting text.",
			"evidence": ""
		}
	],
	"summary": "non-compliant"
}`

func TestAnalyzeDropsFindingsWithoutEvidence(t *testing.T) {
	client := &fakeClient{response: json.RawMessage(sampleResponse)}
	analyzer := NewGDPRAnalyzer(client, 10000)

	got, err := analyzer.Analyze(context.Background(), Input{
		DocumentText: "we may use your data however we see fit",
		Metadata:     Metadata{Filename: "policy.txt", DocumentType: "policy"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("evidence-less finding must be dropped, got %d findings", len(got))
	}
	if got[0].Framework != FrameworkGDPR {
		t.Fatalf("framework must be stamped, got %q", got[0].Framework)
	}
	if got[0].Severity != findings.SeverityCritical {
		t.Fatalf("severity = %q", got[0].Severity)
	}
}

func TestAnalyzePropagatesClientError(t *testing.T) {
	wantErr := errors.New("provider down")
	analyzer := NewSOC2Analyzer(&fakeClient{err: wantErr}, 10000)

	_, err := analyzer.Analyze(context.Background(), Input{DocumentText: "text"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestBuildUserPromptIncludesPatterns(t *testing.T) {
	client := &fakeClient{response: json.RawMessage(`{"findings": []}`)}
	analyzer := NewContractRiskAnalyzer(client, 10000)

	_, err := analyzer.Analyze(context.Background(), Input{
		DocumentText: "standard terms",
		MatchedPatterns: []patterns.RiskPattern{
			{LearnedRule: `Documents containing "unlimited liability" tend to show critical severity issues`},
		},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(client.last.UserPrompt, "unlimited liability") {
		t.Fatal("matched patterns must be folded into the prompt")
	}
	if !strings.Contains(client.last.UserPrompt, "standard terms") {
		t.Fatal("document text missing from prompt")
	}
}

func TestBuildUserPromptTruncates(t *testing.T) {
	client := &fakeClient{response: json.RawMessage(`{"findings": []}`)}
	analyzer := NewGDPRAnalyzer(client, 100)

	longText := strings.Repeat("a", 500)
	if _, err := analyzer.Analyze(context.Background(), Input{DocumentText: longText}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if strings.Contains(client.last.UserPrompt, strings.Repeat("a", 101)) {
		t.Fatal("document text must be truncated to the configured limit")
	}
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"violation": findings.TypeViolation,
		"favorable": findings.TypeBestPractice,
		"standard":  findings.TypeCompliant,
		"mystery":   findings.TypeGap,
	}
	for in, want := range cases {
		if got := normalizeType(in); got != want {
			t.Errorf("normalizeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegistry(t *testing.T) {
	registry := DefaultRegistry(llm.PlaceholderClient{}, 10000)

	got := registry.Frameworks()
	want := []string{FrameworkContractRisk, FrameworkGDPR, FrameworkSOC2}
	if len(got) != len(want) {
		t.Fatalf("frameworks = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frameworks = %v, want %v", got, want)
		}
	}

	if _, ok := registry.Get("hipaa"); ok {
		t.Fatal("unknown framework must not resolve")
	}
}

func TestDetectFrameworks(t *testing.T) {
	cases := []struct {
		name         string
		documentType string
		text         string
		want         []string
	}{
		{"contract by type", "contract", "any text", []string{FrameworkContractRisk}},
		{"policy with gdpr keywords", "policy", "we process personal data of EU residents", []string{FrameworkGDPR}},
		{"policy with both", "policy", "personal data and security controls are described", []string{FrameworkGDPR, FrameworkSOC2}},
		{"policy without keywords", "policy", "employee handbook", []string{FrameworkContractRisk}},
		{"unknown type falls back", "unknown", "anything", []string{FrameworkContractRisk}},
	}
	for _, tc := range cases {
		got := DetectFrameworks(tc.documentType, tc.text)
		if len(got) != len(tc.want) {
			t.Errorf("%s: DetectFrameworks = %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("%s: DetectFrameworks = %v, want %v", tc.name, got, tc.want)
			}
		}
	}
}
