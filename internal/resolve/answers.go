package resolve

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/prompts"
)

// Question is one free-text screening question to answer.
type Question struct {
	Text      string
	WordLimit int // 0 means use DefaultWordLimit
}

// DefaultWordLimit bounds generated answers when the form declares no limit.
const DefaultWordLimit = 150

// AnswerGenerator produces a first-person answer to a screening question,
// grounded in the candidate and job snapshots. Implementations must not
// mutate the snapshots.
type AnswerGenerator interface {
	Generate(ctx context.Context, q Question, candidate *db.CandidateProfile, job *db.JobPosting) (string, error)
}

// GeminiAnswerGenerator answers questions with the Gemini text-completion
// client, grounding the prompt in a condensed candidate summary and the
// posting's title/company/description.
type GeminiAnswerGenerator struct {
	client llm.Client
}

// NewGeminiAnswerGenerator wraps an LLM client as an AnswerGenerator.
func NewGeminiAnswerGenerator(client llm.Client) *GeminiAnswerGenerator {
	return &GeminiAnswerGenerator{client: client}
}

// Generate produces an answer via the LLM, truncated to the word limit.
func (g *GeminiAnswerGenerator) Generate(ctx context.Context, q Question, candidate *db.CandidateProfile, job *db.JobPosting) (string, error) {
	limit := q.WordLimit
	if limit <= 0 {
		limit = DefaultWordLimit
	}

	template := prompts.MustGet("answers.json", "screening-question")
	prompt := prompts.Format(template, map[string]string{
		"Question":         q.Text,
		"WordLimit":        strconv.Itoa(limit),
		"CandidateSummary": summarizeCandidate(candidate),
		"JobContext":       summarizeJob(job),
	})

	answer, err := g.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("empty answer from model")
	}
	return TruncateWords(answer, limit), nil
}

// TemplateAnswerGenerator produces a generic templated answer. It never
// fails, so it terminates any generator chain.
type TemplateAnswerGenerator struct{}

// Generate fills a generic interest statement from the snapshots.
func (TemplateAnswerGenerator) Generate(_ context.Context, q Question, candidate *db.CandidateProfile, job *db.JobPosting) (string, error) {
	limit := q.WordLimit
	if limit <= 0 {
		limit = DefaultWordLimit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I am excited about the %s role at %s.", job.Title, job.Company)
	if candidate.YearsExperience > 0 {
		fmt.Fprintf(&b, " I bring %d years of relevant experience", candidate.YearsExperience)
		if candidate.CurrentTitle != "" {
			fmt.Fprintf(&b, ", most recently as %s", candidate.CurrentTitle)
			if candidate.CurrentCompany != "" {
				fmt.Fprintf(&b, " at %s", candidate.CurrentCompany)
			}
		}
		b.WriteString(".")
	}
	if len(candidate.Skills) > 0 {
		fmt.Fprintf(&b, " My core skills include %s.", strings.Join(topN(candidate.Skills, 5), ", "))
	}
	b.WriteString(" I would welcome the chance to discuss how my background fits this position.")

	return TruncateWords(b.String(), limit), nil
}

// ChainAnswerGenerator tries each generator in order and returns the first
// success. A failing primary is logged as a warning, not surfaced, so a
// question answer degrades to the template rather than aborting an attempt.
type ChainAnswerGenerator struct {
	generators []AnswerGenerator
}

// NewChain builds a generator chain. Place the template generator last to
// guarantee a result.
func NewChain(generators ...AnswerGenerator) *ChainAnswerGenerator {
	return &ChainAnswerGenerator{generators: generators}
}

// Generate returns the first successful answer in the chain.
func (c *ChainAnswerGenerator) Generate(ctx context.Context, q Question, candidate *db.CandidateProfile, job *db.JobPosting) (string, error) {
	var lastErr error
	for i, g := range c.generators {
		answer, err := g.Generate(ctx, q, candidate, job)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		log.Printf("[ANSWERS] generator %d failed, trying next: %v", i, err)
	}
	return "", fmt.Errorf("all answer generators failed: %w", lastErr)
}

// summarizeCandidate condenses the profile into prompt grounding text.
func summarizeCandidate(c *db.CandidateProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.FullName())
	if c.CurrentTitle != "" {
		fmt.Fprintf(&b, "Most recent role: %s", c.CurrentTitle)
		if c.CurrentCompany != "" {
			fmt.Fprintf(&b, " at %s", c.CurrentCompany)
		}
		b.WriteString("\n")
	}
	if c.YearsExperience > 0 {
		fmt.Fprintf(&b, "Years of experience: %d\n", c.YearsExperience)
	}
	if len(c.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(c.Skills, ", "))
	}
	if c.Summary != "" {
		fmt.Fprintf(&b, "Professional summary: %s\n", c.Summary)
	}
	return b.String()
}

// summarizeJob condenses the posting into prompt grounding text. Long
// descriptions are capped so the prompt stays within sane bounds.
func summarizeJob(j *db.JobPosting) string {
	desc := j.Description
	if len(desc) > 2000 {
		desc = desc[:2000]
	}
	return fmt.Sprintf("%s at %s\n%s", j.Title, j.Company, desc)
}

// TruncateWords cuts text to at most limit words.
func TruncateWords(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}

func topN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
