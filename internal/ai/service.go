package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"taskdeck/internal/domain"
)

// AnalysisRequest describes one task to score against its project.
type AnalysisRequest struct {
	ProjectDescription string
	ProjectDeadline    string
	Title              string
	Description        string
}

type GenerateRequest struct {
	ProjectDescription string
	ProjectDeadline    string
	Goal               string
}

type PrioritizeRequest struct {
	ProjectDescription string
	ProjectDeadline    string
	Tasks              []domain.Task
}

// ResourceRequest asks for resources for the project, or for Task when set.
type ResourceRequest struct {
	ProjectDescription string
	Task               *Idea
}

type Options struct {
	// Concurrency bounds in-flight analysis calls of a batch. 1 is sequential.
	Concurrency int
	MaxFailures uint32
	OpenTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service wraps a Generator with validation, a circuit breaker and a bounded
// worker pool for batch analysis.
type Service struct {
	gen         Generator
	breaker     *gobreaker.CircuitBreaker[string]
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(gen Generator, opts Options) *Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{gen: gen, concurrency: opts.Concurrency, logger: opts.Logger, now: opts.Now}
	s.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "generative-ai",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrMissingCredential)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

func (s *Service) generate(ctx context.Context, apiKey string, p Prompt) (string, error) {
	if apiKey == "" {
		return "", ErrMissingCredential
	}
	text, err := s.breaker.Execute(func() (string, error) {
		return s.gen.Generate(ctx, apiKey, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return text, err
}

// AnalyzeTask scores a single task and proposes its dates.
func (s *Service) AnalyzeTask(ctx context.Context, apiKey string, req AnalysisRequest) (Analysis, error) {
	text, err := s.generate(ctx, apiKey, analysisPrompt(req, s.now()))
	if err != nil {
		return Analysis{}, err
	}
	return parseAnalysis(text)
}

// Brainstorm splits a goal into titled task ideas.
func (s *Service) Brainstorm(ctx context.Context, apiKey, projectDescription, goal string) ([]Idea, error) {
	text, err := s.generate(ctx, apiKey, brainstormPrompt(projectDescription, goal))
	if err != nil {
		return nil, err
	}
	return parseIdeas(text)
}

// GenerateTasks brainstorms ideas for a goal and analyzes each one. Ideas
// whose analysis fails are dropped; the rest keep brainstorm order.
func (s *Service) GenerateTasks(ctx context.Context, apiKey string, req GenerateRequest) ([]domain.TaskInput, error) {
	if strings.TrimSpace(req.Goal) == "" {
		return nil, fmt.Errorf("%w: goal is required", ErrInvalidRequest)
	}
	ideas, err := s.Brainstorm(ctx, apiKey, req.ProjectDescription, req.Goal)
	if err != nil {
		return nil, err
	}
	analyses := s.analyzeAll(ctx, apiKey, req.ProjectDescription, req.ProjectDeadline, ideas)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.TaskInput, 0, len(ideas))
	for i, idea := range ideas {
		a := analyses[i]
		if a == nil {
			continue
		}
		out = append(out, toInput(idea, *a))
	}
	return out, nil
}

// CompleteTask fills scores and dates for a partially specified task.
func (s *Service) CompleteTask(ctx context.Context, apiKey string, req AnalysisRequest) (domain.TaskInput, error) {
	if strings.TrimSpace(req.Title) == "" {
		req.Title = "Untitled Task"
	}
	a, err := s.AnalyzeTask(ctx, apiKey, req)
	if err != nil {
		return domain.TaskInput{}, err
	}
	return toInput(Idea{Title: req.Title, Description: req.Description}, a), nil
}

// PrioritizeTasks re-scores tasks. A task whose analysis fails comes back
// unchanged, so the result always has one entry per input, in input order.
func (s *Service) PrioritizeTasks(ctx context.Context, apiKey string, req PrioritizeRequest) ([]domain.Task, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	ideas := make([]Idea, len(req.Tasks))
	for i, t := range req.Tasks {
		ideas[i] = Idea{Title: t.Title, Description: t.Description}
	}
	analyses := s.analyzeAll(ctx, apiKey, req.ProjectDescription, req.ProjectDeadline, ideas)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Task, len(req.Tasks))
	for i, t := range req.Tasks {
		out[i] = t.Clone()
		if a := analyses[i]; a != nil {
			u, imp := a.Urgency, a.Importance
			out[i].Urgency = &u
			out[i].Importance = &imp
			out[i].StartDate = a.StartDate
			out[i].Deadline = a.Deadline
		}
	}
	return out, nil
}

// FindResources suggests references for the project or one task.
func (s *Service) FindResources(ctx context.Context, apiKey string, req ResourceRequest) ([]Resource, error) {
	text, err := s.generate(ctx, apiKey, resourcesPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseResources(text)
}

// analyzeAll runs AnalyzeTask over ideas with at most s.concurrency calls in
// flight. Failed entries are nil.
func (s *Service) analyzeAll(ctx context.Context, apiKey, projectDescription, projectDeadline string, ideas []Idea) []*Analysis {
	results := make([]*Analysis, len(ideas))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, idea := range ideas {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			a, err := s.AnalyzeTask(ctx, apiKey, AnalysisRequest{
				ProjectDescription: projectDescription,
				ProjectDeadline:    projectDeadline,
				Title:              idea.Title,
				Description:        idea.Description,
			})
			if err != nil {
				s.logger.Warn("task analysis failed, skipping", "title", idea.Title, "error", err)
				return nil
			}
			results[i] = &a
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func toInput(idea Idea, a Analysis) domain.TaskInput {
	in := domain.TaskInput{Title: idea.Title, Description: idea.Description}
	u, imp := a.Urgency, a.Importance
	in.Urgency = &u
	in.Importance = &imp
	if a.StartDate != nil {
		in.StartDate = *a.StartDate
	}
	if a.Deadline != nil {
		in.Deadline = *a.Deadline
	}
	return in
}
