package ai

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"taskdeck/internal/domain"
)

// extractJSON decodes the outermost {...} span of text into v. Models often
// wrap JSON in prose or code fences.
func extractJSON(text string, v any) error {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last < first {
		return fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(text[first:last+1]), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// Analysis is the scored schedule for one task.
type Analysis struct {
	Urgency    float64 `json:"urgency"`
	Importance float64 `json:"importance"`
	StartDate  *string `json:"startDate"`
	Deadline   *string `json:"deadline"`
}

type rawAnalysis struct {
	Urgency    *float64 `json:"urgency"`
	Importance *float64 `json:"importance"`
	StartDate  *string  `json:"startDate"`
	Deadline   *string  `json:"deadline"`
}

func parseAnalysis(text string) (Analysis, error) {
	var raw rawAnalysis
	if err := extractJSON(text, &raw); err != nil {
		return Analysis{}, err
	}
	if err := checkScore("urgency", raw.Urgency); err != nil {
		return Analysis{}, err
	}
	if err := checkScore("importance", raw.Importance); err != nil {
		return Analysis{}, err
	}
	return Analysis{
		Urgency:    *raw.Urgency,
		Importance: *raw.Importance,
		StartDate:  domain.CoerceDate(raw.StartDate),
		Deadline:   domain.CoerceDate(raw.Deadline),
	}, nil
}

func checkScore(field string, v *float64) error {
	if v == nil {
		return fmt.Errorf("%w: %s is missing", ErrInvalidResponse, field)
	}
	if *v < 1 || *v > 10 {
		return fmt.Errorf("%w: %s %v outside 1-10", ErrInvalidResponse, field, *v)
	}
	return nil
}

// Idea is a brainstormed task before analysis.
type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func parseIdeas(text string) ([]Idea, error) {
	var raw struct {
		Tasks *[]Idea `json:"tasks"`
	}
	if err := extractJSON(text, &raw); err != nil {
		return nil, err
	}
	if raw.Tasks == nil {
		return nil, fmt.Errorf("%w: tasks is missing", ErrInvalidResponse)
	}
	for i, idea := range *raw.Tasks {
		if strings.TrimSpace(idea.Title) == "" {
			return nil, fmt.Errorf("%w: task %d has no title", ErrInvalidResponse, i)
		}
	}
	return *raw.Tasks, nil
}

// Resource is a suggested web reference.
type Resource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

func parseResources(text string) ([]Resource, error) {
	var raw struct {
		Resources *[]Resource `json:"resources"`
	}
	if err := extractJSON(text, &raw); err != nil {
		return nil, err
	}
	if raw.Resources == nil {
		return nil, fmt.Errorf("%w: resources is missing", ErrInvalidResponse)
	}
	for i, r := range *raw.Resources {
		u, err := url.ParseRequestURI(r.Link)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("%w: resource %d has an invalid link", ErrInvalidResponse, i)
		}
	}
	return *raw.Resources, nil
}
