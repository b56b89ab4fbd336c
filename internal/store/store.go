package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/domain"
	"taskdeck/internal/repo"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

const (
	DefaultKeyPrefix   = "taskdeck_"
	BootstrapName      = "My First Project"
	defaultProjectSpan = 30 * 24 * time.Hour
)

// State is the full persisted state.
type State struct {
	Projects        []domain.Project `json:"projects"`
	ActiveProjectID string           `json:"activeProjectId"`
	APIKey          string           `json:"-"`
}

// Store is the single owner of projects and tasks. Every mutation is
// persisted before it returns; persistence failures are logged and dropped.
type Store struct {
	mu     sync.RWMutex
	blobs  repo.BlobStore
	prefix string
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	state  State
}

type Option func(*Store)

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces uuid generation, mostly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Open loads persisted state from blobs. Unreadable or empty state is
// replaced by a fresh bootstrap project.
func Open(ctx context.Context, blobs repo.BlobStore, opts ...Option) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	s := &Store{
		blobs:  blobs,
		prefix: DefaultKeyPrefix,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	s.persist(ctx)
	return s, nil
}

func (s *Store) key(name string) string { return s.prefix + name }

func (s *Store) load(ctx context.Context) {
	var projects []domain.Project
	raw, err := s.blobs.Get(ctx, s.key("projects"))
	switch {
	case errors.Is(err, repo.ErrNotFound):
	case err != nil:
		s.logger.Warn("load projects failed", "error", err)
	default:
		if err := json.Unmarshal([]byte(raw), &projects); err != nil {
			s.logger.Warn("decode projects failed", "error", err)
			projects = nil
		}
	}
	if len(projects) == 0 {
		s.bootstrap()
	} else {
		for i := range projects {
			normalizeProject(&projects[i])
		}
		s.state.Projects = projects
		s.state.ActiveProjectID = projects[0].ID
		if active, err := s.blobs.Get(ctx, s.key("activeProjectId")); err == nil && s.indexOf(active) >= 0 {
			s.state.ActiveProjectID = active
		}
	}
	if key, err := s.blobs.Get(ctx, s.key("apiKey")); err == nil {
		s.state.APIKey = key
	} else if !errors.Is(err, repo.ErrNotFound) {
		s.logger.Warn("load api key failed", "error", err)
	}
}

func normalizeProject(p *domain.Project) {
	p.Deadline = domain.CoerceDate(p.Deadline)
	if p.Tasks == nil {
		p.Tasks = []domain.Task{}
	}
	for i := range p.Tasks {
		p.Tasks[i].StartDate = domain.CoerceDate(p.Tasks[i].StartDate)
		p.Tasks[i].Deadline = domain.CoerceDate(p.Tasks[i].Deadline)
	}
	domain.Recolor(p.Tasks)
}

func (s *Store) bootstrap() {
	p := s.newProject(BootstrapName)
	s.state.Projects = []domain.Project{p}
	s.state.ActiveProjectID = p.ID
}

func (s *Store) newProject(name string) domain.Project {
	deadline := domain.FormatTime(s.now().Add(defaultProjectSpan))
	return domain.Project{
		ID:       s.newID(),
		Name:     name,
		Deadline: &deadline,
		Tasks:    []domain.Task{},
	}
}

// persist writes the three state keys. Callers hold the write lock. The
// in-memory mutation has already happened, so the write outlives a cancelled
// caller.
func (s *Store) persist(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	data, err := json.Marshal(s.state.Projects)
	if err != nil {
		s.logger.Warn("encode projects failed", "error", err)
		return
	}
	if err := s.blobs.Put(ctx, s.key("projects"), string(data)); err != nil {
		s.logger.Warn("persist projects failed", "error", err)
	}
	if err := s.blobs.Put(ctx, s.key("activeProjectId"), s.state.ActiveProjectID); err != nil {
		s.logger.Warn("persist active project failed", "error", err)
	}
	if s.state.APIKey != "" {
		err = s.blobs.Put(ctx, s.key("apiKey"), s.state.APIKey)
	} else {
		err = s.blobs.Delete(ctx, s.key("apiKey"))
	}
	if err != nil {
		s.logger.Warn("persist api key failed", "error", err)
	}
}

func (s *Store) indexOf(projectID string) int {
	for i, p := range s.state.Projects {
		if p.ID == projectID {
			return i
		}
	}
	return -1
}

func (s *Store) activeIndex() int {
	return s.indexOf(s.state.ActiveProjectID)
}

// CreateProject appends a new empty project and makes it active.
func (s *Store) CreateProject(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: project name is required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.newProject(name)
	s.state.Projects = append(s.state.Projects, p)
	s.state.ActiveProjectID = p.ID
	s.persist(ctx)
	s.logger.Debug("project created", "project_id", p.ID)
	return p.ID, nil
}

// DeleteProject removes a project. Deleting the last project wipes all state.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if len(s.state.Projects) == 1 {
		s.wipe(ctx)
		return nil
	}
	s.state.Projects = append(s.state.Projects[:idx:idx], s.state.Projects[idx+1:]...)
	if s.state.ActiveProjectID == id {
		s.state.ActiveProjectID = s.state.Projects[0].ID
	}
	s.persist(ctx)
	return nil
}

// UpdateProject merges patch into the project's metadata.
func (s *Store) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return s.updateProjectAt(ctx, idx, patch)
}

// UpdateActiveProject merges patch into the active project.
func (s *Store) UpdateActiveProject(ctx context.Context, patch domain.ProjectPatch) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateProjectAt(ctx, s.activeIndex(), patch)
}

func (s *Store) updateProjectAt(ctx context.Context, idx int, patch domain.ProjectPatch) (domain.Project, error) {
	if idx < 0 {
		return domain.Project{}, fmt.Errorf("active project: %w", ErrNotFound)
	}
	p := &s.state.Projects[idx]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Project{}, fmt.Errorf("%w: project name is required", ErrInvalid)
		}
		p.Name = name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Deadline != nil {
		p.Deadline = domain.OptionalDate(*patch.Deadline)
	}
	s.persist(ctx)
	return p.Clone(), nil
}

// SetActiveProject switches the active project. Unknown ids are ignored.
func (s *Store) SetActiveProject(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 || s.state.ActiveProjectID == id {
		return
	}
	s.state.ActiveProjectID = id
	s.persist(ctx)
}

// AddTask appends a new task to the active project.
func (s *Store) AddTask(ctx context.Context, in domain.TaskInput) (domain.Task, error) {
	tasks, err := s.AddTasks(ctx, []domain.TaskInput{in})
	if err != nil {
		return domain.Task{}, err
	}
	return tasks[0], nil
}

// AddTasks appends tasks to the active project in input order. Nothing is
// added if any input is invalid.
func (s *Store) AddTasks(ctx context.Context, inputs []domain.TaskInput) ([]domain.Task, error) {
	for i, in := range inputs {
		if err := validateInput(in); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.activeIndex()
	if idx < 0 {
		return nil, fmt.Errorf("active project: %w", ErrNotFound)
	}
	created := make([]domain.Task, 0, len(inputs))
	for _, in := range inputs {
		t := domain.Task{
			ID:          s.newID(),
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Urgency:     in.Urgency,
			Importance:  in.Importance,
			StartDate:   domain.OptionalDate(in.StartDate),
			Deadline:    domain.OptionalDate(in.Deadline),
		}
		t.Color = domain.ColorFor(t.Urgency, t.Importance)
		created = append(created, t)
	}
	p := &s.state.Projects[idx]
	for _, t := range created {
		p.Tasks = append(p.Tasks, t.Clone())
	}
	s.persist(ctx)
	return created, nil
}

func validateInput(in domain.TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if err := validateScore("urgency", in.Urgency); err != nil {
		return err
	}
	return validateScore("importance", in.Importance)
}

func validateScore(field string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || *v > 10) {
		return fmt.Errorf("%w: %s must be between 0 and 10", ErrInvalid, field)
	}
	return nil
}

// UpdateTask merges patch into a task of the active project. Dates that no
// longer parse become null and the color is re-derived.
func (s *Store) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.Task{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if err := validateScore("urgency", patch.Urgency); err != nil {
		return domain.Task{}, err
	}
	if err := validateScore("importance", patch.Importance); err != nil {
		return domain.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pi := s.activeIndex()
	if pi < 0 {
		return domain.Task{}, fmt.Errorf("active project: %w", ErrNotFound)
	}
	tasks := s.state.Projects[pi].Tasks
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		t := &tasks[i]
		applyPatch(t, patch)
		t.StartDate = domain.CoerceDate(t.StartDate)
		t.Deadline = domain.CoerceDate(t.Deadline)
		t.Color = domain.ColorFor(t.Urgency, t.Importance)
		s.persist(ctx)
		return t.Clone(), nil
	}
	return domain.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
}

func applyPatch(t *domain.Task, patch domain.TaskPatch) {
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.Pinned != nil {
		t.Pinned = *patch.Pinned
	}
	if patch.Urgency != nil {
		u := *patch.Urgency
		t.Urgency = &u
	}
	if patch.Importance != nil {
		i := *patch.Importance
		t.Importance = &i
	}
	if patch.StartDate != nil {
		t.StartDate = domain.OptionalDate(*patch.StartDate)
	}
	if patch.Deadline != nil {
		t.Deadline = domain.OptionalDate(*patch.Deadline)
	}
	if patch.LastPosition != nil {
		pos := *patch.LastPosition
		t.LastPosition = &pos
	}
}

// DeleteTask removes a task from the active project.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi := s.activeIndex()
	if pi < 0 {
		return fmt.Errorf("active project: %w", ErrNotFound)
	}
	p := &s.state.Projects[pi]
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			p.Tasks = append(p.Tasks[:i:i], p.Tasks[i+1:]...)
			s.persist(ctx)
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, ErrNotFound)
}

// Wipe deletes all persisted state and starts over with one bootstrap
// project and no credential.
func (s *Store) Wipe(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipe(ctx)
}

func (s *Store) wipe(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range []string{"projects", "activeProjectId", "apiKey"} {
		if err := s.blobs.Delete(ctx, s.key(name)); err != nil {
			s.logger.Warn("wipe key failed", "key", s.key(name), "error", err)
		}
	}
	s.state = State{}
	s.bootstrap()
	s.persist(ctx)
	s.logger.Info("state wiped", "project_id", s.state.ActiveProjectID)
}

// APIKey returns the stored generative-AI credential, or "".
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.APIKey
}

// SetAPIKey stores the credential; an empty key removes it.
func (s *Store) SetAPIKey(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.APIKey = strings.TrimSpace(key)
	s.persist(ctx)
}

// Active returns a copy of the active project view.
func (s *Store) Active() domain.ActiveProject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var view domain.ActiveProject
	if idx := s.activeIndex(); idx >= 0 {
		view.Project = s.state.Projects[idx].Clone()
		view.Tasks = view.Project.Tasks
	}
	view.AllProjects = make([]domain.ProjectSummary, 0, len(s.state.Projects))
	for _, p := range s.state.Projects {
		view.AllProjects = append(view.AllProjects, domain.Summarize(p))
	}
	return view
}

// ActiveProjectID returns the id of the active project.
func (s *Store) ActiveProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveProjectID
}

// Projects returns copies of all projects in order.
func (s *Store) Projects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, len(s.state.Projects))
	for i, p := range s.state.Projects {
		out[i] = p.Clone()
	}
	return out
}

// Task looks up a task in the active project.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.activeIndex()
	if idx < 0 {
		return domain.Task{}, false
	}
	for _, t := range s.state.Projects[idx].Tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return domain.Task{}, false
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := State{ActiveProjectID: s.state.ActiveProjectID, APIKey: s.state.APIKey}
	out.Projects = make([]domain.Project, len(s.state.Projects))
	for i, p := range s.state.Projects {
		out.Projects[i] = p.Clone()
	}
	return out
}
