package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/db"
	"taskdeck/internal/domain"
	"taskdeck/internal/server"
	"taskdeck/internal/timeline"
)

var rootCmd = &cobra.Command{
	Use:   "td",
	Short: "taskdeck CLI",
	Long: `taskdeck keeps projects of tasks ranked on an Eisenhower matrix and laid out on a monthly timeline.
- Projects: one is active at a time; every task command works on the active project.
- Matrix: urgency and importance scores (0-10) place a task in do, decide, delegate or delete.
- Timeline: tasks with a start date and a deadline become bars packed into lanes.
- AI: with a Gemini key set ('td key set'), goals are broken into scored tasks and tasks can be re-prioritized.
Settings come from taskdeck.yml in the workspace, TASKDECK_* environment variables and the workspace .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if err := godotenv.Load(filepath.Join(workspace, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("storage-driver", "", "storage driver (sqlite, postgres, redis, memory)")
	rootCmd.PersistentFlags().String("storage-dsn", "", "storage DSN or URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	for _, name := range []string{"workspace", "json", "storage-driver", "storage-dsn", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(matrixCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(aiCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(wipeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

// resolveConfig loads taskdeck.yml and applies flag and environment
// overrides on top.
func resolveConfig(workspace string) (*config.Config, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("storage-driver"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := viper.GetString("storage-dsn"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := viper.GetString("ai-model"); v != "" {
		cfg.AI.Model = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := resolveConfig(workspace)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == config.DriverSQLite {
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)
	a, err := app.Open(ctx, workspace, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectUseCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				view := a.Store.Active()
				if viper.GetBool("json") {
					return printJSON(view.AllProjects)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"", "ID", "Name", "Deadline", "Tasks"})
				for _, p := range view.AllProjects {
					marker := ""
					if p.ID == view.Project.ID {
						marker = "*"
					}
					tw.AppendRow(table.Row{marker, p.ID, p.Name, dateCell(p.Deadline), p.TaskCount})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				id, err := a.Store.CreateProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]string{"id": id, "name": args[0]})
			})
		},
	}
}

func projectUpdateCmd() *cobra.Command {
	var name, desc, deadline string
	cmd := &cobra.Command{
		Use:   "update [ID]",
		Short: "Update a project (the active one when ID is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.ProjectPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &desc
			}
			if cmd.Flags().Changed("deadline") {
				patch.Deadline = &deadline
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var (
					p   domain.Project
					err error
				)
				if len(args) == 1 {
					p, err = a.Store.UpdateProject(ctx, args[0], patch)
				} else {
					p, err = a.Store.UpdateActiveProject(ctx, patch)
				}
				if err != nil {
					return err
				}
				p.Tasks = nil
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "description", "", "project description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "project deadline (empty clears)")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project; deleting the last one starts over",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Store.DeleteProject(ctx, args[0]); err != nil {
					return err
				}
				return printJSONOrTable(map[string]string{"deleted": args[0], "active": a.Store.ActiveProjectID()})
			})
		},
	}
}

func projectUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use ID",
		Short: "Switch the active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Store.SetActiveProject(ctx, args[0])
				if a.Store.ActiveProjectID() != args[0] {
					return fmt.Errorf("project %s not found", args[0])
				}
				return printJSONOrTable(map[string]string{"active": args[0]})
			})
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks of the active project",
	}
	task.AddCommand(taskAddCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskUpdateCmd())
	task.AddCommand(taskDoneCmd())
	task.AddCommand(taskDeleteCmd())
	return task
}

type scoreFlags struct {
	urgency, importance float64
}

func (s *scoreFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&s.urgency, "urgency", 0, "urgency score 0-10")
	cmd.Flags().Float64Var(&s.importance, "importance", 0, "importance score 0-10")
}

func (s *scoreFlags) values(cmd *cobra.Command) (u, i *float64) {
	if cmd.Flags().Changed("urgency") {
		u = &s.urgency
	}
	if cmd.Flags().Changed("importance") {
		i = &s.importance
	}
	return u, i
}

func taskAddCmd() *cobra.Command {
	var in domain.TaskInput
	var scores scoreFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Urgency, in.Importance = scores.values(cmd)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Store.AddTask(ctx, in)
				if err != nil {
					return err
				}
				return printTasks([]domain.Task{t})
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.StartDate, "start", "", "start date (ISO-8601)")
	cmd.Flags().StringVar(&in.Deadline, "deadline", "", "deadline (ISO-8601)")
	scores.bind(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var quadrant string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tasks := a.Store.Active().Tasks
				if quadrant != "" {
					var filtered []domain.Task
					for _, t := range tasks {
						if domain.Classify(t.Urgency, t.Importance).String() == quadrant {
							filtered = append(filtered, t)
						}
					}
					tasks = filtered
				}
				return printTasks(tasks)
			})
		},
	}
	cmd.Flags().StringVar(&quadrant, "quadrant", "", "quadrant filter (do, decide, delegate, delete)")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var title, desc, start, deadline string
	var pinned bool
	var scores scoreFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a task; pass an empty --start or --deadline to clear it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.TaskPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &desc
			}
			if cmd.Flags().Changed("start") {
				patch.StartDate = &start
			}
			if cmd.Flags().Changed("deadline") {
				patch.Deadline = &deadline
			}
			if cmd.Flags().Changed("pinned") {
				patch.Pinned = &pinned
			}
			patch.Urgency, patch.Importance = scores.values(cmd)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Store.UpdateTask(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return printTasks([]domain.Task{t})
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&start, "start", "", "start date")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "pin the task")
	scores.bind(cmd)
	return cmd
}

func taskDoneCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done ID",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			completed := !undo
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Store.UpdateTask(ctx, args[0], domain.TaskPatch{Completed: &completed})
				if err != nil {
					return err
				}
				p := domain.ProgressOf(a.Store.Active().Tasks)
				if viper.GetBool("json") {
					return printJSON(map[string]any{"task": t, "progress": p})
				}
				fmt.Printf("%s: completed=%t (%d/%d, %.0f%%)\n", t.Title, t.Completed, p.Completed, p.Total, p.Percent)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark as not completed")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Store.DeleteTask(ctx, args[0]); err != nil {
					return err
				}
				return printJSONOrTable(map[string]string{"deleted": args[0]})
			})
		},
	}
}

func matrixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Show tasks by Eisenhower quadrant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				groups := map[domain.Quadrant][]domain.Task{}
				for _, t := range a.Store.Active().Tasks {
					q := domain.Classify(t.Urgency, t.Importance)
					groups[q] = append(groups[q], t)
				}
				if viper.GetBool("json") {
					out := map[string][]domain.Task{}
					for q, ts := range groups {
						out[q.String()] = ts
					}
					return printJSON(out)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Quadrant", "Title", "U", "I", "Done"})
				for _, q := range []domain.Quadrant{domain.QuadrantDo, domain.QuadrantDecide, domain.QuadrantDelegate, domain.QuadrantDelete} {
					for _, t := range groups[q] {
						tw.AppendRow(table.Row{q.Label(), t.Title, scoreCell(t.Urgency), scoreCell(t.Importance), t.Completed})
					}
				}
				tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
				tw.Render()
				return nil
			})
		},
	}
}

func timelineCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the lane layout for a month (YYYY-MM, default this month)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				w, err := monthWindow(month)
				if err != nil {
					return err
				}
				tasks := a.Store.Active().Tasks
				layout := a.Timeline.Layout(tasks, w)
				if viper.GetBool("json") {
					return printJSON(layout)
				}
				byID := map[string]domain.Task{}
				for _, t := range tasks {
					byID[t.ID] = t
				}
				tw := newTable()
				tw.SetTitle("%s (%d lanes)", layout.Month, layout.LaneCount)
				tw.AppendHeader(table.Row{"Lane", "Title", "Start", "Deadline", "Status"})
				for _, b := range layout.Bars {
					t := byID[b.TaskID]
					status := ""
					switch {
					case b.Completed:
						status = "done"
					case b.Overdue:
						status = text.FgRed.Sprint("overdue")
					}
					tw.AppendRow(table.Row{b.Lane + 1, b.Title, dateCell(t.StartDate), dateCell(t.Deadline), status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.PersistentFlags().StringVar(&month, "month", "", "month (YYYY-MM)")
	cmd.AddCommand(timelineMonthsCmd())
	cmd.AddCommand(timelineDragCmd(&month))
	cmd.AddCommand(timelineResizeCmd(&month))
	return cmd
}

func monthWindow(month string) (timeline.Window, error) {
	if month == "" {
		return timeline.MonthWindow(time.Now()), nil
	}
	return timeline.ParseMonth(month, time.Local)
}

func timelineMonthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List months spanned by the tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				opts := timeline.MonthOptions(a.Store.Active().Tasks, time.Now())
				if viper.GetBool("json") {
					return printJSON(opts)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Month", "Deadlines"})
				for _, o := range opts {
					tw.AppendRow(table.Row{o.Month, o.Deadlines})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func timelineDragCmd(month *string) *cobra.Command {
	var x float64
	cmd := &cobra.Command{
		Use:   "drag ID",
		Short: "Move a bar to pixel offset --x, keeping its duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				w, err := monthWindow(*month)
				if err != nil {
					return err
				}
				t, err := a.Timeline.DragStop(ctx, args[0], w, x)
				if err != nil {
					return err
				}
				return printTasks([]domain.Task{t})
			})
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "new left offset in pixels")
	return cmd
}

func timelineResizeCmd(month *string) *cobra.Command {
	var x, width float64
	cmd := &cobra.Command{
		Use:   "resize ID",
		Short: "Set a bar to pixel offset --x and --width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				w, err := monthWindow(*month)
				if err != nil {
					return err
				}
				t, err := a.Timeline.ResizeStop(ctx, args[0], w, x, width)
				if err != nil {
					return err
				}
				return printTasks([]domain.Task{t})
			})
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "new left offset in pixels")
	cmd.Flags().Float64Var(&width, "width", 0, "new width in pixels")
	_ = cmd.MarkFlagRequired("width")
	return cmd
}

func aiCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "ai",
		Short: "AI-assisted planning for the active project",
	}
	c.AddCommand(aiGenerateCmd())
	c.AddCommand(aiCompleteCmd())
	c.AddCommand(aiPrioritizeCmd())
	c.AddCommand(aiOverdueCmd())
	c.AddCommand(aiResourcesCmd())
	return c
}

func aiGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate GOAL",
		Short: "Break a goal into scored tasks and add them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tasks, err := a.Planner.GenerateTasks(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printTasks(tasks)
			})
		},
	}
}

func aiCompleteCmd() *cobra.Command {
	var title, desc string
	var add bool
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Suggest scores and dates for a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				in, t, err := a.Planner.CompleteTask(ctx, domain.TaskInput{Title: title, Description: desc}, add)
				if err != nil {
					return err
				}
				if t != nil {
					return printTasks([]domain.Task{*t})
				}
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().BoolVar(&add, "add", false, "add the completed task to the project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func aiPrioritizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prioritize [ID...]",
		Short: "Re-score tasks (all tasks when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tasks, err := a.Planner.PrioritizeTasks(ctx, args)
				if err != nil {
					return err
				}
				return printTasks(tasks)
			})
		},
	}
}

func aiOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "Re-score incomplete tasks past their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tasks, err := a.Planner.ReevaluateOverdue(ctx)
				if err != nil {
					return err
				}
				return printTasks(tasks)
			})
		},
	}
}

func aiResourcesCmd() *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Suggest references for the project or one task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Planner.FindResources(ctx, taskID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Title", "Link"})
				for _, r := range res {
					tw.AppendRow(table.Row{r.Title, r.Link})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	return cmd
}

func keyCmd() *cobra.Command {
	c := &cobra.Command{Use: "key", Short: "Manage the Gemini API key"}
	c.AddCommand(&cobra.Command{
		Use:   "set [KEY]",
		Short: "Store the API key (defaults to TASKDECK_API_KEY)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := viper.GetString("api-key")
			if len(args) == 1 {
				key = args[0]
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return errors.New("no key given and TASKDECK_API_KEY is empty")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Store.SetAPIKey(ctx, key)
				return printJSONOrTable(map[string]bool{"apiKeySet": true})
			})
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Store.SetAPIKey(ctx, "")
				return printJSONOrTable(map[string]bool{"apiKeySet": false})
			})
		},
	})
	return c
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active project and its progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				view := a.Store.Active()
				p := domain.ProgressOf(view.Tasks)
				overdue := timeline.Overdue(view.Tasks, time.Now())
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"project":   view.Project.Name,
						"progress":  p,
						"overdue":   len(overdue),
						"apiKeySet": a.Store.APIKey() != "",
					})
				}
				fmt.Printf("Project:  %s\n", view.Project.Name)
				fmt.Printf("Progress: %d/%d (%.0f%%)\n", p.Completed, p.Total, p.Percent)
				fmt.Printf("Overdue:  %d\n", len(overdue))
				fmt.Printf("AI key:   %t\n", a.Store.APIKey() != "")
				return nil
			})
		},
	}
}

func wipeCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Erase all projects, tasks and the API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("wipe erases everything; rerun with --force")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Store.Wipe(ctx)
				return printJSONOrTable(map[string]string{"active": a.Store.ActiveProjectID()})
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect taskdeck.yml",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(c)
			}
			out, err := c.YAML()
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default taskdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			out, err := config.Default().YAML()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	return cfg
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Config.Server.Addr
				}
				cfg := server.FromApp(a)
				cfg.BasePath = basePath
				handler, err := server.New(cfg)
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				a.Logger.Info("serving taskdeck API", "addr", addr, "base_path", basePath)
				fmt.Printf("Serving taskdeck API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}

func printTasks(tasks []domain.Task) error {
	if viper.GetBool("json") {
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return printJSON(tasks)
	}
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Title", "U", "I", "Quadrant", "Start", "Deadline", "Done"})
	for _, t := range tasks {
		q := domain.Classify(t.Urgency, t.Importance)
		tw.AppendRow(table.Row{t.ID, t.Title, scoreCell(t.Urgency), scoreCell(t.Importance), q.String(), dateCell(t.StartDate), dateCell(t.Deadline), t.Completed})
	}
	tw.Render()
	return nil
}

func scoreCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func dateCell(v *string) string {
	t, ok := domain.DateOf(v)
	if !ok {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
