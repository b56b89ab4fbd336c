package ai

import (
	"fmt"
	"strings"
	"time"
)

const systemInstruction = "You are a pragmatic project manager. Be critical and realistic. " +
	"Reply with the requested JSON object only, without commentary or markdown."

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func analysisPrompt(req AnalysisRequest, now time.Time) Prompt {
	today := now.UTC().Format(time.RFC3339)
	return Prompt{
		System: systemInstruction,
		User: fmt.Sprintf(`Score one task of a project.
Project: %s
Project deadline: %s
Today: %s

Task title: %s
Task description: %s

Rate urgency and importance from 1 to 10. Pick a startDate and a deadline in ISO-8601.
High urgency starts today, medium urgency within a week, low urgency later.
Let the duration follow the task's complexity. startDate must not be before today
and both dates must fall before the project deadline.

Return {"urgency": number, "importance": number, "startDate": string, "deadline": string}.`,
			orNA(req.ProjectDescription), orNA(req.ProjectDeadline), today, req.Title, orNA(req.Description),
		),
	}
}

func brainstormPrompt(projectDescription, goal string) Prompt {
	return Prompt{
		User: fmt.Sprintf(`Break a goal into 5 to 7 concrete tasks.
Project: %s
Goal: %q

Give each task a title and a short description only.
Return {"tasks": [{"title": string, "description": string}]}.`, orNA(projectDescription), goal),
	}
}

func resourcesPrompt(req ResourceRequest) Prompt {
	focus := "General resources for the whole project."
	if req.Task != nil {
		focus = fmt.Sprintf("The task %q. Description: %s", req.Task.Title, orNA(req.Task.Description))
	}
	return Prompt{
		System: systemInstruction,
		User: fmt.Sprintf(`Suggest 5 to 7 useful online resources (articles, tutorials, documentation).
Project: %s
Focus: %s

Return {"resources": [{"title": string, "description": string, "link": string}]}.`, orNA(req.ProjectDescription), focus),
	}
}
