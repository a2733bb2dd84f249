package repository

import (
	"github.com/atinyakov/winnermind/internal/docstore"
	"github.com/atinyakov/winnermind/internal/models"
)

func encodeSettings(s models.Settings) docstore.Fields {
	return docstore.Fields{
		"language":         string(s.Language),
		"theme":            string(s.Theme),
		"sidebarCollapsed": s.SidebarCollapsed,
		"goalCategories":   s.GoalCategories,
		"maxSubGoals":      s.MaxSubGoals,
		"dailyQuote": map[string]any{
			"text":   s.DailyQuote.Text,
			"author": s.DailyQuote.Author,
		},
	}
}

// decodeSettings keeps only the well-typed fields of a stored record;
// anything missing or malformed falls back in the cascade.
func decodeSettings(f docstore.Fields) models.SettingsPatch {
	var p models.SettingsPatch
	if v, ok := f["language"].(string); ok {
		lang := models.Language(v)
		p.Language = &lang
	}
	if v, ok := f["theme"].(string); ok {
		theme := models.Theme(v)
		p.Theme = &theme
	}
	if v, ok := f["sidebarCollapsed"].(bool); ok {
		p.SidebarCollapsed = &v
	}
	if v, ok := f.Strings("goalCategories"); ok {
		p.GoalCategories = v
	}
	if v, ok := f.Int("maxSubGoals"); ok {
		p.MaxSubGoals = &v
	}
	if m, ok := f["dailyQuote"].(map[string]any); ok {
		q := docstore.Fields(m)
		p.DailyQuote = &models.Quote{Text: q.String("text"), Author: q.String("author")}
	}
	return p
}

func encodeSubGoals(subs []models.SubGoal) []any {
	out := make([]any, 0, len(subs))
	for _, sg := range subs {
		out = append(out, map[string]any{
			"id":        sg.ID,
			"title":     sg.Title,
			"completed": sg.Completed,
		})
	}
	return out
}

func decodeSubGoals(f docstore.Fields) []models.SubGoal {
	maps := f.Maps("subGoals")
	out := make([]models.SubGoal, 0, len(maps))
	for _, m := range maps {
		out = append(out, models.SubGoal{
			ID:        m.String("id"),
			Title:     m.String("title"),
			Completed: m.Bool("completed"),
		})
	}
	return out
}

func encodeGoal(g models.Goal) docstore.Fields {
	return docstore.Fields{
		"title":       g.Title,
		"description": g.Description,
		"targetDate":  g.TargetDate,
		"progress":    g.Progress,
		"category":    g.Category,
		"createdAt":   g.CreatedAt,
		"updatedAt":   g.UpdatedAt,
		"subGoals":    encodeSubGoals(g.SubGoals),
	}
}

func decodeGoal(d docstore.Document) models.Goal {
	progress, _ := d.Fields.Int("progress")
	return models.Goal{
		ID:          d.ID,
		Title:       d.Fields.String("title"),
		Description: d.Fields.String("description"),
		TargetDate:  d.Fields.Time("targetDate"),
		Progress:    progress,
		Category:    d.Fields.String("category"),
		CreatedAt:   d.Fields.Time("createdAt"),
		UpdatedAt:   d.Fields.Time("updatedAt"),
		SubGoals:    decodeSubGoals(d.Fields),
	}
}

func goalPatchFields(p models.GoalPatch) docstore.Fields {
	f := docstore.Fields{}
	if p.Title != nil {
		f["title"] = *p.Title
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.TargetDate != nil {
		f["targetDate"] = *p.TargetDate
	}
	if p.Progress != nil {
		f["progress"] = *p.Progress
	}
	if p.Category != nil {
		f["category"] = *p.Category
	}
	return f
}

func encodeChallenge(c models.Challenge) docstore.Fields {
	participants := c.Participants
	if participants == nil {
		participants = []string{}
	}
	return docstore.Fields{
		"title":        c.Title,
		"description":  c.Description,
		"startDate":    c.StartDate,
		"endDate":      c.EndDate,
		"category":     c.Category,
		"isPublic":     c.IsPublic,
		"status":       string(c.Status),
		"creatorId":    c.CreatorID,
		"participants": participants,
		"createdAt":    c.CreatedAt,
		"updatedAt":    c.UpdatedAt,
	}
}

func decodeChallenge(d docstore.Document) models.Challenge {
	participants, _ := d.Fields.Strings("participants")
	if participants == nil {
		participants = []string{}
	}
	return models.Challenge{
		ID:           d.ID,
		Title:        d.Fields.String("title"),
		Description:  d.Fields.String("description"),
		StartDate:    d.Fields.Time("startDate"),
		EndDate:      d.Fields.Time("endDate"),
		Category:     d.Fields.String("category"),
		IsPublic:     d.Fields.Bool("isPublic"),
		Status:       models.ChallengeStatus(d.Fields.String("status")),
		CreatorID:    d.Fields.String("creatorId"),
		Participants: participants,
		CreatedAt:    d.Fields.Time("createdAt"),
		UpdatedAt:    d.Fields.Time("updatedAt"),
	}
}

func challengePatchFields(p models.ChallengePatch) docstore.Fields {
	f := docstore.Fields{}
	if p.Title != nil {
		f["title"] = *p.Title
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.StartDate != nil {
		f["startDate"] = *p.StartDate
	}
	if p.EndDate != nil {
		f["endDate"] = *p.EndDate
	}
	if p.Category != nil {
		f["category"] = *p.Category
	}
	if p.IsPublic != nil {
		f["isPublic"] = *p.IsPublic
	}
	if p.Status != nil {
		f["status"] = string(*p.Status)
	}
	return f
}

func encodeProgram(p models.Program) docstore.Fields {
	return docstore.Fields{
		"title":       p.Title,
		"description": p.Description,
		"duration":    p.Duration,
		"level":       string(p.Level),
		"category":    p.Category,
		"modules":     p.Modules,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
}

func decodeProgram(d docstore.Document) models.Program {
	modules, _ := d.Fields.Int("modules")
	return models.Program{
		ID:          d.ID,
		Title:       d.Fields.String("title"),
		Description: d.Fields.String("description"),
		Duration:    d.Fields.String("duration"),
		Level:       models.ProgramLevel(d.Fields.String("level")),
		Category:    d.Fields.String("category"),
		Modules:     modules,
		CreatedAt:   d.Fields.Time("createdAt"),
		UpdatedAt:   d.Fields.Time("updatedAt"),
	}
}

func programPatchFields(pp models.ProgramPatch) docstore.Fields {
	f := docstore.Fields{}
	if pp.Title != nil {
		f["title"] = *pp.Title
	}
	if pp.Description != nil {
		f["description"] = *pp.Description
	}
	if pp.Duration != nil {
		f["duration"] = *pp.Duration
	}
	if pp.Level != nil {
		f["level"] = string(*pp.Level)
	}
	if pp.Category != nil {
		f["category"] = *pp.Category
	}
	if pp.Modules != nil {
		f["modules"] = *pp.Modules
	}
	return f
}

func decodeAdminUser(d docstore.Document) models.AdminUser {
	return models.AdminUser{
		ID:        d.ID,
		Email:     d.Fields.String("email"),
		Role:      models.Role(d.Fields.String("role")),
		CreatedAt: d.Fields.Time("createdAt"),
		LastLogin: d.Fields.Time("lastLogin"),
	}
}
