// Package models defines the core data structures for sessions, goals,
// challenges, programs and administrative user projections.
package models

import "time"

// Session is the authenticated identity handle for the current user.
type Session struct {
	// UserID is the unique identifier of the signed-in account.
	UserID string `json:"userId"`
	// Email is the address the account signed in with.
	Email string `json:"email"`
}

// SubGoal is a checklist item embedded in exactly one Goal.
type SubGoal struct {
	// ID is generated on creation and unique within the parent goal.
	ID string `json:"id"`
	// Title is the text of the item.
	Title string `json:"title"`
	// Completed reports whether the item is checked off.
	Completed bool `json:"completed"`
}

// SubGoalPatch holds the sub-goal fields to change; nil fields are left as is.
type SubGoalPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply returns a copy of sg with the patch applied.
func (p SubGoalPatch) Apply(sg SubGoal) SubGoal {
	if p.Title != nil {
		sg.Title = *p.Title
	}
	if p.Completed != nil {
		sg.Completed = *p.Completed
	}
	return sg
}

// Goal is a personal goal owned by a single user.
type Goal struct {
	// ID is assigned by the document store.
	ID string `json:"id"`
	// Title is the goal headline.
	Title string `json:"title"`
	// Description is free text.
	Description string `json:"description"`
	// TargetDate is when the owner plans to reach the goal.
	TargetDate time.Time `json:"targetDate"`
	// Progress is a percentage; 100 means complete.
	Progress int `json:"progress"`
	// Category is one of the configured goal category labels.
	Category string `json:"category"`
	// CreatedAt is stamped once on creation.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is stamped on every write.
	UpdatedAt time.Time `json:"updatedAt"`
	// SubGoals is the ordered embedded checklist.
	SubGoals []SubGoal `json:"subGoals"`
}

// GoalInput carries the fields needed to create a goal.
type GoalInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TargetDate  time.Time `json:"targetDate"`
	Category    string    `json:"category"`
}

// GoalPatch holds the goal fields to change; nil fields are left as is.
type GoalPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Progress    *int       `json:"progress,omitempty"`
	Category    *string    `json:"category,omitempty"`
}

// Apply returns a copy of g with the patch applied.
func (p GoalPatch) Apply(g Goal) Goal {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	if p.Progress != nil {
		g.Progress = *p.Progress
	}
	if p.Category != nil {
		g.Category = *p.Category
	}
	return g
}

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	// ChallengeDraft is not yet visible to participants.
	ChallengeDraft ChallengeStatus = "draft"
	// ChallengeActive is open for participation.
	ChallengeActive ChallengeStatus = "active"
	// ChallengeCompleted is over.
	ChallengeCompleted ChallengeStatus = "completed"
)

// Valid reports whether s is one of the enumerated statuses.
func (s ChallengeStatus) Valid() bool {
	switch s {
	case ChallengeDraft, ChallengeActive, ChallengeCompleted:
		return true
	}
	return false
}

// Challenge is a community challenge users can join.
type Challenge struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	Category     string          `json:"category"`
	IsPublic     bool            `json:"isPublic"`
	Status       ChallengeStatus `json:"status"`
	CreatorID    string          `json:"creatorId"`
	Participants []string        `json:"participants"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// HasParticipant reports whether userID is in the participant set.
func (c Challenge) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ChallengeInput carries the fields needed to create a challenge.
type ChallengeInput struct {
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	StartDate   time.Time       `json:"startDate" yaml:"startDate"`
	EndDate     time.Time       `json:"endDate" yaml:"endDate"`
	Category    string          `json:"category" yaml:"category"`
	IsPublic    bool            `json:"isPublic" yaml:"isPublic"`
	Status      ChallengeStatus `json:"status" yaml:"status"`
}

// ChallengePatch holds the challenge fields to change; nil fields are left as is.
type ChallengePatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	StartDate   *time.Time       `json:"startDate,omitempty"`
	EndDate     *time.Time       `json:"endDate,omitempty"`
	Category    *string          `json:"category,omitempty"`
	IsPublic    *bool            `json:"isPublic,omitempty"`
	Status      *ChallengeStatus `json:"status,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p ChallengePatch) Apply(c Challenge) Challenge {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.IsPublic != nil {
		c.IsPublic = *p.IsPublic
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}

// ProgramLevel is the audience level of a learning program.
type ProgramLevel string

const (
	LevelBeginner     ProgramLevel = "Beginner"
	LevelIntermediate ProgramLevel = "Intermediate"
	LevelAdvanced     ProgramLevel = "Advanced"
	LevelAll          ProgramLevel = "All Levels"
)

// Valid reports whether l is one of the enumerated levels.
func (l ProgramLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelAll:
		return true
	}
	return false
}

// Program is a learning program from the global catalog.
type Program struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    string       `json:"duration"`
	Level       ProgramLevel `json:"level"`
	Category    string       `json:"category"`
	Modules     int          `json:"modules"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ProgramInput carries the fields needed to create a program.
type ProgramInput struct {
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Duration    string       `json:"duration" yaml:"duration"`
	Level       ProgramLevel `json:"level" yaml:"level"`
	Category    string       `json:"category" yaml:"category"`
	Modules     int          `json:"modules" yaml:"modules"`
}

// ProgramPatch holds the program fields to change; nil fields are left as is.
type ProgramPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Duration    *string       `json:"duration,omitempty"`
	Level       *ProgramLevel `json:"level,omitempty"`
	Category    *string       `json:"category,omitempty"`
	Modules     *int          `json:"modules,omitempty"`
}

// Apply returns a copy of p with the patch applied.
func (pp ProgramPatch) Apply(p Program) Program {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Duration != nil {
		p.Duration = *pp.Duration
	}
	if pp.Level != nil {
		p.Level = *pp.Level
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Modules != nil {
		p.Modules = *pp.Modules
	}
	return p
}

// Role is the administrative role of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the two enumerated roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// AdminUser is the administrative projection over an account record.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}
