package models

import (
	"slices"

	"golang.org/x/text/language"
)

// Language is the interface language of a session.
type Language string

const (
	LanguageEN Language = "en"
	LanguageFR Language = "fr"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageEN || l == LanguageFR
}

var languageMatcher = language.NewMatcher([]language.Tag{language.English, language.French})

// MatchLanguage maps any BCP 47 tag (e.g. "fr-CA", "en_US") to the closest
// supported language. Unparseable input yields English.
func MatchLanguage(tag string) Language {
	t, err := language.Parse(tag)
	if err != nil {
		return LanguageEN
	}
	_, idx, _ := languageMatcher.Match(t)
	if idx == 1 {
		return LanguageFR
	}
	return LanguageEN
}

// Theme is the colour scheme of a session.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a supported theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Quote is the daily quote shown on the dashboard.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// Settings is a fully populated effective configuration.
type Settings struct {
	Language         Language `json:"language"`
	Theme            Theme    `json:"theme"`
	SidebarCollapsed bool     `json:"sidebarCollapsed"`
	GoalCategories   []string `json:"goalCategories"`
	MaxSubGoals      int      `json:"maxSubGoals"`
	DailyQuote       Quote    `json:"dailyQuote"`
}

// DefaultSettings returns the hardcoded defaults with the given language.
func DefaultSettings(lang Language) Settings {
	if !lang.Valid() {
		lang = LanguageEN
	}
	return Settings{
		Language:         lang,
		Theme:            ThemeLight,
		SidebarCollapsed: false,
		GoalCategories:   []string{"Health", "Finance", "Career", "Education", "Personal"},
		MaxSubGoals:      5,
		DailyQuote: Quote{
			Text:   "The only way to do great work is to love what you do.",
			Author: "Steve Jobs",
		},
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.GoalCategories = slices.Clone(s.GoalCategories)
	return s
}

// Equal reports whether two settings values are identical.
func (s Settings) Equal(o Settings) bool {
	return s.Language == o.Language &&
		s.Theme == o.Theme &&
		s.SidebarCollapsed == o.SidebarCollapsed &&
		slices.Equal(s.GoalCategories, o.GoalCategories) &&
		s.MaxSubGoals == o.MaxSubGoals &&
		s.DailyQuote == o.DailyQuote
}

// SettingsPatch is a partial settings record. It is both the shape of an
// update request and the shape of a stored record, which may lack fields.
type SettingsPatch struct {
	Language         *Language `json:"language,omitempty"`
	Theme            *Theme    `json:"theme,omitempty"`
	SidebarCollapsed *bool     `json:"sidebarCollapsed,omitempty"`
	GoalCategories   []string  `json:"goalCategories,omitempty"`
	MaxSubGoals      *int      `json:"maxSubGoals,omitempty"`
	DailyQuote       *Quote    `json:"dailyQuote,omitempty"`
}

// Apply overwrites the fields present in p onto a copy of s.
func (p SettingsPatch) Apply(s Settings) Settings {
	s = s.Clone()
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.SidebarCollapsed != nil {
		s.SidebarCollapsed = *p.SidebarCollapsed
	}
	if p.GoalCategories != nil {
		s.GoalCategories = slices.Clone(p.GoalCategories)
	}
	if p.MaxSubGoals != nil {
		s.MaxSubGoals = *p.MaxSubGoals
	}
	if p.DailyQuote != nil {
		s.DailyQuote = *p.DailyQuote
	}
	return s
}

// PatchOf returns a patch carrying every field of s.
func PatchOf(s Settings) SettingsPatch {
	s = s.Clone()
	return SettingsPatch{
		Language:         &s.Language,
		Theme:            &s.Theme,
		SidebarCollapsed: &s.SidebarCollapsed,
		GoalCategories:   s.GoalCategories,
		MaxSubGoals:      &s.MaxSubGoals,
		DailyQuote:       &s.DailyQuote,
	}
}
