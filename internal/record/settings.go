package record

// Theme names a UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// DefaultMaxHighlights is the per-workspace highlight cap applied when
// settings carry no explicit value.
const DefaultMaxHighlights = 50

// Settings is the single process-wide settings record. The stored form may
// be partial; readers resolve absent fields through DefaultSettings.
type Settings struct {
	OpenAIAPIKey             string `json:"openaiApiKey,omitempty"`
	OpenAIModel              string `json:"openaiModel,omitempty"`
	NotionAPIKey             string `json:"notionApiKey,omitempty"`
	NotionIntegrationEnabled bool   `json:"notionIntegrationEnabled"`
	FocusModeEnabled         bool   `json:"focusModeEnabled"`
	AutoSaveTabSets          bool   `json:"autoSaveTabSets"`
	Theme                    Theme  `json:"theme,omitempty"`
	MaxHighlights            int    `json:"maxHighlights,omitempty"`
}

// SettingsPatch is a partial settings update. Nil fields are left untouched
// by Apply; a save is always a field-level merge, never a replace.
type SettingsPatch struct {
	OpenAIAPIKey             *string `json:"openaiApiKey,omitempty"`
	OpenAIModel              *string `json:"openaiModel,omitempty"`
	NotionAPIKey             *string `json:"notionApiKey,omitempty"`
	NotionIntegrationEnabled *bool   `json:"notionIntegrationEnabled,omitempty"`
	FocusModeEnabled         *bool   `json:"focusModeEnabled,omitempty"`
	AutoSaveTabSets          *bool   `json:"autoSaveTabSets,omitempty"`
	Theme                    *Theme  `json:"theme,omitempty"`
	MaxHighlights            *int    `json:"maxHighlights,omitempty"`
}

// DefaultSettings returns the documented defaults for every recognized field.
func DefaultSettings() Settings {
	return Settings{
		NotionIntegrationEnabled: false,
		FocusModeEnabled:         false,
		AutoSaveTabSets:          false,
		Theme:                    ThemeAuto,
		MaxHighlights:            DefaultMaxHighlights,
	}
}

// WithDefaults resolves absent fields of a stored (possibly partial)
// settings record against the documented defaults. Zero values are treated
// as absent; no recognized field has a meaningful zero value distinct from
// its default.
func (s Settings) WithDefaults() Settings {
	out := s
	if out.Theme == "" {
		out.Theme = ThemeAuto
	}
	if out.MaxHighlights <= 0 {
		out.MaxHighlights = DefaultMaxHighlights
	}
	return out
}

// Apply merges a patch over the receiver and returns the result. Later
// patches win field-by-field; unset patch fields keep the current value.
func (s Settings) Apply(p SettingsPatch) Settings {
	out := s
	if p.OpenAIAPIKey != nil {
		out.OpenAIAPIKey = *p.OpenAIAPIKey
	}
	if p.OpenAIModel != nil {
		out.OpenAIModel = *p.OpenAIModel
	}
	if p.NotionAPIKey != nil {
		out.NotionAPIKey = *p.NotionAPIKey
	}
	if p.NotionIntegrationEnabled != nil {
		out.NotionIntegrationEnabled = *p.NotionIntegrationEnabled
	}
	if p.FocusModeEnabled != nil {
		out.FocusModeEnabled = *p.FocusModeEnabled
	}
	if p.AutoSaveTabSets != nil {
		out.AutoSaveTabSets = *p.AutoSaveTabSets
	}
	if p.Theme != nil {
		out.Theme = *p.Theme
	}
	if p.MaxHighlights != nil {
		out.MaxHighlights = *p.MaxHighlights
	}
	return out
}

// Merge combines two patches; fields set in b override fields set in a.
// Applying the result equals applying a then b.
func (a SettingsPatch) Merge(b SettingsPatch) SettingsPatch {
	out := a
	if b.OpenAIAPIKey != nil {
		out.OpenAIAPIKey = b.OpenAIAPIKey
	}
	if b.OpenAIModel != nil {
		out.OpenAIModel = b.OpenAIModel
	}
	if b.NotionAPIKey != nil {
		out.NotionAPIKey = b.NotionAPIKey
	}
	if b.NotionIntegrationEnabled != nil {
		out.NotionIntegrationEnabled = b.NotionIntegrationEnabled
	}
	if b.FocusModeEnabled != nil {
		out.FocusModeEnabled = b.FocusModeEnabled
	}
	if b.AutoSaveTabSets != nil {
		out.AutoSaveTabSets = b.AutoSaveTabSets
	}
	if b.Theme != nil {
		out.Theme = b.Theme
	}
	if b.MaxHighlights != nil {
		out.MaxHighlights = b.MaxHighlights
	}
	return out
}
