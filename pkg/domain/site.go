package domain

// SiteConfiguration is the per-deployment configuration every page reads.
type SiteConfiguration struct {
	// BaseURL is the externally visible root of the tool, used in links.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// ScriptPath is the request-dispatch prefix prepended to page names.
	ScriptPath string `mapstructure:"script_path" yaml:"script_path"`
	// ToolName is shown in page titles.
	ToolName string `mapstructure:"tool_name" yaml:"tool_name"`
	// EnforceOAuth hides the manual email field on the preferences page.
	EnforceOAuth bool `mapstructure:"enforce_oauth" yaml:"enforce_oauth"`
	// CreatedTemplateID is the email template sent for created accounts. It
	// is excluded from the active template pickers.
	CreatedTemplateID int64 `mapstructure:"created_template_id" yaml:"created_template_id"`
}
