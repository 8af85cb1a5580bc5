package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mcpUser string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMCPUser overrides the user the MCP tools act for. An empty id keeps
// the configured one.
func WithMCPUser(userID string) Option {
	return func(a *application) {
		a.mcpUser = userID
	}
}

// user resolves the MCP user: the option first, then mcp.user_id, then
// auth.default_user.
func (a *application) user() string {
	if a.mcpUser != "" {
		return a.mcpUser
	}
	return a.config.mcpUser()
}
