package config

// Config is the parsed .taskline/config.yml.
type Config struct {
	Version  int      `yaml:"version"`
	Executor Executor `yaml:"executor"`
	UI       UI       `yaml:"ui"`
	Log      Log      `yaml:"log"`
	Spool    Spool    `yaml:"spool"`
	Archive  Archive  `yaml:"archive"`
	Serve    Serve    `yaml:"serve"`
}

// Executor locates the agent executor API.
type Executor struct {
	BaseURL        string `yaml:"base_url"`
	TokenEnv       string `yaml:"token_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// UI selects how timelines are rendered.
type UI struct {
	Mode string `yaml:"mode"` // auto, live or plain
}

// Log controls the ambient file logger.
type Log struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Spool locates the local event spool database.
type Spool struct {
	Path string `yaml:"path"`
}

// Archive locates the analytical archive database.
type Archive struct {
	Path string `yaml:"path"`
}

// Serve configures the local snapshot server.
type Serve struct {
	Listen string `yaml:"listen"`
}

// UI mode values.
const (
	ModeAuto  = "auto"
	ModeLive  = "live"
	ModePlain = "plain"
)
