package core

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the daemon's top-level configuration, YAML-decoded the
// way fw/cmd/cmd.go's toolutils.ReadYaml(config, configfile) decodes
// into core.DefaultConfig()'s result.
type Config struct {
	Core      CoreConfig      `yaml:"core"`
	Faces     FacesConfig     `yaml:"faces"`
	Tables    TablesConfig    `yaml:"tables"`
	Listeners ListenersConfig `yaml:"listeners"`
}

// ListenersConfig lists the SPEC_FULL.md §4.10 additional face
// transports; an empty bind address disables that listener entirely,
// so a bare install only ever opens the unix and datagram sockets
// spec.md §6 requires.
type ListenersConfig struct {
	TCPBind       string           `yaml:"tcp_bind"`
	WebSocketBind string           `yaml:"websocket_bind"`
	HTTP3         HTTP3ListenerCfg `yaml:"http3"`
}

type HTTP3ListenerCfg struct {
	Bind    string `yaml:"bind"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

type CoreConfig struct {
	BaseDir      string `yaml:"-"`
	LogLevel     string `yaml:"log_level"`
	CpuProfile   string `yaml:"-"`
	MemProfile   string `yaml:"-"`
	BlockProfile string `yaml:"-"`

	// UnixSocketName is the suffix used to build the listener path,
	// overridden by $CCN_LOCAL_PORT per spec.md §6.
	UnixSocketName string `yaml:"unix_socket_name"`
	// DatagramPort is the default datagram port, overridden by
	// $CCN_LOCAL_PORT as well.
	DatagramPort string `yaml:"datagram_port"`
	StatusAddr   string `yaml:"status_addr"`
}

type FacesConfig struct {
	MaxFaces int `yaml:"max_faces"`
}

type TablesConfig struct {
	// UnitInterest is CCN_UNIT_INTEREST from spec.md §3/§4.6.
	UnitInterest int `yaml:"unit_interest"`
	// InterestHalfLife is CCN_INTEREST_HALFLIFE_MICROSEC.
	InterestHalfLife time.Duration `yaml:"interest_halflife"`
	// DataPause is CCN_DATA_PAUSE, the link-framed send spacing base.
	DataPause time.Duration `yaml:"data_pause"`
	// ShortTermBlocking toggles the experimental behavior from
	// spec.md §4.3/§9 open question (a); default off.
	ShortTermBlocking bool `yaml:"short_term_blocking"`
}

// DefaultConfig returns the daemon's defaults, mirroring
// fw/cmd/cmd.go's `var config = core.DefaultConfig()`.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			LogLevel:       "INFO",
			UnixSocketName: "ccnd.sock",
			DatagramPort:   "4485",
			StatusAddr:     "127.0.0.1:9695",
		},
		Faces: FacesConfig{
			MaxFaces: 1 << 16,
		},
		Tables: TablesConfig{
			UnitInterest:      1 << 10,
			InterestHalfLife:  2 * time.Second,
			DataPause:         20 * time.Millisecond,
			ShortTermBlocking: false,
		},
	}
}

// ReadYAML decodes a YAML config file into cfg, the same call shape as
// the teacher's toolutils.ReadYaml helper.
func ReadYAML(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, cfg)
}

// ApplyEnv overlays $CCN_LOCAL_PORT and $CCND_DEBUG onto cfg, per
// spec.md §6's environment-variable rules.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CCN_LOCAL_PORT"); v != "" {
		c.Core.UnixSocketName = v
		c.Core.DatagramPort = v
	}
	if os.Getenv("CCND_DEBUG") != "" {
		c.Core.LogLevel = "TRACE"
	}
}
