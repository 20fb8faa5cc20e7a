// Package config loads internal/config.Config from the environment: a
// plain struct plus a constructor of sane defaults, with an env-driven
// loader backed by viper + godotenv.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable the CORE needs: bootstrap, tick timing,
// and per-event-kind random-event knobs, in one flat struct.
type Config struct {
	// Server bootstrap (§6.3)
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	ServerPort    int    `mapstructure:"SERVER_PORT"`
	MapDBURI      string `mapstructure:"MAP_DB_URI"`
	ReplayDBURI   string `mapstructure:"REPLAY_DB_URI"`
	ConfigProfile string `mapstructure:"CONFIG_PROFILE"`
	MaxConns      int    `mapstructure:"MAX_CONNS"`

	// Tick loop (§4.4.1, §5)
	TickPeriod        time.Duration `mapstructure:"TICK_PERIOD"`
	TurnTimeoutExtra  time.Duration `mapstructure:"TURN_TIMEOUT_EXTRA"`
	CollisionsEnabled bool          `mapstructure:"COLLISIONS_ENABLED"`
	FuelEnabled       bool          `mapstructure:"FUEL_ENABLED"`
	PartialUnload     bool          `mapstructure:"PARTIAL_UNLOAD"`

	// Random events (§4.4.7): probability out of 100, draw range, and
	// cooldown coefficient per event kind.
	RefugeesProbability int `mapstructure:"REFUGEES_PROBABILITY"`
	RefugeesMin         int `mapstructure:"REFUGEES_MIN"`
	RefugeesMax         int `mapstructure:"REFUGEES_MAX"`
	RefugeesCoefficient int `mapstructure:"REFUGEES_COEFFICIENT"`

	HijackersProbability int `mapstructure:"HIJACKERS_PROBABILITY"`
	HijackersMin         int `mapstructure:"HIJACKERS_MIN"`
	HijackersMax         int `mapstructure:"HIJACKERS_MAX"`
	HijackersCoefficient int `mapstructure:"HIJACKERS_COEFFICIENT"`

	ParasitesProbability int `mapstructure:"PARASITES_PROBABILITY"`
	ParasitesMin         int `mapstructure:"PARASITES_MIN"`
	ParasitesMax         int `mapstructure:"PARASITES_MAX"`
	ParasitesCoefficient  int `mapstructure:"PARASITES_COEFFICIENT"`
}

// TurnTimeout is TickPeriod + TurnTimeoutExtra, per §4.4.2's default
// "TICK_TIME + 3s".
func (c Config) TurnTimeout() time.Duration {
	return c.TickPeriod + c.TurnTimeoutExtra
}

// Default returns the CORE's baseline tunables.
func Default() Config {
	return Config{
		ServerAddress: "0.0.0.0",
		ServerPort:    9000,
		MapDBURI:      "file:maps.db",
		ReplayDBURI:   "file:replay.db",
		ConfigProfile: "default",
		MaxConns:      256,

		TickPeriod:       10 * time.Second,
		TurnTimeoutExtra: 3 * time.Second,

		CollisionsEnabled: true,
		FuelEnabled:       true,
		PartialUnload:     false,

		RefugeesProbability: 5,
		RefugeesMin:         1,
		RefugeesMax:         5,
		RefugeesCoefficient: 5,

		HijackersProbability: 3,
		HijackersMin:         1,
		HijackersMax:         10,
		HijackersCoefficient: 5,

		ParasitesProbability: 3,
		ParasitesMin:         1,
		ParasitesMax:         10,
		ParasitesCoefficient: 5,
	}
}

// Load reads a .env file (if present, ignored if not) then overlays
// environment variables onto Default(). envFile may be empty, in
// which case only the process environment is consulted.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(nil)
	v.AutomaticEnv()

	cfg := Default()
	bind := func(key string, dst interface{}) {
		if !v.IsSet(key) {
			return
		}
		switch d := dst.(type) {
		case *string:
			*d = v.GetString(key)
		case *int:
			*d = v.GetInt(key)
		case *bool:
			*d = v.GetBool(key)
		case *time.Duration:
			*d = v.GetDuration(key)
		}
	}

	bind("SERVER_ADDRESS", &cfg.ServerAddress)
	bind("SERVER_PORT", &cfg.ServerPort)
	bind("MAP_DB_URI", &cfg.MapDBURI)
	bind("REPLAY_DB_URI", &cfg.ReplayDBURI)
	bind("CONFIG_PROFILE", &cfg.ConfigProfile)
	bind("MAX_CONNS", &cfg.MaxConns)
	bind("TICK_PERIOD", &cfg.TickPeriod)
	bind("TURN_TIMEOUT_EXTRA", &cfg.TurnTimeoutExtra)
	bind("COLLISIONS_ENABLED", &cfg.CollisionsEnabled)
	bind("FUEL_ENABLED", &cfg.FuelEnabled)
	bind("PARTIAL_UNLOAD", &cfg.PartialUnload)
	bind("REFUGEES_PROBABILITY", &cfg.RefugeesProbability)
	bind("REFUGEES_MIN", &cfg.RefugeesMin)
	bind("REFUGEES_MAX", &cfg.RefugeesMax)
	bind("REFUGEES_COEFFICIENT", &cfg.RefugeesCoefficient)
	bind("HIJACKERS_PROBABILITY", &cfg.HijackersProbability)
	bind("HIJACKERS_MIN", &cfg.HijackersMin)
	bind("HIJACKERS_MAX", &cfg.HijackersMax)
	bind("HIJACKERS_COEFFICIENT", &cfg.HijackersCoefficient)
	bind("PARASITES_PROBABILITY", &cfg.ParasitesProbability)
	bind("PARASITES_MIN", &cfg.ParasitesMin)
	bind("PARASITES_MAX", &cfg.ParasitesMax)
	bind("PARASITES_COEFFICIENT", &cfg.ParasitesCoefficient)

	return cfg, nil
}
