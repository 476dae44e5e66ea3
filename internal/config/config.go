package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host     string   `koanf:"host"`
	Discord  Discord  `koanf:"discord"`
	Colors   Colors   `koanf:"colors"`
	Events   Events   `koanf:"events"`
	Database Database `koanf:"db"`
	Redis    Redis    `koanf:"redis"`
}

type Discord struct {
	Token  string `koanf:"token"`
	Prefix string `koanf:"prefix"`
	Emoji  Emoji  `koanf:"emoji"`
}

// Emoji names the guild emoji the bot seeds and recognizes on event posts.
type Emoji struct {
	Going    string `koanf:"going"`
	NotGoing string `koanf:"notgoing"`
	Unsure   string `koanf:"unsure"`
	Remove   string `koanf:"remove"`
}

type Colors struct {
	Active  int `koanf:"active"`
	Expired int `koanf:"expired"`
	Example int `koanf:"example"`
}

type Events struct {
	PromptTimeout time.Duration `koanf:"prompttimeout"`
	ExpiryGrace   time.Duration `koanf:"expirygrace"`
	SweepSpec     string        `koanf:"sweepspec"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: ":8080",
		Discord: Discord{
			Prefix: "!",
			Emoji: Emoji{
				Going:    "tick",
				NotGoing: "cross",
				Unsure:   "question",
				Remove:   "bin",
			},
		},
		Colors: Colors{
			Active:  0x93c47d,
			Expired: 0xcc4125,
			Example: 0x4a86e8,
		},
		Events: Events{
			PromptTimeout: 60 * time.Second,
			ExpiryGrace:   24 * time.Hour,
			SweepSpec:     "@hourly",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "gatherbot",
			Pass:   "",
			Name:   "gatherbot",
			Schema: "gatherbot",
		},
		Redis: Redis{
			Addr: "localhost:6379",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "GATHERBOT_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "GATHERBOT_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
