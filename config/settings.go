package config

import (
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Settings are engine knobs that do not describe the plant itself.
type Settings struct {
	LogLevel string

	// bounded fan-out for steam generator advances
	Workers int

	PlantConfig string

	ServerAddr     string
	SnapshotBuffer int

	RecorderPath  string
	RecorderBatch int

	MetricsNamespace string
}

// LoadSettings reads conf/config.ini style settings. A missing or broken
// file falls back to defaults.
func LoadSettings(path string) Settings {
	file, err := ini.Load(path)
	if err != nil {
		log.WithFields(log.Fields{
			"path": path,
			"err":  err,
		}).Warn("settings file not readable, using defaults")
		file = ini.Empty()
	}
	return loadSettings(file)
}

func loadSettings(file *ini.File) Settings {
	return Settings{
		LogLevel:         file.Section("log").Key("Level").MustString("info"),
		Workers:          file.Section("executor").Key("Workers").MustInt(3),
		PlantConfig:      file.Section("plant").Key("Config").MustString("conf/plant.yaml"),
		ServerAddr:       file.Section("server").Key("Addr").MustString(":8080"),
		SnapshotBuffer:   file.Section("server").Key("SnapshotBuffer").MustInt(64),
		RecorderPath:     file.Section("recorder").Key("Path").MustString("pwrsim.db"),
		RecorderBatch:    file.Section("recorder").Key("Batch").MustInt(60),
		MetricsNamespace: file.Section("telemetry").Key("Namespace").MustString("pwrsim"),
	}
}

// ApplyLogLevel sets the logrus level from the settings.
func (s Settings) ApplyLogLevel() {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		log.WithFields(log.Fields{"level": s.LogLevel}).Warn("unknown log level, keeping info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
