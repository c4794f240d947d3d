package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"store": map[string]interface{}{
			"path": "~/.remindme/reminders.json",
		},
		"scheduler": map[string]interface{}{
			"interval": 30, // seconds; must stay within one minute
		},
		"notify": map[string]interface{}{
			"title":   "Reminder",
			"desktop": true,
			"icon":    "",
			"timeout": 20, // seconds per fired reminder
			"telegram": map[string]interface{}{
				"bot_token": "",
				"chat_id":   "",
			},
		},
		"log": map[string]interface{}{
			"level": "info",
			"path":  "~/.remindme/remindme.log",
		},
		"ui": map[string]interface{}{
			"colored_output": true,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.remindme/config.yaml"
}
