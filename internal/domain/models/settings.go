package models

// SettingDefinition declares one configurable value a plugin exposes to administrators.
type SettingDefinition struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model,omitempty"`
	Required    bool   `json:"required"`
}

// PluginSetting is a stored setting value.
type PluginSetting struct {
	Plugin string `bson:"plugin" json:"plugin"`
	Key    string `bson:"key" json:"key"`
	Value  string `bson:"value" json:"value"`
}

// PluginMetadata describes a plugin to the host.
type PluginMetadata struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Website     string `json:"website"`
	License     string `json:"license"`
}
