package models

// Program is an academic degree track with its own schedule export.
// Programs come from configuration and are only persisted as a tag on sections.
type Program struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Source string `json:"source" yaml:"source"`
}
