package entities

import "time"

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Model struct {
	ID      string `json:"id"`
	BrandID string `json:"brand_id"`
	Name    string `json:"name"`
}

// Agent is a chat persona bound to one brand's knowledge slice. Builtin
// agents ship with the service; custom ones are created by admins.
type Agent struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	SystemInstruction string    `json:"system_instruction"`
	BrandName         string    `json:"brand_name"`
	IsCustom          bool      `json:"is_custom"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
