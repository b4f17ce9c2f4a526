package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Concept is the persisted row of an archived generation.
// ImageURLs holds a JSON array of URL strings.
type Concept struct {
	bun.BaseModel `bun:"table:concepts,alias:c"`

	ID            int64     `bun:",pk,autoincrement"`
	Prompt        string    `bun:",notnull"`
	GeneratedText string    `bun:"generated_text,notnull"`
	ImageURLs     string    `bun:"image_urls,notnull,default:'[]'"`
	CreatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
