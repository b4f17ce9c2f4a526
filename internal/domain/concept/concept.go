package concept

import "time"

// MaxImages is the number of images requested per generation and the upper bound
// on URLs stored with a Concept.
const MaxImages = 2

// Concept is one archived (prompt, generated text, image URLs) record.
type Concept struct {
	ID            int64     `json:"id"`
	Prompt        string    `json:"prompt"`
	GeneratedText string    `json:"generated_text"`
	ImageURLs     []string  `json:"image_urls"`
	CreatedAt     time.Time `json:"created_at"`
}

// Generation is the result of one successful pipeline run. It is not persisted
// until a caller records it through the archive.
type Generation struct {
	Prompt        string   `json:"prompt"`
	GeneratedText string   `json:"generated_text"`
	ImageURLs     []string `json:"image_urls"`
}
