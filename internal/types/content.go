package types

import "time"

// ContentMetadata describes extracted text. Derived once, never mutated.
type ContentMetadata struct {
	OriginalName         string    `json:"original_name"`
	FileSizeBytes        int64     `json:"file_size_bytes"`
	FileType             string    `json:"file_type"`
	WordCount            int       `json:"word_count"`
	CharacterCount       int       `json:"character_count"`
	EstimatedReadMinutes int       `json:"estimated_read_minutes"`
	EstimatedTokens      int       `json:"estimated_tokens"`
	ProcessedAt          time.Time `json:"processed_at"`
}

// Section is a heuristically delimited title+body segment of extracted text.
// It is an intermediate for structure-aware truncation, not persisted.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
