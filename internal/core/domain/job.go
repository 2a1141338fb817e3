package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobPosting is one scraped job, stored whole for llm_retrieval and chunked
// for vector_retrieval. DocName is the opaque document identifier the planner
// is allowed to target (e.g. PALANTIR_JOBS_17).
type JobPosting struct {
	DocName        string    `json:"doc_name"`
	JobID          string    `json:"job_id"`
	JobTitle       string    `json:"job_title"`
	Commitment     string    `json:"commitment"`
	Department     string    `json:"department"`
	Team           string    `json:"team"`
	Level          string    `json:"level"`
	Location       string    `json:"location"`
	AllLocations   string    `json:"all_locations"`
	Country        string    `json:"country"`
	WorkplaceType  string    `json:"workplace_type"`
	Tags           string    `json:"tags"`
	Description    string    `json:"description"`
	BulletSections string    `json:"bullet_sections"`
	ClosingText    string    `json:"closing_text"`
	FullText       string    `json:"full_text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobChunk is one embeddable slice of a posting, carrying the posting
// metadata that goes into retrieval context blocks.
type JobChunk struct {
	DocName       string
	ChunkIndex    int
	JobID         string
	JobTitle      string
	Department    string
	Location      string
	WorkplaceType string
	Tags          string
	Text          string
}

// ChunkPosting slices a posting's full text and attaches its metadata.
func ChunkPosting(job JobPosting, split func(string) []string) []JobChunk {
	pieces := split(job.FullText)
	out := make([]JobChunk, 0, len(pieces))
	for i, text := range pieces {
		out = append(out, JobChunk{
			DocName:       job.DocName,
			ChunkIndex:    i,
			JobID:         job.JobID,
			JobTitle:      job.JobTitle,
			Department:    job.Department,
			Location:      job.Location,
			WorkplaceType: job.WorkplaceType,
			Tags:          job.Tags,
			Text:          text,
		})
	}
	return out
}

// RenderJobText builds the canonical flat text for a posting. Field layout
// matches what the retrieval prompts and the vector index expect; all
// whitespace is collapsed so chunk boundaries are stable.
func RenderJobText(job JobPosting) string {
	raw := fmt.Sprintf(`JOB ID: %s
TITLE: %s
COMMITMENT: %s
DEPARTMENT: %s
TEAM: %s
LEVEL: %s
LOCATION: %s
ALL LOCATIONS: %s
COUNTRY: %s
WORKPLACE TYPE: %s

TAGS: %s

DESCRIPTION:
%s

BULLET SECTIONS:
%s

CLOSING:
%s`,
		job.JobID, job.JobTitle, job.Commitment, job.Department, job.Team,
		job.Level, job.Location, job.AllLocations, job.Country,
		job.WorkplaceType, job.Tags, job.Description, job.BulletSections,
		job.ClosingText,
	)
	return strings.Join(strings.Fields(raw), " ")
}

// RefreshReport summarizes one corpus refresh run.
type RefreshReport struct {
	Jobs     int           `json:"jobs"`
	Chunks   int           `json:"chunks"`
	Exported string        `json:"exported,omitempty"`
	Duration time.Duration `json:"duration"`
}
