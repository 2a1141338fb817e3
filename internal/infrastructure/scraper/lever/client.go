package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

// Client scrapes published postings from a Lever-backed jobs API and turns
// them into the canonical JobPosting form. Doc names follow the stable
// PALANTIR_JOBS_{n} scheme derived from feed position, which is what the
// planner's document enumeration is built from.
type Client struct {
	postingsURL string
	httpClient  *http.Client
}

func New(postingsURL string) *Client {
	return &Client{
		postingsURL: postingsURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

type leverCategories struct {
	Commitment   string   `json:"commitment"`
	Department   string   `json:"department"`
	Level        string   `json:"level"`
	Location     string   `json:"location"`
	Team         string   `json:"team"`
	AllLocations []string `json:"allLocations"`
}

type leverListSection struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

type leverContent struct {
	DescriptionHTML string             `json:"descriptionHtml"`
	ClosingHTML     string             `json:"closingHtml"`
	Lists           []leverListSection `json:"lists"`
}

type leverPosting struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	Country       string          `json:"country"`
	WorkplaceType string          `json:"workplaceType"`
	Categories    leverCategories `json:"categories"`
	Tags          []string        `json:"tags"`
	Content       leverContent    `json:"content"`
}

func (c *Client) FetchPostings(ctx context.Context) ([]domain.JobPosting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.postingsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create postings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever postings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return nil, fmt.Errorf("lever postings status: %s: %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("lever postings status: %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read postings body: %w", err)
	}

	postings, err := parsePostings(raw)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	jobs := make([]domain.JobPosting, 0, len(postings))
	for i, posting := range postings {
		job := transformPosting(posting)
		job.DocName = fmt.Sprintf("PALANTIR_JOBS_%d", i+1)
		job.CreatedAt = now
		job.UpdatedAt = now
		if strings.TrimSpace(job.FullText) == "" {
			return nil, fmt.Errorf("posting %d produced empty text", i+1)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// parsePostings accepts both feed shapes seen in the wild: a bare array and
// an object with a data key.
func parsePostings(raw []byte) ([]leverPosting, error) {
	var list []leverPosting
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Data []leverPosting `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("parse postings payload: %w", err)
	}
	return wrapped.Data, nil
}

func transformPosting(posting leverPosting) domain.JobPosting {
	sections := make([]string, 0, len(posting.Content.Lists))
	for _, section := range posting.Content.Lists {
		heading := strings.TrimSpace(section.Text)
		body := cleanHTML(section.Content)
		if heading == "" && body == "" {
			continue
		}
		sections = append(sections, strings.TrimSpace(heading+"\n"+body))
	}

	job := domain.JobPosting{
		JobID:          posting.ID,
		JobTitle:       posting.Text,
		Commitment:     posting.Categories.Commitment,
		Department:     posting.Categories.Department,
		Team:           posting.Categories.Team,
		Level:          posting.Categories.Level,
		Location:       posting.Categories.Location,
		AllLocations:   strings.Join(posting.Categories.AllLocations, ", "),
		Country:        posting.Country,
		WorkplaceType:  posting.WorkplaceType,
		Tags:           strings.Join(posting.Tags, ", "),
		Description:    cleanHTML(posting.Content.DescriptionHTML),
		BulletSections: strings.Join(sections, "\n\n"),
		ClosingText:    cleanHTML(posting.Content.ClosingHTML),
	}
	job.FullText = domain.RenderJobText(job)
	return job
}

// cleanHTML strips tags and keeps the text content, one line per block-ish
// element, so list items survive as separate lines.
func cleanHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
