package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/auth"
	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// Client talks to the detection pipeline backend. Every request carries
// the bearer credential from the token provider.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	tokens     auth.TokenProvider
	log        zerolog.Logger
}

func New(cfg *config.Config, tokens auth.TokenProvider) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Backend.Timeout,
		},
		tokens: tokens,
		log:    logger.Component("client"),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Backend.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// errorDetail parses the backend's error body, expected as
// {detail: string | object[]}, falling back to the raw text when the body
// is not JSON.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var items []map[string]interface{}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if msg, ok := item["msg"].(string); ok {
					parts = append(parts, msg)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
		return string(payload.Detail)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "request failed"
	}
	return text
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The request never reached the backend; re-invoking it is safe.
		return errors.NewRetryableError(
			errors.NewTransportError(0, "request failed", err), "backend unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		terr := errors.NewTransportError(resp.StatusCode, errorDetail(body), nil)
		if resp.StatusCode >= 500 {
			return errors.NewRetryableError(terr, "backend error")
		}
		return terr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewTransportError(resp.StatusCode, "failed to decode response", err)
	}
	return nil
}

// serverDocument tolerates the backend's historical id field names and is
// normalized to the canonical Document before anything touches the
// registry.
type serverDocument struct {
	ID               string                `json:"id"`
	AltID            string                `json:"_id"`
	OriginalFilename string                `json:"original_filename"`
	FileType         string                `json:"file_type"`
	Status           model.DocumentStatus  `json:"status"`
	UploadTimestamp  jsonTime              `json:"upload_timestamp"`
	UpdatedAt        jsonTime              `json:"updated_at"`
	WordCount        int                   `json:"word_count"`
	CharacterCount   int                   `json:"character_count"`
	Score            *float64              `json:"score,omitempty"`
	StudentID        *string               `json:"student_id,omitempty"`
	StudentDetails   *model.StudentDetails `json:"student_details,omitempty"`
}

func (d serverDocument) toDocument() model.Document {
	id := d.ID
	if id == "" {
		id = d.AltID
	}
	return model.Document{
		ID:               id,
		OriginalFilename: d.OriginalFilename,
		FileType:         d.FileType,
		Status:           d.Status,
		UploadTimestamp:  d.UploadTimestamp.Time,
		UpdatedAt:        d.UpdatedAt.Time,
		WordCount:        d.WordCount,
		CharacterCount:   d.CharacterCount,
		Score:            d.Score,
		StudentID:        d.StudentID,
		StudentDetails:   d.StudentDetails,
	}
}

// ListDocuments fetches the full document list for the authenticated
// user. It drives polling and the initial load.
func (c *Client) ListDocuments(ctx context.Context) ([]model.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/documents", nil)
	if err != nil {
		return nil, err
	}

	var raw []serverDocument
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(raw))
	for _, d := range raw {
		docs = append(docs, d.toDocument())
	}
	return docs, nil
}

// UploadDocument submits a single file through the multipart upload
// endpoint.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (*model.Document, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to write file payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/documents/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var raw serverDocument
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	doc := raw.toDocument()
	return &doc, nil
}

// UploadFile names one file of a multi-file batch upload.
type UploadFile struct {
	Filename string
	Reader   io.Reader
}

// BatchUploadDocuments submits several files in one multipart request.
// The correlation id lets interleaved batches be told apart in the
// backend's logs.
func (c *Client) BatchUploadDocuments(ctx context.Context, files []UploadFile) (*model.BatchUploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := w.CreateFormFile("files", f.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("failed to write file payload: %w", err)
		}
	}
	if err := w.WriteField("correlation_id", uuid.NewString()); err != nil {
		return nil, fmt.Errorf("failed to write correlation id: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/documents/batch", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out model.BatchUploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Assess(ctx context.Context, id string) (*model.AssessResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/documents/"+id+"/assess", nil)
	if err != nil {
		return nil, err
	}

	var out model.AssessResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelAssessment(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/documents/"+id+"/cancel-assessment", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Reprocess re-submits a failed document. The backend replies
// 202 Accepted with no body guarantees.
func (c *Client) Reprocess(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/documents/"+id+"/reprocess", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) AssignStudent(ctx context.Context, id, studentID string) (*model.Document, error) {
	body, err := json.Marshal(model.AssignStudentRequest{StudentID: studentID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/documents/"+id+"/assign-student", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var raw serverDocument
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	doc := raw.toDocument()
	return &doc, nil
}

func (c *Client) GetResult(ctx context.Context, id string) (*model.ResultDetail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/results/document/"+id, nil)
	if err != nil {
		return nil, err
	}

	var out model.ResultDetail
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListStudents(ctx context.Context) ([]model.Student, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/students", nil)
	if err != nil {
		return nil, err
	}

	var out []model.Student
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BulkUploadStudents(ctx context.Context, rows []model.StudentRow) (*model.BulkUploadResponse, error) {
	body, err := json.Marshal(model.BulkUploadRequest{Students: rows})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/students/bulk-upload", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Int("batch_size", len(rows)).Msg("Submitting student batch")

	var out model.BulkUploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
