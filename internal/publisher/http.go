package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type transcriptionRequest struct {
	ID            string        `json:"id"`
	Transcription Transcription `json:"transcription"`
}

func (a *implHTTP) PutRecording(ctx context.Context, id string, audio []byte) error {
	endpoint := fmt.Sprintf("%s/transcriptions/%s/recording", a.baseURL, url.PathEscape(id))
	if err := a.post(ctx, endpoint, "audio/mpeg", audio); err != nil {
		return fmt.Errorf("upload recording: %w", err)
	}
	return nil
}

func (a *implHTTP) PutTranscription(ctx context.Context, id string, t Transcription) error {
	body, err := json.Marshal(transcriptionRequest{ID: id, Transcription: t})
	if err != nil {
		return fmt.Errorf("marshal transcription: %w", err)
	}
	if err := a.post(ctx, a.baseURL+"/transcriptions", "application/json", body); err != nil {
		return fmt.Errorf("upload transcription: %w", err)
	}
	return nil
}

func (a *implHTTP) post(ctx context.Context, endpoint, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(msg))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
