package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RenderService — клиент рендер-слоя (фронта со статикой). Единственная
// операция: сбросить закэшированную страницу по пути, чтобы следующий запрос
// пересобрал её из актуального состояния базы. Повторный вызов по тому же
// пути безопасен.
type RenderService struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewRenderService(baseURL string) *RenderService {
	return &RenderService{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type revalidateRequest struct {
	Path string `json:"path"`
}

type revalidateResponse struct {
	Revalidated bool   `json:"revalidated"`
	Message     string `json:"message"`
}

func (s *RenderService) RevalidatePath(ctx context.Context, path string) error {
	data, err := json.Marshal(revalidateRequest{Path: path})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/revalidate", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	var res revalidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK || !res.Revalidated {
		return fmt.Errorf("%w: рендер ответил %d (%s)", ErrUpstream, resp.StatusCode, res.Message)
	}
	return nil
}
