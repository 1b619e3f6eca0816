// Package ai は生成AIによるブログ記事生成を提供する。
// Gemini APIのgenerateContentエンドポイントを固定のプロンプトテンプレートと
// JSONレスポンススキーマで呼び出す。
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/blogsmith/internal/blog"
)

// defaultBaseURL はGemini APIのベースURL。
const defaultBaseURL = "https://generativelanguage.googleapis.com"

// promptTemplate は記事生成の固定プロンプトテンプレート。
// 引数: トピック、トーン、言語。
const promptTemplate = `あなたはプロのブログライターです。以下の条件でブログ記事を書いてください。

トピック: %s
トーン: %s
言語: %s

記事はtitle（タイトル）、content（本文、HTML形式で見出しと段落を含む）、
excerpt（150文字以内の要約）を持つJSONとして返してください。`

// GenerationRecorder は生成処理のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type GenerationRecorder interface {
	RecordGeneration(success bool)
	RecordGenerationLatency(duration time.Duration)
}

// Client はGemini APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    GenerationRecorder
	apiKey     string
	model      string
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// ClientConfig はClientの設定。
type ClientConfig struct {
	APIKey  string
	Model   string
	BaseURL string // 空の場合はデフォルトを使用
}

// NewClient はClientの新しいインスタンスを生成する。
// metricsはnilを許容する。
func NewClient(httpClient *http.Client, logger *slog.Logger, metrics GenerationRecorder, cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
	}
}

// generateRequest はgenerateContentエンドポイントのリクエストボディ。
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generationConfig はレスポンスをJSONスキーマに制約する設定。
// スキーマ制約はプロバイダーのAPIが提供する機能をそのまま使う。
type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   responseSchema `json:"responseSchema"`
}

type responseSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

type schemaProperty struct {
	Type string `json:"type"`
}

// generateResponse はgenerateContentエンドポイントのレスポンス。
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generatedPayload はレスポンススキーマに従ったモデル出力。
type generatedPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// GenerateBlog は指定のトピック・トーン・言語でブログ記事を生成する。
// トーンと言語が空の場合はデフォルト（友好的・日本語）を使用する。
func (c *Client) GenerateBlog(ctx context.Context, topic, tone, language string) (*blog.GeneratedBlog, error) {
	if tone == "" {
		tone = "friendly"
	}
	if language == "" {
		language = "日本語"
	}

	start := time.Now()
	generated, err := c.generate(ctx, fmt.Sprintf(promptTemplate, topic, tone, language))

	if c.metrics != nil {
		c.metrics.RecordGeneration(err == nil)
		c.metrics.RecordGenerationLatency(time.Since(start))
	}

	if err != nil {
		c.logger.Error("記事生成APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("model", c.model),
		)
		return nil, err
	}

	return generated, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (*blog.GeneratedBlog, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: responseSchema{
				Type: "OBJECT",
				Properties: map[string]schemaProperty{
					"title":   {Type: "STRING"},
					"content": {Type: "STRING"},
					"excerpt": {Type: "STRING"},
				},
				Required: []string{"title", "content", "excerpt"},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの構築に失敗しました: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("生成APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("生成APIがステータス %d を返しました", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("生成APIが候補を返しませんでした")
	}

	var out generatedPayload
	if err := json.Unmarshal([]byte(genResp.Candidates[0].Content.Parts[0].Text), &out); err != nil {
		return nil, fmt.Errorf("生成結果のパースに失敗しました: %w", err)
	}

	if out.Title == "" || out.Content == "" {
		return nil, fmt.Errorf("生成結果にタイトルまたは本文がありません")
	}

	return &blog.GeneratedBlog{
		Title:   out.Title,
		Content: out.Content,
		Excerpt: out.Excerpt,
	}, nil
}

// compile-time interface check
var _ blog.Generator = (*Client)(nil)
