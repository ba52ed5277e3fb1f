// Package wiki はWikipedia連携機能を提供する。
// Wikipedia REST APIの呼び出しと政治家の肖像画URLのバッチ取得ジョブを含む。
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// defaultEndpoint はWikipedia（フランス語版）のページ要約APIのエンドポイント。
const defaultEndpoint = "https://fr.wikipedia.org/api/rest_v1/page/summary"

// Summary はページ要約APIの応答のうち利用する部分。
type Summary struct {
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail struct {
		Source string `json:"source"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnail"`
}

// Client はWikipediaページ要約APIのクライアント。
// 記事タイトルから要約とサムネイル画像URLを取得する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   defaultEndpoint,
	}
}

// GetSummary は指定タイトルのページ要約を取得する。
// 記事が存在しない場合はnilを返す（エラーではない）。
// 取得失敗時はエラーを返す（呼び出し元が前回値維持を判断する）。
func (c *Client) GetSummary(ctx context.Context, title string) (*Summary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("記事タイトルが空です")
	}

	reqURL := c.endpoint + "/" + url.PathEscape(title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "LaBoussole/1.0 Political Quotes Browser")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Wikipedia APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("title", title),
		)
		return nil, err
	}
	defer resp.Body.Close()

	// 記事が存在しない場合は肖像画なしとして扱う
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Wikipedia APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("title", title),
		)
		return nil, fmt.Errorf("Wikipedia APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		c.logger.Error("Wikipedia APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return &summary, nil
}
