package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/laboussole/boussole-api/internal/repository"
)

// SummaryFetcher はWikipediaページ要約取得のインターフェース。
// テスト時にモックに差し替え可能。
type SummaryFetcher interface {
	GetSummary(ctx context.Context, title string) (*Summary, error)
}

// PortraitJobConfig は肖像画取得ジョブの設定パラメータ。
// 環境変数から設定可能。
type PortraitJobConfig struct {
	// JobInterval はジョブの実行間隔（デフォルト: 1時間）。
	JobInterval time.Duration
	// APIInterval はAPI呼び出しの最低間隔（デフォルト: 2秒）。
	APIInterval time.Duration
	// MaxCallsPerCycle は1サイクルあたりの最大API呼び出し回数（デフォルト: 100）。
	MaxCallsPerCycle int
}

// DefaultPortraitJobConfig はデフォルトの肖像画取得ジョブ設定を返す。
func DefaultPortraitJobConfig() PortraitJobConfig {
	return PortraitJobConfig{
		JobInterval:      1 * time.Hour,
		APIInterval:      2 * time.Second,
		MaxCallsPerCycle: 100,
	}
}

// PortraitJob は政治家の肖像画URLをWikipediaから取得するバッチジョブ。
// 肖像画が未設定でWikipedia記事タイトルを持つ政治家を対象に
// ページ要約APIを呼び出してサムネイルURLを保存する。
type PortraitJob struct {
	personalityRepo   repository.PersonalityRepository
	client            SummaryFetcher
	logger            *slog.Logger
	config            PortraitJobConfig
	metrics           PortraitMetrics
	consecutiveErrors int
	backoffUntil      time.Time
}

// PortraitMetrics は肖像画更新のメトリクス記録インターフェース。
type PortraitMetrics interface {
	RecordPortraitUpdated()
}

// NewPortraitJob はPortraitJobの新しいインスタンスを生成する。
func NewPortraitJob(
	personalityRepo repository.PersonalityRepository,
	client SummaryFetcher,
	logger *slog.Logger,
	config PortraitJobConfig,
) *PortraitJob {
	return &PortraitJob{
		personalityRepo: personalityRepo,
		client:          client,
		logger:          logger,
		config:          config,
	}
}

// SetMetrics はメトリクス収集を有効にする。nilのままでもジョブは動作する。
func (j *PortraitJob) SetMetrics(metrics PortraitMetrics) {
	j.metrics = metrics
}

// Start はジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *PortraitJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.config.JobInterval)
	defer ticker.Stop()

	j.logger.Info("肖像画取得ジョブを開始しました",
		slog.Duration("job_interval", j.config.JobInterval),
		slog.Duration("api_interval", j.config.APIInterval),
		slog.Int("max_calls_per_cycle", j.config.MaxCallsPerCycle),
	)

	// 起動直後に1回実行
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("肖像画取得サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("肖像画取得ジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("肖像画取得サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回のバッチサイクルを実行する。
// 対象の政治家を取得し、1人ずつ要約APIを呼び出して肖像画URLを更新する。
func (j *PortraitJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	// バックオフ中の場合はスキップ
	if !j.backoffUntil.IsZero() && time.Now().Before(j.backoffUntil) {
		j.logger.Info("肖像画取得ジョブはバックオフ中のためスキップします",
			slog.Time("backoff_until", j.backoffUntil),
		)
		return nil
	}

	personalities, err := j.personalityRepo.ListNeedingPortrait(ctx, j.config.MaxCallsPerCycle)
	if err != nil {
		return fmt.Errorf("肖像画取得対象の政治家の取得に失敗しました: %w", err)
	}

	if len(personalities) == 0 {
		j.logger.Info("肖像画取得対象の政治家はいません")
		return nil
	}

	j.logger.Info("肖像画取得サイクルを開始します",
		slog.Int("target_personalities", len(personalities)),
	)

	var apiCallCount int
	var updatedCount int
	var hadError bool

	for _, p := range personalities {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// API呼び出しインターバル（初回は待たない）
		if apiCallCount > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(j.config.APIInterval):
			}
		}

		apiCallCount++

		summary, err := j.client.GetSummary(ctx, p.WikipediaID)
		if err != nil {
			j.logger.Error("Wikipedia要約の取得に失敗しました",
				slog.String("personality_id", p.ID),
				slog.String("title", p.WikipediaID),
				slog.String("error", err.Error()),
			)
			hadError = true
			j.consecutiveErrors++
			backoff := calculateErrorBackoff(j.consecutiveErrors)
			if backoff > 0 {
				j.backoffUntil = time.Now().Add(backoff)
				j.logger.Warn("連続エラーによりバックオフを適用します",
					slog.Int("consecutive_errors", j.consecutiveErrors),
					slog.Duration("backoff_duration", backoff),
				)
				break
			}
			continue // この政治家はスキップし次へ（前回値維持）
		}

		// 記事なし、またはサムネイルなしの場合は更新しない
		if summary == nil || summary.Thumbnail.Source == "" {
			continue
		}

		if err := j.personalityRepo.UpdatePortrait(ctx, p.ID, summary.Thumbnail.Source); err != nil {
			j.logger.Error("肖像画URLの更新に失敗しました",
				slog.String("personality_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		updatedCount++
		if j.metrics != nil {
			j.metrics.RecordPortraitUpdated()
		}
	}

	// エラーがなければ連続エラーカウントをリセット
	if !hadError {
		j.consecutiveErrors = 0
		j.backoffUntil = time.Time{}
	}

	duration := time.Since(start)
	j.logger.Info("肖像画取得サイクルが完了しました",
		slog.Int("api_call_count", apiCallCount),
		slog.Int("updated_personalities", updatedCount),
		slog.Int("target_personalities", len(personalities)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// calculateErrorBackoff は連続エラー回数に基づくバックオフ時間を計算する。
// 3回連続: 30分、5回連続: 1時間、10回連続: 6時間。
func calculateErrorBackoff(consecutiveErrors int) time.Duration {
	switch {
	case consecutiveErrors >= 10:
		return 6 * time.Hour
	case consecutiveErrors >= 5:
		return 1 * time.Hour
	case consecutiveErrors >= 3:
		return 30 * time.Minute
	default:
		return 0
	}
}
