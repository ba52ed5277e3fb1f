// Package refresh は集計値の定期再計算ジョブを提供する。
// タグと政治家の引用件数（quotes_count）を実際の引用データから
// 再計算して非正規化カラムに反映する。
package refresh

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CountsJob は引用件数の再計算ジョブ。
// フィルタウィジェットに表示する件数は非正規化カラムから読むため、
// 取り込みや編集によるズレを定期バッチで補正する。冪等。
type CountsJob struct {
	db     Executor
	logger *slog.Logger
}

// NewCountsJob は新しいCountsJobを生成する。
func NewCountsJob(db Executor, logger *slog.Logger) *CountsJob {
	return &CountsJob{
		db:     db,
		logger: logger,
	}
}

// Run はタグと政治家のquotes_countを再計算する。
// 実際の引用データから件数を数え直して上書きする。
func (j *CountsJob) Run(ctx context.Context) error {
	start := time.Now()

	tagRows, err := j.recomputeTagCounts(ctx)
	if err != nil {
		j.logger.Error("タグ件数の再計算に失敗しました",
			slog.String("error", err.Error()),
		)
		return err
	}

	personalityRows, err := j.recomputePersonalityCounts(ctx)
	if err != nil {
		j.logger.Error("政治家件数の再計算に失敗しました",
			slog.String("error", err.Error()),
		)
		return err
	}

	duration := time.Since(start)
	j.logger.Info("引用件数の再計算が完了しました",
		slog.Int64("updated_tags", tagRows),
		slog.Int64("updated_personalities", personalityRows),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

func (j *CountsJob) recomputeTagCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE tags t
		SET quotes_count = counted.n
		FROM (
			SELECT t2.id, COUNT(qt.quote_id) AS n
			FROM tags t2
			LEFT JOIN quote_tags qt ON qt.tag_id = t2.id
			GROUP BY t2.id
		) AS counted
		WHERE counted.id = t.id AND t.quotes_count <> counted.n`

	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("タグ件数の再計算に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	return rows, nil
}

func (j *CountsJob) recomputePersonalityCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE personalities p
		SET quotes_count = counted.n
		FROM (
			SELECT p2.id, COUNT(q.id) AS n
			FROM personalities p2
			LEFT JOIN quotes q ON q.personality_id = p2.id
			GROUP BY p2.id
		) AS counted
		WHERE counted.id = p.id AND p.quotes_count <> counted.n`

	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("政治家件数の再計算に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	return rows, nil
}

// Start は指定間隔のティッカーでジョブを定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CountsJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("引用件数再計算ジョブを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("引用件数再計算ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("引用件数再計算ジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("引用件数再計算ジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
