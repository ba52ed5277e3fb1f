package refresh

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// Executor インターフェースに対するモック実装
type mockExecutor struct {
	queries []string
	result  sql.Result
	err     error
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestCountsJob_Run_UpdatesTagsAndPersonalities(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 3}}
	job := NewCountsJob(mock, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if len(mock.queries) != 2 {
		t.Fatalf("クエリ数 = %d, want 2", len(mock.queries))
	}
	if !strings.Contains(mock.queries[0], "UPDATE tags") {
		t.Errorf("1本目はタグ件数の更新であるべき: %q", mock.queries[0])
	}
	if !strings.Contains(mock.queries[0], "quote_tags") {
		t.Errorf("タグ件数はquote_tagsから数え直すべき: %q", mock.queries[0])
	}
	if !strings.Contains(mock.queries[1], "UPDATE personalities") {
		t.Errorf("2本目は政治家件数の更新であるべき: %q", mock.queries[1])
	}
	if !strings.Contains(mock.queries[1], "LEFT JOIN quotes") {
		t.Errorf("政治家件数はquotesから数え直すべき: %q", mock.queries[1])
	}
}

func TestCountsJob_Run_OnlyUpdatesChangedRows(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 0}}
	job := NewCountsJob(mock, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("更新対象なしでもエラーにならない（冪等）: %v", err)
	}

	// ズレのある行だけ更新する条件が必要
	for _, q := range mock.queries {
		if !strings.Contains(q, "quotes_count <>") {
			t.Errorf("ズレのない行を更新しない条件が必要: %q", q)
		}
	}
}

func TestCountsJob_Run_ExecFailureReturnsError(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{err: errors.New("db down")}
	job := NewCountsJob(mock, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("クエリ失敗はエラーを返すべき")
	}
	if len(mock.queries) != 1 {
		t.Errorf("1本目の失敗で2本目は実行されないべき: %d", len(mock.queries))
	}
}
