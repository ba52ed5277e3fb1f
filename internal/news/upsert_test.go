package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laboussole/boussole-api/internal/model"
)

type mockNewsRepo struct {
	listFn       func(ctx context.Context, page, size int) ([]model.NewsItem, int, error)
	findByGUIDFn func(ctx context.Context, sourceID, guid string) (*model.NewsItem, error)
	findByLinkFn func(ctx context.Context, sourceID, link string) (*model.NewsItem, error)
	createFn     func(ctx context.Context, item *model.NewsItem) error
	updateFn     func(ctx context.Context, item *model.NewsItem) error
}

func (m *mockNewsRepo) List(ctx context.Context, page, size int) ([]model.NewsItem, int, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, page, size)
}

func (m *mockNewsRepo) FindBySourceAndGUID(ctx context.Context, sourceID, guid string) (*model.NewsItem, error) {
	if m.findByGUIDFn == nil {
		return nil, nil
	}
	return m.findByGUIDFn(ctx, sourceID, guid)
}

func (m *mockNewsRepo) FindBySourceAndLink(ctx context.Context, sourceID, link string) (*model.NewsItem, error) {
	if m.findByLinkFn == nil {
		return nil, nil
	}
	return m.findByLinkFn(ctx, sourceID, link)
}

func (m *mockNewsRepo) Create(ctx context.Context, item *model.NewsItem) error {
	return m.createFn(ctx, item)
}

func (m *mockNewsRepo) Update(ctx context.Context, item *model.NewsItem) error {
	return m.updateFn(ctx, item)
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(content string) string { return content }

type recordingSanitizer struct {
	inputs []string
}

func (r *recordingSanitizer) Sanitize(content string) string {
	r.inputs = append(r.inputs, content)
	return "[clean]" + content
}

func TestUpsertItems_InsertsNewItem(t *testing.T) {
	var created *model.NewsItem
	repo := &mockNewsRepo{
		createFn: func(_ context.Context, item *model.NewsItem) error {
			created = item
			return nil
		},
	}
	svc := NewUpsertService(repo, passthroughSanitizer{})

	published := time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)
	inserted, updated, err := svc.UpsertItems(context.Background(), "src1", []model.ParsedNewsItem{
		{GuidOrID: "g1", Title: "Titre", Link: "https://presse.example/a", PublishedAt: &published},
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if inserted != 1 || updated != 0 {
		t.Errorf("挿入・更新数が不正: inserted=%d updated=%d", inserted, updated)
	}
	if created == nil {
		t.Fatal("記事が作成されていない")
	}
	if created.ID == "" {
		t.Error("IDが採番されていない")
	}
	if created.SourceID != "src1" || created.GuidOrID != "g1" {
		t.Errorf("記事の属性が不正: %+v", created)
	}
	if created.PublishedAt == nil || !created.PublishedAt.Equal(published) {
		t.Errorf("公開日時が不正: %v", created.PublishedAt)
	}
}

func TestUpsertItems_GUIDMatchUpdates(t *testing.T) {
	existing := &model.NewsItem{ID: "n1", SourceID: "src1", GuidOrID: "g1", Title: "Ancien"}
	var updatedItem *model.NewsItem
	repo := &mockNewsRepo{
		findByGUIDFn: func(_ context.Context, _, guid string) (*model.NewsItem, error) {
			if guid == "g1" {
				return existing, nil
			}
			return nil, nil
		},
		updateFn: func(_ context.Context, item *model.NewsItem) error {
			updatedItem = item
			return nil
		},
	}
	svc := NewUpsertService(repo, passthroughSanitizer{})

	inserted, updated, err := svc.UpsertItems(context.Background(), "src1", []model.ParsedNewsItem{
		{GuidOrID: "g1", Title: "Nouveau", Link: "https://presse.example/a"},
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if inserted != 0 || updated != 1 {
		t.Errorf("挿入・更新数が不正: inserted=%d updated=%d", inserted, updated)
	}
	if updatedItem == nil || updatedItem.Title != "Nouveau" {
		t.Errorf("記事が更新されていない: %+v", updatedItem)
	}
}

func TestUpsertItems_LinkFallbackWhenGUIDMissing(t *testing.T) {
	guidLookups := 0
	existing := &model.NewsItem{ID: "n1", SourceID: "src1", Link: "https://presse.example/a"}
	repo := &mockNewsRepo{
		findByGUIDFn: func(_ context.Context, _, _ string) (*model.NewsItem, error) {
			guidLookups++
			return nil, nil
		},
		findByLinkFn: func(_ context.Context, _, link string) (*model.NewsItem, error) {
			if link == "https://presse.example/a" {
				return existing, nil
			}
			return nil, nil
		},
		updateFn: func(_ context.Context, _ *model.NewsItem) error { return nil },
	}
	svc := NewUpsertService(repo, passthroughSanitizer{})

	// GUIDなしの記事はリンクで同一性判定される
	_, updated, err := svc.UpsertItems(context.Background(), "src1", []model.ParsedNewsItem{
		{Title: "Titre", Link: "https://presse.example/a"},
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if guidLookups != 0 {
		t.Error("GUIDなしの記事でGUID検索が実行された")
	}
	if updated != 1 {
		t.Errorf("リンク一致で更新されるべき: updated=%d", updated)
	}
}

func TestUpsertItems_UpdateKeepsPublishedAtWhenNil(t *testing.T) {
	original := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	existing := &model.NewsItem{ID: "n1", GuidOrID: "g1", PublishedAt: &original}
	repo := &mockNewsRepo{
		findByGUIDFn: func(_ context.Context, _, _ string) (*model.NewsItem, error) {
			return existing, nil
		},
		updateFn: func(_ context.Context, _ *model.NewsItem) error { return nil },
	}
	svc := NewUpsertService(repo, passthroughSanitizer{})

	_, _, err := svc.UpsertItems(context.Background(), "src1", []model.ParsedNewsItem{
		{GuidOrID: "g1", Title: "Titre"},
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if existing.PublishedAt == nil || !existing.PublishedAt.Equal(original) {
		t.Errorf("公開日時が維持されるべき: %v", existing.PublishedAt)
	}
}

func TestUpsertItems_SanitizesTitleAndSummary(t *testing.T) {
	sanitizer := &recordingSanitizer{}
	var created *model.NewsItem
	repo := &mockNewsRepo{
		createFn: func(_ context.Context, item *model.NewsItem) error {
			created = item
			return nil
		},
	}
	svc := NewUpsertService(repo, sanitizer)

	_, _, err := svc.UpsertItems(context.Background(), "src1", []model.ParsedNewsItem{
		{GuidOrID: "g1", Title: "<script>x</script>Titre", Summary: "<b>resume</b>"},
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(sanitizer.inputs) != 2 {
		t.Errorf("タイトルとサマリーの両方がサニタイズされるべき: %v", sanitizer.inputs)
	}
	if created.Title != "[clean]<script>x</script>Titre" {
		t.Errorf("サニタイズ済みタイトルで保存されるべき: %q", created.Title)
	}
}

func TestUpsertItems_LookupFailureAborts(t *testing.T) {
	repo := &mockNewsRepo{
		findByGUIDFn: func(_ context.Context, _, _ string) (*model.NewsItem, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewUpsertService(repo, passthroughSanitizer{})

	inserted, _, err := svc.UpsertItems(context.Background(), "src1", []model.ParsedNewsItem{
		{GuidOrID: "g1", Title: "Titre"},
	})
	if err == nil {
		t.Fatal("同一性判定の失敗はエラーを返すべき")
	}
	if inserted != 0 {
		t.Errorf("挿入数が不正: %d", inserted)
	}
}
