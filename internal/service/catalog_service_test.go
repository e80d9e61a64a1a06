package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/models"
	"github.com/noah-isme/diagram-search-api/internal/repository"
	appErrors "github.com/noah-isme/diagram-search-api/pkg/errors"
)

type memoryCatalogStore struct {
	mu        sync.Mutex
	catalog   models.Catalog
	loadErr   error
	updateErr error
	writes    int
}

func newMemoryCatalogStore(catalog models.Catalog) *memoryCatalogStore {
	if catalog == nil {
		catalog = models.Catalog{}
	}
	return &memoryCatalogStore{catalog: catalog}
}

func (m *memoryCatalogStore) Load(ctx context.Context) (models.Catalog, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.catalog, nil
}

func (m *memoryCatalogStore) Bucket(ctx context.Context, grade, subject string) ([]string, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.catalog.Bucket(grade, subject), nil
}

func (m *memoryCatalogStore) UpdateBucket(ctx context.Context, grade, subject string, fn repository.BucketUpdater) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	next, err := fn(append([]string(nil), m.catalog.Bucket(grade, subject)...))
	if err != nil {
		return err
	}
	m.catalog.SetBucket(grade, subject, next)
	m.writes++
	return nil
}

var (
	teacherActor = &models.SessionUser{UserID: "t1", Username: "mrs-teach", Role: models.RoleTeacher}
	studentActor = &models.SessionUser{UserID: "s1", Username: "kiddo", Role: models.RoleStudent}
)

func TestCatalogServiceKeywords(t *testing.T) {
	store := newMemoryCatalogStore(models.Catalog{"5": {"Science": {"Volcano", "Water Cycle"}}})
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{})

	keywords, err := svc.Keywords(context.Background(), "5", "Science")
	require.NoError(t, err)
	assert.Equal(t, []string{"Volcano", "Water Cycle"}, keywords)

	missing, err := svc.Keywords(context.Background(), "9", "History")
	require.NoError(t, err)
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestCatalogServiceIsValidKeyword(t *testing.T) {
	store := newMemoryCatalogStore(models.Catalog{"5": {"Science": {"Volcano", "Teacher Approved - Tide"}}})
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{})
	ctx := context.Background()

	cases := []struct {
		grade, subject, keyword string
		want                    bool
	}{
		{"5", "Science", "volcano", true},
		{"5", "Science", "  VOLCANO ", true},
		{"5", "Science", "teacher approved - tide", true},
		{"5", "Science", "tide", false},
		{"5", "Science", "lava", false},
		{"6", "Science", "volcano", false},
		{"5", "Math", "volcano", false},
	}
	for _, tc := range cases {
		ok, err := svc.IsValidKeyword(ctx, tc.grade, tc.subject, tc.keyword)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "%s/%s/%s", tc.grade, tc.subject, tc.keyword)
	}
}

func TestCatalogServiceApproveCreatesBucket(t *testing.T) {
	store := newMemoryCatalogStore(nil)
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{RequireTeacherApproval: true})

	res, err := svc.Approve(context.Background(), models.ApprovalRequest{Grade: "5", Subject: "Science", Prompt: " Tide "}, teacherActor)
	require.NoError(t, err)
	assert.Equal(t, "Teacher Approved - Tide", res.Keyword)
	assert.Equal(t, []string{"Teacher Approved - Tide"}, res.Keywords)
	assert.Equal(t, []string{"Teacher Approved - Tide"}, store.catalog.Bucket("5", "Science"))
}

func TestCatalogServiceApproveDuplicates(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		prompt   string
	}{
		{"exact", []string{"Volcano"}, "Volcano"},
		{"different case", []string{"Volcano"}, "volcano"},
		{"already approved", []string{"Teacher Approved - Tide"}, "tide"},
		{"prompt carries prefix", []string{"Volcano"}, "teacher approved - VOLCANO"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemoryCatalogStore(models.Catalog{"5": {"Science": tc.existing}})
			svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{RequireTeacherApproval: true})

			_, err := svc.Approve(context.Background(), models.ApprovalRequest{Grade: "5", Subject: "Science", Prompt: tc.prompt}, teacherActor)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
			assert.Equal(t, "keyword already exists", appErr.Message)
			assert.Equal(t, tc.existing, store.catalog.Bucket("5", "Science"))
			assert.Zero(t, store.writes)
		})
	}
}

func TestCatalogServiceApproveMissingFields(t *testing.T) {
	svc := NewCatalogService(newMemoryCatalogStore(nil), zap.NewNop(), CatalogConfig{RequireTeacherApproval: true})

	for _, req := range []models.ApprovalRequest{
		{Grade: "", Subject: "Science", Prompt: "Tide"},
		{Grade: "5", Subject: "  ", Prompt: "Tide"},
		{Grade: "5", Subject: "Science", Prompt: ""},
		{Grade: "5", Subject: "Science", Prompt: "Teacher Approved - "},
	} {
		_, err := svc.Approve(context.Background(), req, teacherActor)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.Equal(t, "missing fields", appErr.Message)
	}
}

func TestCatalogServiceApproveRoleGate(t *testing.T) {
	store := newMemoryCatalogStore(nil)
	gated := NewCatalogService(store, zap.NewNop(), CatalogConfig{RequireTeacherApproval: true})

	_, err := gated.Approve(context.Background(), models.ApprovalRequest{Grade: "5", Subject: "Science", Prompt: "Tide"}, studentActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.catalog)

	open := NewCatalogService(store, zap.NewNop(), CatalogConfig{RequireTeacherApproval: false})
	_, err = open.Approve(context.Background(), models.ApprovalRequest{Grade: "5", Subject: "Science", Prompt: "Tide"}, studentActor)
	require.NoError(t, err)
}

func TestCatalogServiceApproveStoreFailure(t *testing.T) {
	store := newMemoryCatalogStore(nil)
	store.updateErr = errors.New("disk full")
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{})

	_, err := svc.Approve(context.Background(), models.ApprovalRequest{Grade: "5", Subject: "Science", Prompt: "Tide"}, teacherActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceApprovePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	store := repository.NewFileCatalogRepository(path)
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{RequireTeacherApproval: true})

	_, err := svc.Approve(context.Background(), models.ApprovalRequest{Grade: "5", Subject: "Science", Prompt: "Tide"}, teacherActor)
	require.NoError(t, err)

	reloaded, err := repository.NewFileCatalogRepository(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Teacher Approved - Tide"}, reloaded.Bucket("5", "Science"))
}

func TestCatalogServiceApproveConcurrentSameKeyword(t *testing.T) {
	store := newMemoryCatalogStore(nil)
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Approve(context.Background(), models.ApprovalRequest{Grade: "5", Subject: "Science", Prompt: "Tide"}, teacherActor)
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"Teacher Approved - Tide"}, store.catalog.Bucket("5", "Science"))
}

func TestCatalogServiceExport(t *testing.T) {
	store := newMemoryCatalogStore(models.Catalog{
		"6": {"Math": {"Fractions"}},
		"5": {"Science": {"Volcano", "Teacher Approved - Tide"}},
	})
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{})
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	file, err := svc.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "catalog-20240301-100000.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")
	lines := strings.Split(strings.TrimSpace(string(file.Payload)), "\n")
	assert.Equal(t, []string{
		"Grade,Subject,Keyword,Teacher Approved",
		"5,Science,Volcano,false",
		"5,Science,Tide,true",
		"6,Math,Fractions,false",
	}, lines)

	pdf, err := svc.Export(context.Background(), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasPrefix(string(pdf.Payload), "%PDF"))

	_, err = svc.Export(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceSeed(t *testing.T) {
	store := newMemoryCatalogStore(models.Catalog{"5": {"Science": {"Existing"}}})
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{})

	written, err := svc.Seed(context.Background(), models.Catalog{
		"5": {"Science": {"Volcano"}, "Math": {"Fractions"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, []string{"Existing"}, store.catalog.Bucket("5", "Science"))
	assert.Equal(t, []string{"Fractions"}, store.catalog.Bucket("5", "Math"))
}

func TestCatalogServiceSeedSkipsEmptyAndDuplicateKeywords(t *testing.T) {
	store := newMemoryCatalogStore(nil)
	svc := NewCatalogService(store, zap.NewNop(), CatalogConfig{})

	written, err := svc.Seed(context.Background(), models.Catalog{
		"5": {
			"Science": {"Volcano", "volcano", "Teacher Approved - VOLCANO", " ", "Tide"},
			"Art":     {},
			"Music":   {"  "},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, []string{"Volcano", "Tide"}, store.catalog.Bucket("5", "Science"))
	assert.Nil(t, store.catalog.Bucket("5", "Art"))
	assert.Nil(t, store.catalog.Bucket("5", "Music"))
	assert.Equal(t, 1, store.writes)
}
