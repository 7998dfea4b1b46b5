package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"complaint-service/internal/auth"
	"complaint-service/internal/cache"
	"complaint-service/internal/db"
	"complaint-service/internal/events"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

var fixedNow = time.Date(2024, 1, 12, 5, 0, 0, 0, time.UTC)

type fixture struct {
	db         *gorm.DB
	store      *repository.Store
	fs         afero.Fs
	publisher  *recordingPublisher
	complaints *ComplaintService
	identity   *IdentityService
	reports    *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRedis(t, nil)
}

func newFixtureWithRedis(t *testing.T, client *redis.Client) *fixture {
	t.Helper()

	database, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	fs := afero.NewMemMapFs()
	mediaStore, err := media.NewLocalStore(fs, "uploads")
	require.NoError(t, err)

	store := repository.NewStore(database)
	reportCache := cache.NewReportCache(client, time.Minute)
	publisher := &recordingPublisher{}

	complaints := NewComplaintService(store, mediaStore, publisher, reportCache, zerolog.Nop())
	complaints.now = func() time.Time { return fixedNow }

	return &fixture{
		db:         database,
		store:      store,
		fs:         fs,
		publisher:  publisher,
		complaints: complaints,
		identity:   NewIdentityService(store, auth.NewIssuer("test-secret", time.Hour), reportCache, zerolog.Nop()),
		reports:    NewReportService(store, reportCache, zerolog.Nop()),
	}
}

func (f *fixture) user(t *testing.T) *model.User {
	t.Helper()
	user, err := f.identity.RegisterUser(context.Background(), RegisterUserInput{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     uuid.NewString() + "@example.com",
		Password:  "password1",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) department(t *testing.T, name string) *model.Department {
	t.Helper()
	dept, err := f.identity.CreateDepartment(context.Background(), CreateDepartmentInput{
		Name:     name,
		Email:    uuid.NewString() + "@city.gov",
		Password: "password1",
	})
	require.NoError(t, err)
	return dept
}

func (f *fixture) worker(t *testing.T, departmentID int64) *model.Worker {
	t.Helper()
	id := uuid.NewString()
	worker, err := f.identity.AddWorker(context.Background(), departmentID, AddWorkerInput{
		Name:  "Worker " + id[:8],
		Email: id + "@city.gov",
		Phone: id[:12],
	})
	require.NoError(t, err)
	return worker
}

func (f *fixture) complaint(t *testing.T) *model.Complaint {
	t.Helper()
	user := f.user(t)
	complaint, err := f.complaints.Submit(context.Background(), SubmitInput{
		UserID:      user.ID,
		Title:       "Broken streetlight",
		Category:    "Electricity",
		Description: "The light on 5th street is out",
		City:        "Pune",
		Location:    "5th street",
	})
	require.NoError(t, err)
	return complaint
}

func (f *fixture) reload(t *testing.T, id int64) *model.Complaint {
	t.Helper()
	complaint, err := f.store.Complaints.GetByID(context.Background(), id)
	require.NoError(t, err)
	return complaint
}

func (f *fixture) fileCount(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, "uploads")
	require.NoError(t, err)
	return len(entries)
}

func image(name string) *media.Upload {
	return &media.Upload{Filename: name, Data: []byte("fake image bytes")}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ComplaintEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.ComplaintEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type failingMedia struct{}

func (failingMedia) Save(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("disk full")
}

func (failingMedia) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("disk unavailable")
}

// memoryRedis answers GET, SET and DEL from a map so the report cache runs
// without a server.
type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryRedis(t *testing.T) (*redis.Client, *memoryRedis) {
	t.Helper()
	mem := &memoryRedis{data: map[string]string{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(mem)
	t.Cleanup(func() { _ = client.Close() })
	return client, mem
}

func (m *memoryRedis) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (m *memoryRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memoryRedis) ProcessHook(_ redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		args := cmd.Args()
		if len(args) < 2 {
			return fmt.Errorf("unsupported command %s", cmd.Name())
		}
		key := fmt.Sprint(args[1])
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := m.data[key]
			if !ok {
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			switch v := args[2].(type) {
			case []byte:
				m.data[key] = string(v)
			default:
				m.data[key] = fmt.Sprint(v)
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			var n int64
			if _, ok := m.data[key]; ok {
				delete(m.data, key)
				n = 1
			}
			c.SetVal(n)
		default:
			return fmt.Errorf("unsupported command %s", cmd.Name())
		}
		return nil
	}
}

func (m *memoryRedis) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}
