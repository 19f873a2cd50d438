package contract

import (
	"context"
	"time"

	"github.com/gitretro/gitretro/schema"
	"github.com/stretchr/testify/mock"
)

// MockHostGateway is a mock implementation of HostGateway for testing.
type MockHostGateway struct {
	mock.Mock
}

var _ HostGateway = &MockHostGateway{} // Compile-time check

// ListRepositories implements the HostGateway interface.
func (m *MockHostGateway) ListRepositories(ctx context.Context, org string, opts ListOptions) ([]schema.Repository, error) {
	ret := m.Called(ctx, org, opts)
	repos, _ := ret.Get(0).([]schema.Repository)
	return repos, ret.Error(1)
}

// GetRepository implements the HostGateway interface.
func (m *MockHostGateway) GetRepository(ctx context.Context, org, name string) (schema.Repository, error) {
	ret := m.Called(ctx, org, name)
	repo, _ := ret.Get(0).(schema.Repository)
	return repo, ret.Error(1)
}

// FetchCommits implements the HostGateway interface.
func (m *MockHostGateway) FetchCommits(ctx context.Context, org, name string, since, until time.Time) ([]schema.Commit, error) {
	ret := m.Called(ctx, org, name, since, until)
	commits, _ := ret.Get(0).([]schema.Commit)
	return commits, ret.Error(1)
}

// FetchPullRequests implements the HostGateway interface.
func (m *MockHostGateway) FetchPullRequests(ctx context.Context, org, name string) ([]schema.PullRequest, error) {
	ret := m.Called(ctx, org, name)
	prs, _ := ret.Get(0).([]schema.PullRequest)
	return prs, ret.Error(1)
}

// FetchIssues implements the HostGateway interface.
func (m *MockHostGateway) FetchIssues(ctx context.Context, org, name string, since time.Time) ([]schema.Issue, error) {
	ret := m.Called(ctx, org, name, since)
	issues, _ := ret.Get(0).([]schema.Issue)
	return issues, ret.Error(1)
}

// FetchReleases implements the HostGateway interface.
func (m *MockHostGateway) FetchReleases(ctx context.Context, org, name string) ([]schema.Release, error) {
	ret := m.Called(ctx, org, name)
	releases, _ := ret.Get(0).([]schema.Release)
	return releases, ret.Error(1)
}

// MockMirrorProvider is a mock implementation of MirrorProvider for testing.
type MockMirrorProvider struct {
	mock.Mock
}

var _ MirrorProvider = &MockMirrorProvider{} // Compile-time check

// Ensure implements the MirrorProvider interface.
func (m *MockMirrorProvider) Ensure(ctx context.Context, org, repo, pathTemplate, token string) (schema.MirrorResult, error) {
	ret := m.Called(ctx, org, repo, pathTemplate, token)
	res, _ := ret.Get(0).(schema.MirrorResult)
	return res, ret.Error(1)
}

// CollectCommits implements the MirrorProvider interface.
func (m *MockMirrorProvider) CollectCommits(ctx context.Context, path string, start, end time.Time) (schema.CommitStats, error) {
	ret := m.Called(ctx, path, start, end)
	stats, _ := ret.Get(0).(schema.CommitStats)
	return stats, ret.Error(1)
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(desc CacheDescriptor, out any) bool {
	ret := m.Called(desc, out)
	return ret.Bool(0)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(desc CacheDescriptor, payload any) {
	m.Called(desc, payload)
}

// Sweep implements the CacheStore interface.
func (m *MockCacheStore) Sweep(maxAge time.Duration) (int, error) {
	ret := m.Called(maxAge)
	return ret.Int(0), ret.Error(1)
}

// Stats implements the CacheStore interface.
func (m *MockCacheStore) Stats() (schema.CacheStats, error) {
	ret := m.Called()
	stats, _ := ret.Get(0).(schema.CacheStats)
	return stats, ret.Error(1)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startedAt time.Time, org string, windowStart, windowEnd time.Time) (int64, error) {
	ret := m.Called(startedAt, org, windowStart, windowEnd)
	return ret.Get(0).(int64), ret.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, finishedAt time.Time, summary schema.AggregateSummary) error {
	ret := m.Called(runID, finishedAt, summary)
	return ret.Error(0)
}

// RecordRepo implements the RunStore interface.
func (m *MockRunStore) RecordRepo(runID int64, rec schema.RepositoryRecord) error {
	ret := m.Called(runID, rec)
	return ret.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	ret := m.Called()
	status, _ := ret.Get(0).(schema.RunStatus)
	return status, ret.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]RunRecord, error) {
	ret := m.Called()
	runs, _ := ret.Get(0).([]RunRecord)
	return runs, ret.Error(1)
}

// GetAllRunRepos implements the RunStore interface.
func (m *MockRunStore) GetAllRunRepos() ([]RunRepoRecord, error) {
	ret := m.Called()
	rows, _ := ret.Get(0).([]RunRepoRecord)
	return rows, ret.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	ret := m.Called()
	return ret.Error(0)
}
