package service

import (
	"context"
	"errors"
	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/database"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	return db
}

type fixture struct {
	db       *gorm.DB
	sessions *repository.SessionRepository
	profiles *repository.UserProfileRepository
}

func newFixture(t *testing.T) fixture {
	db := openTestDB(t)
	return fixture{
		db:       db,
		sessions: repository.NewSessionRepository(db),
		profiles: repository.NewUserProfileRepository(db),
	}
}

func (f fixture) service(gen Generator, policy config.SessionConfig, storage *StorageService) *SessionService {
	return NewSessionService(f.sessions, f.profiles, gen, nil, storage, policy, time.Second)
}

// failingGenerator 总是返回错误
type failingGenerator struct{}

func (failingGenerator) GenerateQuestion(context.Context, string, model.Difficulty, []string) (string, error) {
	return "", errors.New("upstream down")
}

func (failingGenerator) GenerateFeedback(context.Context, string, string, string, model.Difficulty) (string, error) {
	return "", errors.New("upstream down")
}

// slowGenerator 阻塞到 ctx 结束
type slowGenerator struct{}

func (slowGenerator) GenerateQuestion(ctx context.Context, _ string, _ model.Difficulty, _ []string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowGenerator) GenerateFeedback(ctx context.Context, _, _, _ string, _ model.Difficulty) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestComputeScore(t *testing.T) {
	cases := map[int]int{0: 0, 1: 50, 2: 67, 3: 75, 4: 80, 5: 83, 9: 90, 99: 99}
	for n, want := range cases {
		assert.Equal(t, want, ComputeScore(n), "n=%d", n)
	}
}

func TestSessionService_EndToEnd(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "React", Difficulty: "Medium"})
	require.NoError(t, err)
	assert.Empty(t, s.Questions)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, model.SessionActive, s.Status)
	assert.Equal(t, 1, s.Version)

	for i := 0; i < 3; i++ {
		q, err := svc.NextQuestionForSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "What is React? Explain with examples. (Medium level)", q)

		_, err = svc.SubmitAnswer(ctx, s.ID, q, "my answer", nil)
		require.NoError(t, err)
	}

	ended, err := svc.EndSession(ctx, s.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 75, ended.Score)
	assert.Equal(t, model.SessionScored, ended.Status)

	stored, err := svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, stored.Score)
	require.Len(t, stored.Questions, 3)
	for _, q := range stored.Questions {
		assert.Equal(t, util.FallbackFeedback, q.Feedback)
	}
}

func TestSessionService_CreateValidation(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	cases := []CreateSessionRequest{
		{Topic: "Go", Difficulty: "Easy"},
		{UserID: "u1", Topic: "  ", Difficulty: "Easy"},
		{UserID: "u1", Topic: "Go"},
		{UserID: "u1", Topic: "Go", Difficulty: "Impossible"},
	}
	for _, req := range cases {
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, util.ErrValidation, "%+v", req)
	}
}

func TestSessionService_CreateVerifiesUser(t *testing.T) {
	f := newFixture(t)
	svc := f.service(nil, config.SessionConfig{VerifyUser: true}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateSessionRequest{UserID: "ghost", Topic: "Go", Difficulty: "Easy"})
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	profile := &model.UserProfile{Name: "Ann", Email: "ann@example.com"}
	require.NoError(t, f.profiles.Create(ctx, profile))

	_, err = svc.Create(ctx, CreateSessionRequest{UserID: profile.ID, Topic: "Go", Difficulty: "Easy"})
	assert.NoError(t, err)
}

func TestSessionService_SubmitAnswer(t *testing.T) {
	f := newFixture(t)
	provider := llm.NewMockProvider(llm.MockResponse{Text: "  Solid answer. 8/10  "})
	svc := f.service(NewAIService(provider, 256), config.SessionConfig{}, nil)
	ctx := context.Background()

	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Hard"})
	require.NoError(t, err)

	updated, err := svc.SubmitAnswer(ctx, s.ID, " What is a goroutine? ", " A lightweight thread ", nil)
	require.NoError(t, err)
	require.Len(t, updated.Questions, 1)
	rec := updated.Questions[0]
	assert.Equal(t, "What is a goroutine?", rec.Question)
	assert.Equal(t, "A lightweight thread", rec.Answer)
	assert.Equal(t, "Solid answer. 8/10", rec.Feedback)
	assert.True(t, rec.Timestamp.Equal(fixed))
	assert.Equal(t, 2, updated.Version)

	// 队列已空，第二次调用走兜底反馈
	updated, err = svc.SubmitAnswer(ctx, s.ID, "What is a channel?", "A pipe", nil)
	require.NoError(t, err)
	require.Len(t, updated.Questions, 2)
	assert.Equal(t, "What is a goroutine?", updated.Questions[0].Question)
	assert.Equal(t, util.FallbackFeedback, updated.Questions[1].Feedback)
	assert.Equal(t, 2, provider.CallCount())
}

func TestSessionService_SubmitAnswerRejectsBlank(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, s.ID, "Question?", "   \n\t", nil)
	assert.ErrorIs(t, err, util.ErrValidation)
	_, err = svc.SubmitAnswer(ctx, s.ID, "", "answer", nil)
	assert.ErrorIs(t, err, util.ErrValidation)

	stored, err := svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Questions)
	assert.Equal(t, 1, stored.Version)
}

func TestSessionService_MissingSession(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = svc.SubmitAnswer(ctx, "nope", "q", "a", nil)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = svc.EndSession(ctx, "nope", nil)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = svc.NextQuestionForSession(ctx, "nope")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	assert.NoError(t, svc.Delete(ctx, "nope"))
}

func TestSessionService_GeneratorFallbacks(t *testing.T) {
	ctx := context.Background()

	for name, gen := range map[string]Generator{
		"failing": failingGenerator{},
		"slow":    slowGenerator{},
		"empty":   NewAIService(llm.NewMockProvider(llm.MockResponse{Text: "   "}), 0),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			svc := NewSessionService(f.sessions, f.profiles, gen, nil, nil, config.SessionConfig{}, 50*time.Millisecond)

			q, err := svc.NextQuestion(ctx, "Python", "Easy", []string{"What is a list?"})
			require.NoError(t, err)
			assert.Equal(t, "What is Python? Explain with examples. (Easy level)", q)
		})
	}

	f := newFixture(t)
	svc := NewSessionService(f.sessions, f.profiles, failingGenerator{}, nil, nil, config.SessionConfig{}, time.Second)
	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)
	updated, err := svc.SubmitAnswer(ctx, s.ID, "q", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "Great answer! Keep practicing to improve further.", updated.Questions[0].Feedback)
}

func TestSessionService_NextQuestionValidation(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)

	_, err := svc.NextQuestion(context.Background(), "", "Easy", nil)
	assert.ErrorIs(t, err, util.ErrValidation)
	_, err = svc.NextQuestion(context.Background(), "Go", "easy", nil)
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestSessionService_NextQuestionPassesHistory(t *testing.T) {
	f := newFixture(t)
	provider := llm.NewMockProvider(
		llm.MockResponse{Text: "fb"},
		llm.MockResponse{Text: "How does the scheduler work?"},
	)
	svc := f.service(NewAIService(provider, 0), config.SessionConfig{}, nil)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Medium"})
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, s.ID, "What is a goroutine?", "a", nil)
	require.NoError(t, err)

	q, err := svc.NextQuestionForSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "How does the scheduler work?", q)
	require.Len(t, provider.Calls, 2)
	assert.Contains(t, provider.Calls[1].Prompt, "Avoid these topics: What is a goroutine?")

	stored, err := svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 1)
}

func TestSessionService_AnswerAfterScore(t *testing.T) {
	ctx := context.Background()

	t.Run("permissive", func(t *testing.T) {
		svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
		s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
		require.NoError(t, err)
		_, err = svc.EndSession(ctx, s.ID, nil)
		require.NoError(t, err)

		updated, err := svc.SubmitAnswer(ctx, s.ID, "q", "a", nil)
		require.NoError(t, err)
		assert.Len(t, updated.Questions, 1)
		assert.Equal(t, 0, updated.Score)
	})

	t.Run("strict", func(t *testing.T) {
		svc := newFixture(t).service(nil, config.SessionConfig{StrictLifecycle: true}, nil)
		s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
		require.NoError(t, err)
		_, err = svc.EndSession(ctx, s.ID, nil)
		require.NoError(t, err)

		_, err = svc.SubmitAnswer(ctx, s.ID, "q", "a", nil)
		assert.ErrorIs(t, err, util.ErrSessionScored)
	})
}

func TestSessionService_RecordScore(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)

	scored, err := svc.RecordScore(ctx, s.ID, 42, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, scored.Score)
	assert.Equal(t, model.SessionScored, scored.Status)
}

func TestSessionService_VersionCheck(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)

	stale := 1
	_, err = svc.SubmitAnswer(ctx, s.ID, "q1", "a1", &stale)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, s.ID, "q2", "a2", &stale)
	assert.ErrorIs(t, err, util.ErrConflict)

	current := 2
	updated, err := svc.SubmitAnswer(ctx, s.ID, "q2", "a2", &current)
	require.NoError(t, err)
	assert.Len(t, updated.Questions, 2)
}

func TestSessionService_ConcurrentAnswersAreAllKept(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitAnswer(ctx, s.ID, "q", "a", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, n)
	assert.Equal(t, n+1, stored.Version)
}

func TestSessionService_ListAndStats(t *testing.T) {
	svc := newFixture(t).service(nil, config.SessionConfig{}, nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, d := range []string{"Easy", "Hard"} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: d})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	_, err := svc.RecordScore(ctx, ids[0], 80, nil)
	require.NoError(t, err)
	_, err = svc.RecordScore(ctx, ids[1], 60, nil)
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[1], list[0].ID)
	assert.Equal(t, ids[0], list[1].ID)

	empty, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.InDelta(t, 70.0, stats.AverageScore, 1e-9)
	assert.Equal(t, 80, stats.BestScore)
}

func TestSessionService_ArchiveTranscript(t *testing.T) {
	dir := t.TempDir()
	storage := NewStorageService(&config.StorageConfig{Type: util.StorageLocal, LocalPath: dir})
	svc := newFixture(t).service(nil, config.SessionConfig{ArchiveTranscripts: true}, storage)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, s.ID, "q", "a", nil)
	require.NoError(t, err)

	ended, err := svc.EndSession(ctx, s.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/transcripts/"+s.ID+".json", ended.TranscriptURL)

	path := filepath.Join(dir, "transcripts", s.ID+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"question": "q"`)

	require.NoError(t, svc.Delete(ctx, s.ID))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = svc.Get(ctx, s.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSessionService_BackfillTranscripts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plain := f.service(nil, config.SessionConfig{}, nil)
	scored, err := plain.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)
	_, err = plain.EndSession(ctx, scored.ID, nil)
	require.NoError(t, err)
	_, err = plain.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)

	_, err = plain.BackfillTranscripts(ctx)
	assert.Error(t, err)

	dir := t.TempDir()
	storage := NewStorageService(&config.StorageConfig{Type: util.StorageLocal, LocalPath: dir})
	svc := f.service(nil, config.SessionConfig{}, storage)

	n, err := svc.BackfillTranscripts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := svc.Get(ctx, scored.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.TranscriptURL)
	assert.FileExists(t, filepath.Join(dir, "transcripts", scored.ID+".json"))

	n, err = svc.BackfillTranscripts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSessionService_ArchiveIgnoresUserIDPath(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "uploads")
	storage := NewStorageService(&config.StorageConfig{Type: util.StorageLocal, LocalPath: root})
	svc := newFixture(t).service(nil, config.SessionConfig{ArchiveTranscripts: true}, storage)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "../../escaped", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)

	ended, err := svc.EndSession(ctx, s.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/transcripts/"+s.ID+".json", ended.TranscriptURL)
	assert.FileExists(t, filepath.Join(root, "transcripts", s.ID+".json"))

	_, err = os.Stat(filepath.Join(base, "escaped"))
	assert.True(t, os.IsNotExist(err))
}

func TestSessionService_FailedSaveRemovesNewTranscript(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	storage := NewStorageService(&config.StorageConfig{Type: util.StorageLocal, LocalPath: dir})
	svc := f.service(nil, config.SessionConfig{ArchiveTranscripts: true}, storage)
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateSessionRequest{UserID: "u1", Topic: "Go", Difficulty: "Easy"})
	require.NoError(t, err)

	storeErr := errors.New("store unavailable")
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		tx.AddError(storeErr)
	}))

	_, err = svc.EndSession(ctx, s.ID, nil)
	assert.ErrorIs(t, err, storeErr)
	_, err = os.Stat(filepath.Join(dir, "transcripts", s.ID+".json"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, f.db.Callback().Update().Remove("test:fail_update"))
	stored, err := svc.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, stored.Status)
	assert.Empty(t, stored.TranscriptURL)
}
