package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/lock"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"
	"interview_prep_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SessionService 面试会话生命周期：创建 → 作答 → 打分 → 归档
type SessionService struct {
	sessions  *repository.SessionRepository
	profiles  *repository.UserProfileRepository
	generator Generator
	locker    lock.Locker
	storage   *StorageService
	policy    config.SessionConfig
	timeout   time.Duration
	now       func() time.Time
}

func NewSessionService(
	sessions *repository.SessionRepository,
	profiles *repository.UserProfileRepository,
	generator Generator,
	locker lock.Locker,
	storage *StorageService,
	policy config.SessionConfig,
	generatorTimeout time.Duration,
) *SessionService {
	if generator == nil {
		generator = FallbackGenerator{}
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &SessionService{
		sessions:  sessions,
		profiles:  profiles,
		generator: generator,
		locker:    locker,
		storage:   storage,
		policy:    policy,
		timeout:   generatorTimeout,
		now:       time.Now,
	}
}

// CreateSessionRequest 创建会话请求
// swagger:model CreateSessionRequest
type CreateSessionRequest struct {
	UserID     string `json:"userId"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// ComputeScore 按已作答题数计分：round(100*n/(n+1))，四舍五入
func ComputeScore(answered int) int {
	if answered <= 0 {
		return 0
	}
	return (200*answered + answered + 1) / (2 * (answered + 1))
}

func parseDifficulty(raw string) (model.Difficulty, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", util.Required("difficulty")
	}
	d := model.Difficulty(raw)
	if !d.Valid() {
		return "", util.Invalid("difficulty", "must be one of Easy, Medium, Hard")
	}
	return d, nil
}

func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*model.Session, error) {
	userID := strings.TrimSpace(req.UserID)
	topic := strings.TrimSpace(req.Topic)
	if userID == "" {
		return nil, util.Required("userId")
	}
	if topic == "" {
		return nil, util.Required("topic")
	}
	difficulty, err := parseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}

	if s.policy.VerifyUser {
		ok, err := s.profiles.Exists(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return nil, util.ErrUserNotFound
		}
	}

	now := s.now()
	session := &model.Session{
		DocumentBase: model.DocumentBase{CreatedAt: now, UpdatedAt: now},
		UserID:       userID,
		Topic:        topic,
		Difficulty:   difficulty,
		Questions:    datatypes.JSONSlice[model.QuestionRecord]{},
		Score:        0,
		Status:       model.SessionActive,
		Version:      1,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	monitoring.SessionsCreated.Inc()
	logger.Log.Info("Session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", userID),
		zap.String("topic", topic),
		zap.String("difficulty", string(difficulty)),
	)
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	return s.sessions.FindByID(ctx, id)
}

// List 按创建时间倒序
func (s *SessionService) List(ctx context.Context, userID string) ([]model.Session, error) {
	return s.sessions.FindByUserID(ctx, userID)
}

func (s *SessionService) Stats(ctx context.Context, userID string) (SessionStats, error) {
	sessions, err := s.sessions.FindByUserID(ctx, userID)
	if err != nil {
		return SessionStats{}, err
	}
	return ComputeStats(sessions), nil
}

// NextQuestion 只读调用生成方，不写入会话；失败时返回固定题目
func (s *SessionService) NextQuestion(ctx context.Context, topic string, difficulty string, previousQuestions []string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", util.Required("topic")
	}
	d, err := parseDifficulty(difficulty)
	if err != nil {
		return "", err
	}
	return s.question(ctx, topic, d, previousQuestions), nil
}

// NextQuestionForSession 以会话已有的题目作为去重参考
func (s *SessionService) NextQuestionForSession(ctx context.Context, id string) (string, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.question(ctx, session.Topic, session.Difficulty, session.PreviousQuestions()), nil
}

func (s *SessionService) question(ctx context.Context, topic string, difficulty model.Difficulty, previous []string) string {
	ctx, cancel := s.generatorContext(ctx)
	defer cancel()

	ctx, span := tracing.Start(ctx, "generator.question", attribute.String("topic", topic))
	text, err := s.generator.GenerateQuestion(ctx, topic, difficulty, previous)
	tracing.End(span, err)

	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		monitoring.GeneratorFallbacks.WithLabelValues("question").Inc()
		logger.Log.Warn("Question generation failed, using default question", zap.Error(err))
		return FallbackQuestion(topic, difficulty)
	}
	return text
}

func (s *SessionService) feedback(ctx context.Context, question, answer string, session *model.Session) string {
	ctx, cancel := s.generatorContext(ctx)
	defer cancel()

	ctx, span := tracing.Start(ctx, "generator.feedback", attribute.String("session_id", session.ID))
	text, err := s.generator.GenerateFeedback(ctx, question, answer, session.Topic, session.Difficulty)
	tracing.End(span, err)

	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		monitoring.GeneratorFallbacks.WithLabelValues("feedback").Inc()
		logger.Log.Warn("Feedback generation failed, using default feedback",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return util.FallbackFeedback
	}
	return text
}

func (s *SessionService) generatorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// mutate 在会话锁内读取、修改并以乐观锁保存。
// expectedVersion 非空时必须与当前版本一致。
func (s *SessionService) mutate(ctx context.Context, id string, expectedVersion *int, fn func(*model.Session) error) (*model.Session, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", id, err)
	}
	defer unlock()

	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != session.Version {
		return nil, fmt.Errorf("expected version %d, current %d: %w", *expectedVersion, session.Version, util.ErrConflict)
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}
	return session, nil
}

// SubmitAnswer 追加一条问答记录，这是修改 questions 的唯一入口
func (s *SessionService) SubmitAnswer(ctx context.Context, id, question, answer string, expectedVersion *int) (*model.Session, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" {
		return nil, util.Required("question")
	}
	if answer == "" {
		return nil, util.Required("answer")
	}

	session, err := s.mutate(ctx, id, expectedVersion, func(session *model.Session) error {
		if s.policy.StrictLifecycle && session.Status == model.SessionScored {
			return util.ErrSessionScored
		}

		feedback := s.feedback(ctx, question, answer, session)
		now := s.now()
		session.Questions = append(session.Questions, model.QuestionRecord{
			Question:  question,
			Answer:    answer,
			Feedback:  feedback,
			Timestamp: now,
		})
		session.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.AnswersSubmitted.Inc()
	return session, nil
}

// EndSession 按作答题数计分；未开启严格模式时打分后仍可继续作答
func (s *SessionService) EndSession(ctx context.Context, id string, expectedVersion *int) (*model.Session, error) {
	return s.finish(ctx, id, expectedVersion, func(session *model.Session) int {
		return ComputeScore(len(session.Questions))
	})
}

// RecordScore 使用客户端提交的分数
func (s *SessionService) RecordScore(ctx context.Context, id string, score int, expectedVersion *int) (*model.Session, error) {
	return s.finish(ctx, id, expectedVersion, func(*model.Session) int {
		return score
	})
}

// finish 打分并按配置归档；保存失败时删除本次新写入的归档
func (s *SessionService) finish(ctx context.Context, id string, expectedVersion *int, scoreOf func(*model.Session) int) (*model.Session, error) {
	uploaded := false
	session, err := s.mutate(ctx, id, expectedVersion, func(session *model.Session) error {
		session.Score = scoreOf(session)
		session.Status = model.SessionScored
		session.UpdatedAt = s.now()

		if s.policy.ArchiveTranscripts && s.storage != nil {
			hadTranscript := session.TranscriptURL != ""
			url, err := s.ArchiveTranscript(ctx, session)
			if err != nil {
				logger.Log.Warn("Transcript archive failed", zap.String("session_id", session.ID), zap.Error(err))
				return nil
			}
			session.TranscriptURL = url
			uploaded = !hadTranscript
		}
		return nil
	})
	if err != nil {
		if uploaded {
			s.removeTranscript(ctx, id)
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) removeTranscript(ctx context.Context, id string) {
	if err := s.storage.Delete(ctx, transcriptKey(id)); err != nil {
		logger.Log.Warn("Transcript removal failed", zap.String("session_id", id), zap.Error(err))
	}
}

// transcriptKey 只使用服务端生成的会话 ID，userId 由客户端提供，不参与路径
func transcriptKey(sessionID string) string {
	return fmt.Sprintf("transcripts/%s.json", sessionID)
}

// ArchiveTranscript 把会话完整内容写入存储，返回访问地址
func (s *SessionService) ArchiveTranscript(ctx context.Context, session *model.Session) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("storage not configured")
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", err
	}
	return s.storage.Upload(ctx, transcriptKey(session.ID), bytes.NewReader(data), int64(len(data)), util.MimeJSON)
}

// Delete 物理删除；会话不存在时不报错
func (s *SessionService) Delete(ctx context.Context, id string) error {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, util.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	if session.TranscriptURL != "" && s.storage != nil {
		s.removeTranscript(ctx, id)
	}
	return nil
}

// BackfillTranscripts 为已打分但未归档的会话补写归档，返回成功数量
func (s *SessionService) BackfillTranscripts(ctx context.Context) (int, error) {
	if s.storage == nil {
		return 0, fmt.Errorf("storage not configured")
	}
	pending, err := s.sessions.FindScoredWithoutTranscript(ctx)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, p := range pending {
		uploaded := false
		_, err := s.mutate(ctx, p.ID, nil, func(session *model.Session) error {
			if session.TranscriptURL != "" {
				return nil
			}
			url, err := s.ArchiveTranscript(ctx, session)
			if err != nil {
				return err
			}
			session.TranscriptURL = url
			uploaded = true
			return nil
		})
		if err != nil {
			if uploaded {
				s.removeTranscript(ctx, p.ID)
			}
			logger.Log.Warn("Transcript backfill failed", zap.String("session_id", p.ID), zap.Error(err))
			continue
		}
		archived++
	}
	return archived, nil
}
