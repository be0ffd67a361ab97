package service

import (
	"context"
	"fmt"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/util"
	"strings"
)

// Generator 题目与反馈生成方。实现可能失败，调用方负责兜底。
type Generator interface {
	GenerateQuestion(ctx context.Context, topic string, difficulty model.Difficulty, previousQuestions []string) (string, error)
	GenerateFeedback(ctx context.Context, question, answer, topic string, difficulty model.Difficulty) (string, error)
}

func FallbackQuestion(topic string, difficulty model.Difficulty) string {
	return fmt.Sprintf(util.FallbackQuestionFormat, topic, difficulty)
}

// FallbackGenerator 未配置 AI 时使用，始终返回固定文案
type FallbackGenerator struct{}

func (FallbackGenerator) GenerateQuestion(_ context.Context, topic string, difficulty model.Difficulty, _ []string) (string, error) {
	return FallbackQuestion(topic, difficulty), nil
}

func (FallbackGenerator) GenerateFeedback(_ context.Context, _, _, _ string, _ model.Difficulty) (string, error) {
	return util.FallbackFeedback, nil
}

// AIService 基于大模型生成面试题和作答反馈
type AIService struct {
	provider  llm.Provider
	maxTokens int
}

func NewAIService(provider llm.Provider, maxTokens int) *AIService {
	return &AIService{provider: provider, maxTokens: maxTokens}
}

const interviewerSystemPrompt = "You are an experienced technical interviewer helping candidates practice."

func questionPrompt(topic string, difficulty model.Difficulty, previousQuestions []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s level interview question about %s.\n", difficulty, topic)
	if len(previousQuestions) > 0 {
		fmt.Fprintf(&b, "Avoid these topics: %s\n", strings.Join(previousQuestions, ", "))
	}
	b.WriteString("Return only the question, no additional text.")
	return b.String()
}

func feedbackPrompt(question, answer, topic string, difficulty model.Difficulty) string {
	return fmt.Sprintf(`As an interview expert, evaluate this answer:
Question: %s
Answer: %s
Topic: %s
Difficulty: %s

Provide constructive feedback (max 150 words) and rate from 1-10.`, question, answer, topic, difficulty)
}

func (s *AIService) GenerateQuestion(ctx context.Context, topic string, difficulty model.Difficulty, previousQuestions []string) (string, error) {
	return s.complete(ctx, questionPrompt(topic, difficulty, previousQuestions))
}

func (s *AIService) GenerateFeedback(ctx context.Context, question, answer, topic string, difficulty model.Difficulty) (string, error) {
	return s.complete(ctx, feedbackPrompt(question, answer, topic, difficulty))
}

func (s *AIService) complete(ctx context.Context, prompt string) (string, error) {
	text, err := s.provider.Complete(ctx, llm.Request{
		System:      interviewerSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   s.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}
