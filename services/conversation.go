package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/telemetry"
	"docchat-platform/models"
)

type chatRecords interface {
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	ChatFiles(ctx context.Context, chatID string) ([]models.ChatFile, error)
}

type turnRecorder interface {
	RecordTurn(ctx context.Context, chatID, role, content string) error
	RecentTurns(ctx context.Context, chatID string, limit int) ([]string, error)
}

type contextRetriever interface {
	Retrieve(ctx context.Context, chatID, query string) (string, error)
}

// ConversationPipeline answers one question against a chat's documents and
// memory. Stages that have no data dependency on each other run concurrently;
// everything else is strictly ordered.
type ConversationPipeline struct {
	records     chatRecords
	memory      turnRecorder
	retriever   contextRetriever
	generator   ai.Generator
	recentTurns int
	metrics     *telemetry.Metrics
}

func NewConversationPipeline(records chatRecords, memory turnRecorder, retriever contextRetriever, generator ai.Generator, recentTurns int, metrics *telemetry.Metrics) *ConversationPipeline {
	if recentTurns <= 0 {
		recentTurns = 6
	}
	return &ConversationPipeline{
		records:     records,
		memory:      memory,
		retriever:   retriever,
		generator:   generator,
		recentTurns: recentTurns,
		metrics:     metrics,
	}
}

// Ask runs the full question pipeline and returns the assistant's answer.
// The user's original question is what gets persisted and answered; the
// rephrased form exists only to sharpen retrieval.
func (p *ConversationPipeline) Ask(ctx context.Context, chatID, question string) (string, error) {
	var (
		chat    *models.Chat
		history []string
		files   []models.ChatFile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := p.records.GetChat(gctx, chatID)
		if err != nil {
			return err
		}
		chat = c
		return nil
	})
	g.Go(func() error {
		h, err := p.memory.RecentTurns(gctx, chatID, p.recentTurns)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	g.Go(func() error {
		f, err := p.records.ChatFiles(gctx, chatID)
		if err != nil {
			return fmt.Errorf("%w: list chat files: %v", ErrPersistence, err)
		}
		files = f
		return nil
	})
	if err := g.Wait(); err != nil {
		p.metrics.RecordQuestion(ctx, "failed")
		return "", err
	}

	searchQuery, err := p.rephrase(ctx, question, history, files)
	if err != nil {
		p.metrics.RecordQuestion(ctx, "failed")
		return "", err
	}

	var contextBlock string
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		block, err := p.retriever.Retrieve(gctx, chatID, searchQuery)
		if err != nil {
			return err
		}
		contextBlock = block
		return nil
	})
	g.Go(func() error {
		return p.memory.RecordTurn(gctx, chatID, models.RoleUser, question)
	})
	if err := g.Wait(); err != nil {
		p.metrics.RecordQuestion(ctx, "failed")
		return "", err
	}

	prompt := buildAnswerPrompt(chat, files, contextBlock, history, question)
	answer, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		p.metrics.RecordQuestion(ctx, "failed")
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		p.metrics.RecordQuestion(ctx, "failed")
		return "", fmt.Errorf("%w: model returned an empty answer", ErrGeneration)
	}

	if err := p.memory.RecordTurn(ctx, chatID, models.RoleAssistant, answer); err != nil {
		p.metrics.RecordQuestion(ctx, "failed")
		return "", err
	}

	p.metrics.RecordQuestion(ctx, "answered")
	return answer, nil
}

// rephrase produces the standalone retrieval query. With no prior turns the
// question already stands alone and no model call is made; a model failure
// aborts the question like any other pipeline stage.
func (p *ConversationPipeline) rephrase(ctx context.Context, question string, history []string, files []models.ChatFile) (string, error) {
	if len(history) == 0 {
		return question, nil
	}
	prompt := fmt.Sprintf(rephrasePrompt, fileNames(files), strings.Join(history, "\n"), question)
	rewritten, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: rephrase question: %v", ErrGeneration, err)
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func buildAnswerPrompt(chat *models.Chat, files []models.ChatFile, contextBlock string, history []string, question string) string {
	persona := strings.TrimSpace(chat.PersonaInstructions)
	if persona == "" {
		persona = defaultPersonaInstructions
	}

	fileList := fileNames(files)

	if contextBlock == "" {
		contextBlock = "No relevant passages were found."
	}
	historyBlock := "This is the first question of the conversation."
	if len(history) > 0 {
		historyBlock = strings.Join(history, "\n")
	}

	return fmt.Sprintf(answerPrompt, persona, fileList, contextBlock, historyBlock, question)
}

func fileNames(files []models.ChatFile) string {
	if len(files) == 0 {
		return "none"
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	return strings.Join(names, ", ")
}
