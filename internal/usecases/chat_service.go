package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"elevex/internal/entities"
	"elevex/internal/infrastructure"
	"elevex/internal/interfaces"
)

// ErrTurnInFlight means a turn is already running on this session.
var ErrTurnInFlight = errors.New("turn already in flight for session")

// clarificationAnswerLimit is the word count above which a reply that asks
// for the equipment model still counts as a real answer and keeps its charge.
const clarificationAnswerLimit = 40

const (
	greetingReply = "Olá! Sou o assistente técnico da Elevex. Descreva a falha e informe o modelo do equipamento para eu ajudar."
	askModelReply = "Para te ajudar com precisão, me informe o modelo exato do equipamento (placa, comando ou operador)."
	retryReply    = "Desculpe, não consegui gerar uma resposta agora. Sua consulta não foi descontada, tente novamente."
)

// AgentStore loads chat personas.
type AgentStore interface {
	Get(ctx context.Context, id string) (entities.Agent, error)
}

// ChatService runs the charged question/answer turn. It owns the order of
// operations: free fast paths, quota charge, clarification composition,
// backend call, reply classification, refund, persistence.
type ChatService struct {
	sessions   *SessionService
	ledger     *QuotaLedger
	classifier Classifier
	answerer   interfaces.Answerer
	catalog    interfaces.ModelCatalog
	agents     AgentStore
	bridge     *IdentityBridge
	guard      *infrastructure.SendGuard
	log        *slog.Logger
}

func NewChatService(
	sessions *SessionService,
	ledger *QuotaLedger,
	classifier Classifier,
	answerer interfaces.Answerer,
	catalog interfaces.ModelCatalog,
	agents AgentStore,
	bridge *IdentityBridge,
	guard *infrastructure.SendGuard,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		sessions:   sessions,
		ledger:     ledger,
		classifier: classifier,
		answerer:   answerer,
		catalog:    catalog,
		agents:     agents,
		bridge:     bridge,
		guard:      guard,
		log:        log,
	}
}

// SendTurn appends the user message to the session, runs the pipeline and
// returns the updated session. Only one turn may run per session at a time.
func (c *ChatService) SendTurn(ctx context.Context, user entities.User, sessionID, text string) (entities.ChatSession, error) {
	if !c.guard.TryAcquire(sessionID) {
		return entities.ChatSession{}, ErrTurnInFlight
	}
	defer c.guard.Release(sessionID)

	sess, err := c.loadOrCreate(ctx, user.ID, sessionID)
	if err != nil {
		return entities.ChatSession{}, err
	}

	now := time.Now().UTC()
	sess.Messages = append(sess.Messages, entities.Message{
		ID:        uuid.NewString(),
		Role:      entities.RoleUser,
		Text:      text,
		Timestamp: now,
	})
	sess.LastMessageAt = now

	// Free fast paths reply without touching the ledger.
	switch {
	case c.classifier.IsCatalogIntent(text):
		reply, err := c.catalogReply(ctx, sess.AgentID)
		if err != nil {
			c.log.Warn("catalog lookup failed", "session_id", sess.ID, "error", err)
			reply = retryReply
		}
		return c.finish(ctx, sess, reply)
	case c.classifier.IsGreetingOnly(text):
		return c.finish(ctx, sess, greetingReply)
	case sess.KnownModel == "" && sess.PendingUserQuestion == "" && c.classifier.IsTechnicalWithoutModel(text):
		sess.PendingUserQuestion = text
		return c.finish(ctx, sess, askModelReply)
	}

	allowed, status, err := c.ledger.Consume(ctx, user.ID, user.Plan)
	if err != nil {
		return entities.ChatSession{}, err
	}
	if !allowed {
		return c.finish(ctx, sess, blockedReply(status))
	}

	question := text
	if sess.PendingUserQuestion != "" && c.classifier.IsModelOnly(text) {
		question = sess.PendingUserQuestion + "\n\nModelo informado: " + text
		sess.KnownModel = strings.TrimSpace(text)
		sess.PendingUserQuestion = ""
	}

	answer, err := c.ask(ctx, sess, question)
	if err != nil {
		// Any backend failure refunds the charge.
		if rerr := c.ledger.Refund(ctx, user.ID, user.Plan); rerr != nil {
			c.log.Error("refund after backend failure failed", "user_id", user.ID, "error", rerr)
		}
		c.log.Warn("backend ask failed", "session_id", sess.ID, "error", err)
		return c.finish(ctx, sess, retryReply)
	}

	reply := answer.Text
	outcome := c.classifier.ClassifyReply(reply)
	if outcome == NeedsClarification && len(strings.Fields(reply)) >= clarificationAnswerLimit {
		outcome = Answered
	}
	if outcome.Refundable() {
		if rerr := c.ledger.Refund(ctx, user.ID, user.Plan); rerr != nil {
			c.log.Error("refund failed", "user_id", user.ID, "outcome", outcome.String(), "error", rerr)
		}
	}
	switch outcome {
	case NeedsClarification:
		if sess.PendingUserQuestion == "" {
			sess.PendingUserQuestion = question
		}
	case Degenerate:
		reply = retryReply
	}

	if sess.Title == "" && outcome == Answered {
		sess.Title = deriveTitle(question)
	}
	return c.finish(ctx, sess, reply)
}

// Respond answers one message from an external channel. External IDs are
// mapped to stable user and session UUIDs through the identity bridge and
// metered on the free plan.
func (c *ChatService) Respond(ctx context.Context, externalID, text string) (string, error) {
	userID, err := c.bridge.Resolve(ctx, externalID)
	if err != nil {
		return "", err
	}
	sessionID, err := c.bridge.Resolve(ctx, externalID+":session")
	if err != nil {
		return "", err
	}
	user := entities.User{ID: userID, Plan: "free", Status: entities.StatusActive}
	sess, err := c.SendTurn(ctx, user, sessionID, text)
	if err != nil {
		return "", err
	}
	if len(sess.Messages) == 0 {
		return "", fmt.Errorf("empty session after turn")
	}
	return sess.Messages[len(sess.Messages)-1].Text, nil
}

func (c *ChatService) loadOrCreate(ctx context.Context, userID, sessionID string) (entities.ChatSession, error) {
	sess, err := c.sessions.Get(ctx, sessionID)
	if errors.Is(err, interfaces.ErrSessionNotFound) {
		return entities.ChatSession{ID: sessionID, UserID: userID}, nil
	}
	if err != nil {
		return entities.ChatSession{}, err
	}
	if sess.UserID != userID {
		return entities.ChatSession{}, interfaces.ErrSessionNotFound
	}
	return sess, nil
}

func (c *ChatService) ask(ctx context.Context, sess entities.ChatSession, question string) (entities.Answer, error) {
	askCtx := entities.AskContext{}
	if sess.AgentID != "" {
		agent, err := c.agents.Get(ctx, sess.AgentID)
		if err != nil {
			c.log.Warn("agent lookup failed, asking without persona", "agent_id", sess.AgentID, "error", err)
		} else {
			askCtx.SystemInstruction = agent.SystemInstruction
			askCtx.BrandFilter = agent.BrandName
		}
	}
	// History excludes the user message just appended.
	if n := len(sess.Messages); n > 1 {
		start := n - 1 - 10
		if start < 0 {
			start = 0
		}
		askCtx.History = sess.Messages[start : n-1]
	}
	return c.answerer.Ask(ctx, question, askCtx)
}

func (c *ChatService) catalogReply(ctx context.Context, agentID string) (string, error) {
	brandName := ""
	if agentID != "" {
		if agent, err := c.agents.Get(ctx, agentID); err == nil {
			brandName = agent.BrandName
		}
	}
	if brandName == "" {
		brands, err := c.catalog.ListBrands(ctx)
		if err != nil {
			return "", err
		}
		names := make([]string, 0, len(brands))
		for _, b := range brands {
			names = append(names, b.Name)
		}
		return "Marcas disponíveis: " + strings.Join(names, ", ") + ". Escolha uma marca para ver os modelos.", nil
	}
	models, err := c.catalog.ListModelsByBrand(ctx, brandName)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "Ainda não tenho modelos cadastrados para " + brandName + ".", nil
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return "Modelos de " + brandName + " disponíveis: " + strings.Join(names, ", ") + ".", nil
}

// finish appends the model reply, refreshes the header fields and saves.
func (c *ChatService) finish(ctx context.Context, sess entities.ChatSession, reply string) (entities.ChatSession, error) {
	now := time.Now().UTC()
	sess.Messages = append(sess.Messages, entities.Message{
		ID:        uuid.NewString(),
		Role:      entities.RoleAssistant,
		Text:      reply,
		Timestamp: now,
	})
	sess.LastMessageAt = now
	sess.Preview = truncate(reply, 120)
	if err := c.sessions.Save(ctx, sess); err != nil {
		return entities.ChatSession{}, err
	}
	return sess, nil
}

func blockedReply(status entities.QuotaStatus) string {
	h := status.SecondsUntilReset / 3600
	m := (status.SecondsUntilReset % 3600) / 60
	return fmt.Sprintf("Você atingiu o limite de consultas do seu plano. Nova consulta disponível em %dh%02dmin.", h, m)
}

func deriveTitle(question string) string {
	title := strings.TrimSpace(question)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	return truncate(title, 48)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
