package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"elevex/internal/entities"
	"elevex/internal/infrastructure"
	"elevex/internal/interfaces"
)

type chatFixture struct {
	svc      *ChatService
	ledger   *QuotaLedger
	windows  *fakeWindowStore
	answerer *fakeAnswerer
	local    *fakeLocalCache
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	windows := newFakeWindowStore()
	resolver := NewPolicyResolver(newFakeOverrideStore(), time.Minute)
	ledger := NewQuotaLedger(windows, resolver)
	local := newFakeLocalCache()
	bridge := NewIdentityBridge(newFakeMappingStore())
	sessions := NewSessionService(local, newFakeRemoteStore(), bridge, time.Second, discardLogger())
	answerer := &fakeAnswerer{answer: entities.Answer{
		Text:           "Verifique o circuito de segurança da porta e o ajuste do trinco conforme o manual do fabricante.",
		DocumentsFound: 3,
	}}
	catalog := &fakeCatalog{
		brands: []entities.Brand{{ID: "b1", Name: "Atlas"}},
		models: map[string][]entities.Model{
			"Atlas": {{ID: "m1", BrandID: "b1", Name: "ACH-1"}, {ID: "m2", BrandID: "b1", Name: "ACH-2"}},
		},
	}
	agents := &fakeAgentStore{agents: map[string]entities.Agent{
		"a1": {ID: "a1", Name: "Atlas", BrandName: "Atlas", SystemInstruction: "foco em Atlas"},
	}}
	svc := NewChatService(sessions, ledger, NewRuleClassifier(), answerer, catalog, agents, bridge, infrastructure.NewSendGuard(), discardLogger())
	return &chatFixture{svc: svc, ledger: ledger, windows: windows, answerer: answerer, local: local}
}

func testUser(plan string) entities.User {
	return entities.User{ID: "u1", Plan: plan, Status: entities.StatusActive}
}

func (f *chatFixture) used(t *testing.T) int {
	t.Helper()
	w, _, err := f.windows.Get(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	return w.Used
}

func lastReply(t *testing.T, sess entities.ChatSession) string {
	t.Helper()
	if len(sess.Messages) == 0 {
		t.Fatal("session has no messages")
	}
	last := sess.Messages[len(sess.Messages)-1]
	if last.Role != entities.RoleAssistant {
		t.Fatalf("last message role = %s", last.Role)
	}
	return last.Text
}

func TestGreetingDoesNotCharge(t *testing.T) {
	f := newChatFixture(t)
	sess, err := f.svc.SendTurn(context.Background(), testUser("free"), "s1", "bom dia")
	if err != nil {
		t.Fatal(err)
	}
	if f.used(t) != 0 {
		t.Fatal("greeting charged a credit")
	}
	if len(f.answerer.asked) != 0 {
		t.Fatal("greeting reached the backend")
	}
	if !strings.Contains(lastReply(t, sess), "assistente") {
		t.Fatalf("unexpected greeting reply: %q", lastReply(t, sess))
	}
}

func TestCatalogIntentListsModelsWithoutCharge(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	sess := entities.ChatSession{ID: "s1", UserID: "u1", AgentID: "a1"}
	if err := f.local.Put(ctx, sess); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.SendTurn(ctx, testUser("free"), "s1", "quais modelos tem?")
	if err != nil {
		t.Fatal(err)
	}
	reply := lastReply(t, got)
	if !strings.Contains(reply, "ACH-1") || !strings.Contains(reply, "ACH-2") {
		t.Fatalf("catalog reply missing models: %q", reply)
	}
	if f.used(t) != 0 {
		t.Fatal("catalog listing charged a credit")
	}
}

func TestTechnicalWithoutModelAsksBeforeCharging(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SendTurn(ctx, testUser("free"), "s1", "a porta não fecha no térreo")
	if err != nil {
		t.Fatal(err)
	}
	if f.used(t) != 0 {
		t.Fatal("clarifying question charged a credit")
	}
	if sess.PendingUserQuestion != "a porta não fecha no térreo" {
		t.Fatalf("pending question = %q", sess.PendingUserQuestion)
	}
	if !strings.Contains(lastReply(t, sess), "modelo") {
		t.Fatal("reply should ask for the model")
	}
}

func TestModelOnlyFollowupComposesAndCharges(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	user := testUser("iniciante")

	if _, err := f.svc.SendTurn(ctx, user, "s1", "a porta não fecha no térreo"); err != nil {
		t.Fatal(err)
	}
	sess, err := f.svc.SendTurn(ctx, user, "s1", "gen2")
	if err != nil {
		t.Fatal(err)
	}

	if f.used(t) != 1 {
		t.Fatalf("used = %d, want exactly one charge", f.used(t))
	}
	if len(f.answerer.asked) != 1 {
		t.Fatalf("backend asked %d times", len(f.answerer.asked))
	}
	question := f.answerer.asked[0]
	if !strings.Contains(question, "a porta não fecha no térreo") || !strings.Contains(question, "Modelo informado: gen2") {
		t.Fatalf("composed question = %q", question)
	}
	if sess.PendingUserQuestion != "" {
		t.Fatal("pending question must clear after composition")
	}
	if sess.KnownModel != "gen2" {
		t.Fatalf("known model = %q", sess.KnownModel)
	}
}

func TestFreePlanFirstTurnUsesItsSingleCredit(t *testing.T) {
	f := newChatFixture(t)

	sess, err := f.svc.SendTurn(context.Background(), testUser("free"), "s1", "qual o torque do parafuso do trinco no gen2?")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.answerer.asked) != 1 {
		t.Fatalf("backend asked %d times, want 1", len(f.answerer.asked))
	}
	if f.used(t) != 1 {
		t.Fatalf("used = %d, want 1", f.used(t))
	}
	if strings.Contains(lastReply(t, sess), "limite de consultas") {
		t.Fatalf("last credit of the window denied: %q", lastReply(t, sess))
	}
}

func TestExhaustedQuotaBlocksWithCountdown(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	user := testUser("free")

	if _, err := f.svc.SendTurn(ctx, user, "s1", "qual o torque do parafuso do trinco no gen2?"); err != nil {
		t.Fatal(err)
	}
	sess, err := f.svc.SendTurn(ctx, user, "s1", "e o ajuste da folga da porta no gen2?")
	if err != nil {
		t.Fatal(err)
	}

	if f.used(t) != 1 {
		t.Fatalf("used = %d after blocked turn", f.used(t))
	}
	if len(f.answerer.asked) != 1 {
		t.Fatal("blocked turn must not reach the backend")
	}
	if !strings.Contains(lastReply(t, sess), "limite de consultas") {
		t.Fatalf("blocked reply = %q", lastReply(t, sess))
	}
}

func TestBackendErrorRefundsAndKeepsTranscript(t *testing.T) {
	f := newChatFixture(t)
	f.answerer.err = interfaces.ErrAnswerTimeout
	ctx := context.Background()

	sess, err := f.svc.SendTurn(ctx, testUser("free"), "s1", "qual o torque do parafuso do trinco no gen2?")
	if err != nil {
		t.Fatal(err)
	}
	if f.used(t) != 0 {
		t.Fatal("failed turn kept its charge")
	}
	if !strings.Contains(lastReply(t, sess), "não foi descontada") {
		t.Fatalf("reply = %q", lastReply(t, sess))
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("transcript has %d messages", len(sess.Messages))
	}
}

func TestNotFoundReplyRefunds(t *testing.T) {
	f := newChatFixture(t)
	f.answerer.answer = entities.Answer{Text: "Não encontrei informações relevantes sobre esse equipamento na documentação indexada."}
	ctx := context.Background()

	sess, err := f.svc.SendTurn(ctx, testUser("free"), "s1", "qual o esquema elétrico do comando XO 508?")
	if err != nil {
		t.Fatal(err)
	}
	if f.used(t) != 0 {
		t.Fatal("not-found reply kept its charge")
	}
	if !strings.Contains(lastReply(t, sess), "Não encontrei") {
		t.Fatal("original reply text should reach the transcript")
	}
}

func TestClarifyingReplyRefundsAndStoresPending(t *testing.T) {
	f := newChatFixture(t)
	f.answerer.answer = entities.Answer{Text: "Para te ajudar, preciso do modelo exato do equipamento."}
	ctx := context.Background()

	question := "como configuro o tempo de fechamento automático no gen2?"
	sess, err := f.svc.SendTurn(ctx, testUser("free"), "s1", question)
	if err != nil {
		t.Fatal(err)
	}
	if f.used(t) != 0 {
		t.Fatal("clarifying reply kept its charge")
	}
	if sess.PendingUserQuestion != question {
		t.Fatalf("pending question = %q", sess.PendingUserQuestion)
	}
}

func TestLongAnswerAskingForModelKeepsCharge(t *testing.T) {
	f := newChatFixture(t)
	long := strings.Repeat("o procedimento depende da configuração instalada ", 10) + "mas preciso do modelo exato para confirmar."
	f.answerer.answer = entities.Answer{Text: long}
	ctx := context.Background()

	if _, err := f.svc.SendTurn(ctx, testUser("free"), "s1", "como regulo a porta do gen2?"); err != nil {
		t.Fatal(err)
	}
	if f.used(t) != 1 {
		t.Fatal("substantial answer should keep its charge even when it mentions the model")
	}
}

func TestDegenerateReplyRefundsAndSwapsText(t *testing.T) {
	f := newChatFixture(t)
	f.answerer.answer = entities.Answer{Text: "A placa LCB2 controla o..."}
	ctx := context.Background()

	sess, err := f.svc.SendTurn(ctx, testUser("free"), "s1", "qual a função da placa LCB2?")
	if err != nil {
		t.Fatal(err)
	}
	if f.used(t) != 0 {
		t.Fatal("degenerate reply kept its charge")
	}
	if !strings.Contains(lastReply(t, sess), "não foi descontada") {
		t.Fatalf("degenerate reply not replaced: %q", lastReply(t, sess))
	}
}

func TestAnsweredTurnSetsTitleOnce(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	user := testUser("iniciante")

	sess, err := f.svc.SendTurn(ctx, user, "s1", "qual o torque do parafuso do trinco no gen2?")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Title == "" {
		t.Fatal("first answered turn must set the title")
	}
	first := sess.Title

	sess, err = f.svc.SendTurn(ctx, user, "s1", "e qual a folga recomendada da porta no gen2?")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Title != first {
		t.Fatal("title must not change on later turns")
	}
}

func TestSecondTurnWhileInFlightIsRejected(t *testing.T) {
	f := newChatFixture(t)
	guard := infrastructure.NewSendGuard()
	f.svc.guard = guard

	if !guard.TryAcquire("s1") {
		t.Fatal("setup acquire failed")
	}
	defer guard.Release("s1")

	_, err := f.svc.SendTurn(context.Background(), testUser("free"), "s1", "oi")
	if !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("err = %v, want ErrTurnInFlight", err)
	}
}

func TestSessionOwnershipEnforced(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	if err := f.local.Put(ctx, entities.ChatSession{ID: "s1", UserID: "someone-else"}); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.SendTurn(ctx, testUser("free"), "s1", "oi")
	if !errors.Is(err, interfaces.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRespondMapsExternalIdentity(t *testing.T) {
	f := newChatFixture(t)
	reply, err := f.svc.Respond(context.Background(), "tg-12345", "bom dia")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "assistente") {
		t.Fatalf("reply = %q", reply)
	}
}
