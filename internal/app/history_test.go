package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"olive-chat-server/internal/model"
)

func historyFixture() *fakeMessageStore {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return &fakeMessageStore{messages: []model.Message{
		{ID: "1", UserID: "u", ConversationID: "conv-a", Text: "hello", CreatedAt: base},
		{ID: "2", UserID: "u", ConversationID: "conv-a", Text: "**Hi!** How can I help?", IsBot: true, CreatedAt: base.Add(time.Minute)},
		{ID: "3", UserID: "u", ConversationID: "conv-b", Text: "new topic", CreatedAt: base.Add(2 * time.Minute), ImageID: "img-1"},
		{ID: "4", UserID: "u", ConversationID: "conv-a", Text: "another question", CreatedAt: base.Add(3 * time.Minute)},
		{ID: "5", UserID: "other", ConversationID: "conv-c", Text: "not yours", CreatedAt: base.Add(4 * time.Minute)},
	}}
}

func TestListConversations_Grouping(t *testing.T) {
	svc := newTestService(historyFixture(), &fakeImageStore{}, &fakeGateway{ready: true}, nil)

	groups, err := svc.ListConversations("u")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(groups))
	}

	// First-seen order is preserved.
	if groups[0].ID != "conv-a" || groups[1].ID != "conv-b" {
		t.Errorf("group order wrong: %q, %q", groups[0].ID, groups[1].ID)
	}

	a := groups[0]
	if len(a.Messages) != 3 {
		t.Fatalf("conv-a should have 3 messages, got %d", len(a.Messages))
	}
	// Last message/timestamp track the newest entry of the group.
	if a.LastMessage != "another question" {
		t.Errorf("last_message = %q", a.LastMessage)
	}
	if !a.Timestamp.Equal(a.Messages[2].Timestamp) {
		t.Error("group timestamp is not the newest message timestamp")
	}

	if groups[1].Messages[0].ImageID != "img-1" {
		t.Error("image reference lost in view")
	}
}

func TestListConversations_RendersBotMessages(t *testing.T) {
	svc := newTestService(historyFixture(), &fakeImageStore{}, &fakeGateway{ready: true}, nil)

	groups, err := svc.ListConversations("u")
	if err != nil {
		t.Fatal(err)
	}
	bot := groups[0].Messages[1]
	if !bot.IsBot {
		t.Fatal("fixture order changed")
	}
	if !strings.Contains(bot.Message, "<strong>Hi!</strong>") {
		t.Errorf("bot message not rendered: %q", bot.Message)
	}
	if user := groups[0].Messages[0]; user.Message != "hello" {
		t.Errorf("user message altered: %q", user.Message)
	}
}

func TestListConversations_SkipsAlreadyHTML(t *testing.T) {
	store := &fakeMessageStore{messages: []model.Message{
		{ID: "1", UserID: "u", ConversationID: "c", Text: "<p>already rendered</p>", IsBot: true, CreatedAt: time.Now()},
	}}
	svc := newTestService(store, &fakeImageStore{}, &fakeGateway{ready: true}, nil)

	groups, err := svc.ListConversations("u")
	if err != nil {
		t.Fatal(err)
	}
	if got := groups[0].Messages[0].Message; got != "<p>already rendered</p>" {
		t.Errorf("already-HTML message re-converted: %q", got)
	}
}

func TestGetConversation_RendersBotMessages(t *testing.T) {
	svc := newTestService(historyFixture(), &fakeImageStore{}, &fakeGateway{ready: true}, nil)

	views, err := svc.GetConversation("u", "conv-a")
	if err != nil {
		t.Fatal(err)
	}
	bot := views[1]
	if !bot.IsBot {
		t.Fatal("fixture order changed")
	}
	if !strings.Contains(bot.Message, "<strong>Hi!</strong>") {
		t.Errorf("bot message not rendered: %q", bot.Message)
	}
	if user := views[0]; user.Message != "hello" {
		t.Errorf("user message altered: %q", user.Message)
	}
}

func TestGetConversation_OrderedSequence(t *testing.T) {
	svc := newTestService(historyFixture(), &fakeImageStore{}, &fakeGateway{ready: true}, nil)

	views, err := svc.GetConversation("u", "conv-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(views))
	}
	for i := 1; i < len(views); i++ {
		if views[i].Timestamp.Before(views[i-1].Timestamp) {
			t.Error("messages out of ascending order")
		}
	}
}

func TestListConversations_StoreErrorPropagates(t *testing.T) {
	store := &fakeMessageStore{listErr: errors.New("connection refused")}
	svc := newTestService(store, &fakeImageStore{}, &fakeGateway{ready: true}, nil)

	if _, err := svc.ListConversations("u"); err == nil {
		t.Error("expected store error to propagate to the web layer")
	}
}

func TestGroupByConversation_Empty(t *testing.T) {
	if groups := groupByConversation(nil); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}
