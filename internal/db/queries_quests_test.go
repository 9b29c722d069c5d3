package db

import (
	"errors"
	"testing"

	"github.com/acolytehq/acolyte/internal/types"
)

func TestQuestLifecycle(t *testing.T) {
	conn := openTestDB(t)

	quest, err := CreateQuest(conn, "", "refactor auth", "", []string{"@leader", "@worker"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if quest.Status != types.QuestStatusWorking {
		t.Fatalf("expected working, got %s", quest.Status)
	}
	if quest.CurrentAgent == nil || *quest.CurrentAgent != "@leader" {
		t.Fatalf("expected leader to hold the turn, got %v", quest.CurrentAgent)
	}
	if len(quest.Broadcast) != 0 {
		t.Fatalf("expected empty broadcast, got %d", len(quest.Broadcast))
	}
	if quest.Context.Leader != "@leader" || quest.Context.Mission != "refactor auth" {
		t.Fatalf("unexpected context: %+v", quest.Context)
	}

	// Leader delegates. Turn moves, status flips to waiting.
	quest, err = SendMessage(conn, quest.ID, "@leader", "@worker", "extract the token layer")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if quest.Status != types.QuestStatusWaiting {
		t.Fatalf("expected waiting, got %s", quest.Status)
	}
	if *quest.CurrentAgent != "@worker" {
		t.Fatalf("expected worker to hold the turn, got %s", *quest.CurrentAgent)
	}
	if len(quest.Broadcast) != 1 {
		t.Fatalf("expected 1 broadcast entry, got %d", len(quest.Broadcast))
	}

	// The worker reading the conversation implicitly accepts.
	accepted, err := AcceptIfWaiting(conn, quest.ID, "@worker")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !accepted {
		t.Fatal("expected acceptance transition")
	}
	quest, _ = GetQuest(conn, quest.ID)
	if quest.Status != types.QuestStatusWorking {
		t.Fatalf("expected working after accept, got %s", quest.Status)
	}

	// Worker reports back.
	quest, err = SendMessage(conn, quest.ID, "@worker", "@leader", "token layer extracted")
	if err != nil {
		t.Fatalf("send reply: %v", err)
	}
	if quest.Status != types.QuestStatusWaiting || *quest.CurrentAgent != "@leader" {
		t.Fatalf("expected waiting on leader, got %s / %v", quest.Status, quest.CurrentAgent)
	}
	if len(quest.Broadcast) != 2 {
		t.Fatalf("expected 2 broadcast entries, got %d", len(quest.Broadcast))
	}

	// Leader completes.
	quest, err = CompleteQuest(conn, quest.ID, "auth refactored", "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if quest.Status != types.QuestStatusCompleted {
		t.Fatalf("expected completed, got %s", quest.Status)
	}
	if quest.CurrentAgent != nil {
		t.Fatalf("expected turn cleared, got %s", *quest.CurrentAgent)
	}
	if quest.Result == nil || quest.Result.Mission != "refactor auth" || quest.Result.Summary != "auth refactored" {
		t.Fatalf("unexpected result: %+v", quest.Result)
	}
	if len(quest.Result.Team) != 2 {
		t.Fatalf("unexpected team: %v", quest.Result.Team)
	}

	// Completed quests are frozen forever.
	if _, err := SendMessage(conn, quest.ID, "@leader", "@worker", "one more"); err == nil {
		t.Fatal("expected rejection on completed quest")
	}
	var violation *ViolationError
	_, err = CompleteQuest(conn, quest.ID, "again", "")
	if !errors.As(err, &violation) {
		t.Fatalf("expected ViolationError, got %v", err)
	}
}

func TestQuestRequiresTwoRecruits(t *testing.T) {
	conn := openTestDB(t)

	if _, err := CreateQuest(conn, "", "solo", "", []string{"@only"}); err == nil {
		t.Fatal("expected error for single recruit")
	}
	if _, err := CreateQuest(conn, "", "", "", []string{"@a", "@b"}); err == nil {
		t.Fatal("expected error for empty mission")
	}
}

func TestSendMessageTurnRule(t *testing.T) {
	conn := openTestDB(t)

	quest, err := CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	// The worker does not hold the turn yet.
	_, err = SendMessage(conn, quest.ID, "@worker", "@leader", "premature")
	var violation *ViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected ViolationError, got %v", err)
	}

	// Rejection leaves the quest unchanged.
	after, _ := GetQuest(conn, quest.ID)
	if len(after.Broadcast) != 0 || *after.CurrentAgent != "@leader" || after.Status != types.QuestStatusWorking {
		t.Fatalf("rejected message mutated the quest: %+v", after)
	}

	// Messaging an agent outside the roster is rejected too.
	if _, err := SendMessage(conn, quest.ID, "@leader", "@stranger", "hi"); err == nil {
		t.Fatal("expected rejection for unrecruited recipient")
	}
}

func TestAcceptIfWaitingOnlyForTurnHolder(t *testing.T) {
	conn := openTestDB(t)

	quest, err := CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	// Not waiting yet, no transition.
	accepted, err := AcceptIfWaiting(conn, quest.ID, "@leader")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted {
		t.Fatal("expected no transition while working")
	}

	if _, err := SendMessage(conn, quest.ID, "@leader", "@worker", "go"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Someone else reading does not accept on the worker's behalf.
	accepted, err = AcceptIfWaiting(conn, quest.ID, "@leader")
	if err != nil {
		t.Fatalf("accept as leader: %v", err)
	}
	if accepted {
		t.Fatal("expected no transition for a non-holder")
	}
}

func TestAcceptDoesNotTouchReviewing(t *testing.T) {
	conn := openTestDB(t)

	quest, err := CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if _, err := SetStatus(conn, quest.ID, types.QuestStatusReviewing); err != nil {
		t.Fatalf("set reviewing: %v", err)
	}

	accepted, err := AcceptIfWaiting(conn, quest.ID, "@leader")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted {
		t.Fatal("reviewing must not auto-transition on read")
	}
}

func TestSetStatusTerminalFreeze(t *testing.T) {
	conn := openTestDB(t)

	quest, err := CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	failed, err := SetStatus(conn, quest.ID, types.QuestStatusFailed)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if failed.CurrentAgent != nil {
		t.Fatal("expected terminal status to clear the turn")
	}

	// Same terminal value is an idempotent no-op.
	if _, err := SetStatus(conn, quest.ID, types.QuestStatusFailed); err != nil {
		t.Fatalf("idempotent set: %v", err)
	}

	// Any other value is frozen out.
	var violation *ViolationError
	_, err = SetStatus(conn, quest.ID, types.QuestStatusWorking)
	if !errors.As(err, &violation) {
		t.Fatalf("expected ViolationError, got %v", err)
	}

	if _, err := SetStatus(conn, quest.ID, "nonsense"); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestReassignTurn(t *testing.T) {
	conn := openTestDB(t)

	quest, err := CreateQuest(conn, "", "m", "", []string{"@leader", "@a", "@b"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	// Only the holder may reassign.
	if _, err := ReassignTurn(conn, quest.ID, "@a", "@b"); err == nil {
		t.Fatal("expected rejection for non-holder")
	}

	quest, err = ReassignTurn(conn, quest.ID, "@leader", "@b")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if *quest.CurrentAgent != "@b" {
		t.Fatalf("expected @b to hold the turn, got %s", *quest.CurrentAgent)
	}
	// Reassignment moves the turn without a broadcast entry.
	if len(quest.Broadcast) != 0 {
		t.Fatalf("expected no broadcast entries, got %d", len(quest.Broadcast))
	}
}

func TestAppendNoteKeepsTurn(t *testing.T) {
	conn := openTestDB(t)

	quest, err := CreateQuest(conn, "", "m", "", []string{"@leader", "@worker"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}

	quest, err = AppendNote(conn, quest.ID, "@leader", "entering review")
	if err != nil {
		t.Fatalf("append note: %v", err)
	}
	if len(quest.Broadcast) != 1 || quest.Broadcast[0].To != "all" {
		t.Fatalf("unexpected broadcast: %+v", quest.Broadcast)
	}
	if *quest.CurrentAgent != "@leader" {
		t.Fatal("note must not move the turn")
	}
}

func TestListQuestsForAgent(t *testing.T) {
	conn := openTestDB(t)

	if _, err := CreateQuest(conn, "", "m1", "", []string{"@a", "@b"}); err != nil {
		t.Fatalf("create quest 1: %v", err)
	}
	if _, err := CreateQuest(conn, "", "m2", "", []string{"@c", "@d"}); err != nil {
		t.Fatalf("create quest 2: %v", err)
	}

	quests, err := ListQuestsForAgent(conn, "@b")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(quests) != 1 || quests[0].Mission != "m1" {
		t.Fatalf("unexpected quests: %+v", quests)
	}

	none, err := ListQuestsForAgent(conn, "@nobody")
	if err != nil {
		t.Fatalf("list none: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no quests, got %d", len(none))
	}
}

func TestHasActiveQuest(t *testing.T) {
	conn := openTestDB(t)

	active, err := HasActiveQuest(conn)
	if err != nil {
		t.Fatalf("has active: %v", err)
	}
	if active {
		t.Fatal("expected no active quest on empty store")
	}

	quest, err := CreateQuest(conn, "", "m", "", []string{"@a", "@b"})
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if active, _ = HasActiveQuest(conn); !active {
		t.Fatal("expected active quest")
	}

	if _, err := CompleteQuest(conn, quest.ID, "", ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if active, _ = HasActiveQuest(conn); active {
		t.Fatal("expected no active quest after completion")
	}
}
