package internal

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

var testEpoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// newTestStores returns stores over a fresh MemoryStore with alice logged in,
// a deterministic clock and sequential ids.
func newTestStores(t *testing.T) (*MemoryStore, *SessionStore, *DialogStore) {
	t.Helper()
	kv := NewMemoryStore()
	session := NewSessionStore(kv, newStubAuthenticator())
	dialogs := NewDialogStore(kv, session)
	dialogs.now = NewTestClock(testEpoch)
	n := 0
	dialogs.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	if _, err := session.Login(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	return kv, session, dialogs
}

func TestDialogStore_AddMessageCreatesDialog(t *testing.T) {
	kv, _, d := newTestStores(t)

	result, err := d.AddMessage("", "hello", MessageRoleUser)
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if !result.CreatedNewDialog || result.DialogID == "" || result.Message == nil {
		t.Fatalf("AddMessage() = %+v", result)
	}
	if result.Message.DialogID != result.DialogID || result.Message.Role != MessageRoleUser || result.Message.Content != "hello" {
		t.Errorf("message = %+v", result.Message)
	}

	dialogs := d.Dialogs()
	if len(dialogs) != 1 || dialogs[0].Title != "hello" || dialogs[0].UserID != "1" {
		t.Fatalf("Dialogs() = %+v", dialogs)
	}

	full, ok, err := d.GetDialogWithMessages(result.DialogID)
	if err != nil || !ok || len(full.Messages) != 1 {
		t.Fatalf("GetDialogWithMessages() = %+v, %v, %v", full, ok, err)
	}

	if _, ok, _ := kv.Get("dialogs:1"); !ok {
		t.Error("dialog list not persisted")
	}
	if _, ok, _ := kv.Get("messages:" + result.DialogID); !ok {
		t.Error("messages not persisted")
	}
}

func TestDialogStore_AddMessageUnknownIDWithUserRole(t *testing.T) {
	_, _, d := newTestStores(t)

	result, err := d.AddMessage("does-not-exist", "hello", MessageRoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if !result.CreatedNewDialog || result.DialogID == "does-not-exist" {
		t.Errorf("AddMessage() = %+v, want a new dialog", result)
	}
}

func TestDialogStore_AddMessageAppends(t *testing.T) {
	_, _, d := newTestStores(t)
	first, err := d.AddMessage("", "hello", MessageRoleUser)
	if err != nil {
		t.Fatal(err)
	}

	reply, err := d.AddMessage(first.DialogID, "hi", MessageRoleAssistant)
	if err != nil {
		t.Fatal(err)
	}
	if reply.CreatedNewDialog || reply.DialogID != first.DialogID {
		t.Errorf("AddMessage() = %+v", reply)
	}

	full, _, _ := d.GetDialogWithMessages(first.DialogID)
	var contents []string
	for _, m := range full.Messages {
		contents = append(contents, string(m.Role)+":"+m.Content)
	}
	if want := []string{"user:hello", "assistant:hi"}; !reflect.DeepEqual(contents, want) {
		t.Errorf("messages = %v, want %v", contents, want)
	}
	if !full.Messages[1].Timestamp.After(full.Messages[0].Timestamp) {
		t.Error("timestamps should increase")
	}
	if !full.UpdatedAt.After(full.CreatedAt) {
		t.Error("appending should bump UpdatedAt")
	}
	if len(d.Dialogs()) != 1 {
		t.Error("appending must not create dialogs")
	}
}

func TestDialogStore_AssistantMessageRequiresDialog(t *testing.T) {
	kv, _, d := newTestStores(t)

	if _, err := d.AddMessage("", "orphan", MessageRoleAssistant); !errors.Is(err, ErrDialogRequired) {
		t.Errorf("empty id error = %v, want ErrDialogRequired", err)
	}
	if _, err := d.AddMessage("missing", "orphan", MessageRoleAssistant); !errors.Is(err, ErrDialogNotFound) {
		t.Errorf("unknown id error = %v, want ErrDialogNotFound", err)
	}

	if len(d.Dialogs()) != 0 {
		t.Error("failed appends must not create dialogs")
	}
	keys, _ := kv.Keys("messages:")
	if len(keys) != 0 {
		t.Errorf("failed appends wrote messages: %v", keys)
	}
}

func TestDialogStore_CreateDialog(t *testing.T) {
	_, _, d := newTestStores(t)

	long := strings.Repeat("x", 80)
	first, err := d.CreateDialog("first")
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.CreateDialog(long)
	if err != nil {
		t.Fatal(err)
	}

	if second.Title != strings.Repeat("x", 50)+"..." {
		t.Errorf("title = %q", second.Title)
	}
	if !second.CreatedAt.Equal(second.UpdatedAt) {
		t.Error("a new dialog has equal created and updated times")
	}

	dialogs := d.Dialogs()
	if len(dialogs) != 2 || dialogs[0].ID != second.ID || dialogs[1].ID != first.ID {
		t.Errorf("newest dialog should come first: %+v", dialogs)
	}

	if full, ok, err := d.GetDialogWithMessages(first.ID); err != nil || !ok || len(full.Messages) != 0 {
		t.Errorf("new dialog should have no messages: %+v, %v, %v", full, ok, err)
	}
}

func TestDialogStore_NoActiveUser(t *testing.T) {
	_, session, d := newTestStores(t)
	if err := session.Logout(); err != nil {
		t.Fatal(err)
	}

	if _, err := d.CreateDialog("hello"); !errors.Is(err, ErrNoActiveUser) {
		t.Errorf("CreateDialog() error = %v, want ErrNoActiveUser", err)
	}
	if _, err := d.AddMessage("", "hello", MessageRoleUser); !errors.Is(err, ErrNoActiveUser) {
		t.Errorf("AddMessage() error = %v, want ErrNoActiveUser", err)
	}
	if len(d.Dialogs()) != 0 {
		t.Error("no dialogs without a session")
	}
}

func TestDialogStore_UpdateDialog(t *testing.T) {
	_, _, d := newTestStores(t)
	dialog, err := d.CreateDialog("hello")
	if err != nil {
		t.Fatal(err)
	}

	title := "Renamed"
	if err := d.UpdateDialog(dialog.ID, DialogUpdate{Title: &title}); err != nil {
		t.Fatal(err)
	}
	got := d.Dialogs()[0]
	if got.Title != "Renamed" || !got.UpdatedAt.After(dialog.UpdatedAt) || !got.CreatedAt.Equal(dialog.CreatedAt) {
		t.Errorf("UpdateDialog() result = %+v", got)
	}

	// empty update only refreshes the timestamp
	if err := d.UpdateDialog(dialog.ID, DialogUpdate{}); err != nil {
		t.Fatal(err)
	}
	if d.Dialogs()[0].Title != "Renamed" {
		t.Error("nil title must leave the title alone")
	}

	before := d.Dialogs()
	if err := d.UpdateDialog("missing", DialogUpdate{Title: &title}); err != nil {
		t.Errorf("unknown id error = %v", err)
	}
	if !reflect.DeepEqual(before, d.Dialogs()) {
		t.Error("unknown id changed the list")
	}
}

func TestDialogStore_DeleteDialog(t *testing.T) {
	kv, _, d := newTestStores(t)
	keep, _ := d.AddMessage("", "keep", MessageRoleUser)
	drop, _ := d.AddMessage("", "drop", MessageRoleUser)

	if err := d.DeleteDialog(drop.DialogID); err != nil {
		t.Fatal(err)
	}
	dialogs := d.Dialogs()
	if len(dialogs) != 1 || dialogs[0].ID != keep.DialogID {
		t.Errorf("Dialogs() = %+v", dialogs)
	}
	if _, ok, _ := kv.Get("messages:" + drop.DialogID); ok {
		t.Error("messages of the deleted dialog remain")
	}
	if _, ok, _ := kv.Get("messages:" + keep.DialogID); !ok {
		t.Error("messages of the kept dialog were removed")
	}
	if _, ok, _ := d.GetDialogWithMessages(drop.DialogID); ok {
		t.Error("deleted dialog is still readable")
	}

	if err := d.DeleteDialog("missing"); err != nil {
		t.Errorf("deleting an unknown id error = %v", err)
	}
}

func TestDialogStore_GetDialogWithMessagesIsReadOnly(t *testing.T) {
	kv, _, d := newTestStores(t)
	res, _ := d.AddMessage("", "hello", MessageRoleUser)

	before, _, _ := kv.Get("dialogs:1")
	for i := 0; i < 3; i++ {
		if _, ok, err := d.GetDialogWithMessages(res.DialogID); !ok || err != nil {
			t.Fatal(ok, err)
		}
	}
	after, _, _ := kv.Get("dialogs:1")
	if before != after {
		t.Error("reading a dialog modified the stored list")
	}

	if got, ok, err := d.GetDialogWithMessages("missing"); got != nil || ok || err != nil {
		t.Errorf("unknown id = %+v, %v, %v", got, ok, err)
	}
}

func TestDialogStore_ScopedToSessionUser(t *testing.T) {
	_, session, d := newTestStores(t)
	aliceDialog, _ := d.AddMessage("", "alice's question", MessageRoleUser)

	if _, err := session.Login(context.Background(), "bob"); err != nil {
		t.Fatal(err)
	}
	if got := d.Dialogs(); len(got) != 0 {
		t.Errorf("bob sees alice's dialogs: %+v", got)
	}
	if _, ok, _ := d.GetDialogWithMessages(aliceDialog.DialogID); ok {
		t.Error("bob can read alice's dialog")
	}
	if _, err := d.AddMessage(aliceDialog.DialogID, "sneaky", MessageRoleAssistant); !errors.Is(err, ErrDialogNotFound) {
		t.Errorf("bob appended to alice's dialog: %v", err)
	}

	if _, err := session.Login(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	if got := d.Dialogs(); len(got) != 1 || got[0].ID != aliceDialog.DialogID {
		t.Errorf("alice's dialogs after switching back = %+v", got)
	}
}

func TestDialogStore_PersistsAcrossInstances(t *testing.T) {
	kv, session, d := newTestStores(t)
	res, _ := d.AddMessage("", "hello", MessageRoleUser)
	if _, err := d.AddMessage(res.DialogID, "hi", MessageRoleAssistant); err != nil {
		t.Fatal(err)
	}

	reopened := NewDialogStore(kv, NewSessionStore(kv, nil))
	full, ok, err := reopened.GetDialogWithMessages(res.DialogID)
	if err != nil || !ok || len(full.Messages) != 2 {
		t.Fatalf("reopened store = %+v, %v, %v", full, ok, err)
	}
	if session.Current().ID != full.UserID {
		t.Errorf("UserID = %q", full.UserID)
	}
}

func TestDialogStore_CorruptList(t *testing.T) {
	kv := NewMemoryStore()
	_ = kv.Set(sessionKey, `{"id":"1","username":"alice","role":"employee","isAuthenticated":true}`)
	_ = kv.Set("dialogs:1", `{broken`)

	d := NewDialogStore(kv, NewSessionStore(kv, nil))
	if len(d.Dialogs()) != 0 {
		t.Error("corrupt list should load as empty")
	}
	var parseErr *ParseError
	if err := d.LoadDialogs(); !errors.As(err, &parseErr) {
		t.Errorf("LoadDialogs() error = %v, want ParseError", err)
	}
}

func TestDialogStore_AppendsRoundTripInOrder(t *testing.T) {
	_, _, d := newTestStores(t)
	first, err := d.AddMessage("", "m0", MessageRoleUser)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"user:m0"}
	for i := 1; i < 10; i++ {
		role := MessageRoleUser
		if i%2 == 1 {
			role = MessageRoleAssistant
		}
		content := fmt.Sprintf("m%d", i)
		res, err := d.AddMessage(first.DialogID, content, role)
		if err != nil {
			t.Fatal(err)
		}
		if res.CreatedNewDialog {
			t.Fatalf("append %d created a dialog", i)
		}
		want = append(want, string(role)+":"+content)
	}

	full, _, _ := d.GetDialogWithMessages(first.DialogID)
	var got []string
	for _, m := range full.Messages {
		got = append(got, string(m.Role)+":"+m.Content)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
	if len(d.Dialogs()) != 1 {
		t.Errorf("got %d dialogs, want 1", len(d.Dialogs()))
	}
}

func TestDialogStore_DeleteTwice(t *testing.T) {
	_, _, d := newTestStores(t)
	res, _ := d.AddMessage("", "hello", MessageRoleUser)

	for i := 0; i < 2; i++ {
		if err := d.DeleteDialog(res.DialogID); err != nil {
			t.Fatalf("delete #%d error = %v", i+1, err)
		}
	}
	if len(d.Dialogs()) != 0 {
		t.Error("dialog still listed")
	}
}

func TestDialogStore_SQLiteBackend(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	session := NewSessionStore(store, newStubAuthenticator())
	d := NewDialogStore(store, session)
	if _, err := session.Login(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}

	res, err := d.AddMessage("", "hello", MessageRoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.DeleteDialog(res.DialogID); err != nil {
		t.Fatal(err)
	}
	keys, err := store.Keys("messages:")
	if err != nil || len(keys) != 0 {
		t.Errorf("messages left after delete: %v, %v", keys, err)
	}
}

func TestDialogStore_FailedFirstMessageRemovesDialog(t *testing.T) {
	store := newFailingStore("messages:")
	session := NewSessionStore(store, newStubAuthenticator())
	d := NewDialogStore(store, session)
	if _, err := session.Login(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	store.failing.Store(true)

	if _, err := d.AddMessage("", "hello", MessageRoleUser); !errors.Is(err, store.err) {
		t.Fatalf("AddMessage() error = %v, want %v", err, store.err)
	}
	if len(d.Dialogs()) != 0 {
		t.Errorf("dialogs = %+v, want none", d.Dialogs())
	}

	var persisted []Dialog
	if _, err := loadJSON(store, dialogsKey("1"), &persisted); err != nil || len(persisted) != 0 {
		t.Errorf("persisted dialogs = %+v, %v", persisted, err)
	}

	// an existing dialog survives a failed append
	store.failing.Store(false)
	res, err := d.AddMessage("", "kept", MessageRoleUser)
	if err != nil {
		t.Fatal(err)
	}
	store.failing.Store(true)
	if _, err := d.AddMessage(res.DialogID, "lost", MessageRoleUser); err == nil {
		t.Fatal("AddMessage() should fail")
	}
	if len(d.Dialogs()) != 1 {
		t.Errorf("got %d dialogs, want 1", len(d.Dialogs()))
	}
}
