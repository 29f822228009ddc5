package cache

import (
	"testing"

	"github.com/Flojomojo/mistral-chat/internal/session"
)

func TestKeyDeterministic(t *testing.T) {
	messages := []session.Message{
		{Role: session.RoleUser, Content: "hello"},
	}

	k1 := Key("mistral-small", messages)
	k2 := Key("mistral-small", messages)
	if k1 != k2 {
		t.Error("same model and messages must produce the same key")
	}
}

func TestKeyVariesWithModel(t *testing.T) {
	messages := []session.Message{
		{Role: session.RoleUser, Content: "hello"},
	}

	if Key("mistral-small", messages) == Key("mistral-medium", messages) {
		t.Error("different models must produce different keys")
	}
}

func TestKeyVariesWithContent(t *testing.T) {
	a := []session.Message{{Role: session.RoleUser, Content: "hello"}}
	b := []session.Message{{Role: session.RoleUser, Content: "goodbye"}}

	if Key("mistral-small", a) == Key("mistral-small", b) {
		t.Error("different messages must produce different keys")
	}
}

func TestGetPut(t *testing.T) {
	c := New()
	key := Key("mistral-small", []session.Message{{Role: session.RoleUser, Content: "hi"}})

	if _, ok := c.Get(key); ok {
		t.Error("expected miss on empty cache")
	}

	c.Put(key, "cached reply")

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got != "cached reply" {
		t.Errorf("expected cached reply, got %q", got)
	}
}
