package statez

import (
	"testing"
	"time"
)

func TestKeyName(t *testing.T) {
	field := KeyName.Field("count")
	if field.Key().Name() != "name" {
		t.Errorf("expected key 'name', got %q", field.Key().Name())
	}
}

func TestKeyID(t *testing.T) {
	field := KeyID.Field(1)
	if field.Key().Name() != "id" {
		t.Errorf("expected key 'id', got %q", field.Key().Name())
	}
}

func TestKeyError(t *testing.T) {
	field := KeyError.Field("something went wrong")
	if field.Key().Name() != "error" {
		t.Errorf("expected key 'error', got %q", field.Key().Name())
	}
}

func TestKeyDelay(t *testing.T) {
	field := KeyDelay.Field(16 * time.Millisecond)
	if field.Key().Name() != "delay" {
		t.Errorf("expected key 'delay', got %q", field.Key().Name())
	}
}

func TestKeyChanged(t *testing.T) {
	field := KeyChanged.Field(3)
	if field.Key().Name() != "changed" {
		t.Errorf("expected key 'changed', got %q", field.Key().Name())
	}
}

func TestKeyNames(t *testing.T) {
	field := KeyNames.Field("a,b")
	if field.Key().Name() != "names" {
		t.Errorf("expected key 'names', got %q", field.Key().Name())
	}
}

func TestKeyManager(t *testing.T) {
	field := KeyManager.Field("0190a6e4")
	if field.Key().Name() != "manager" {
		t.Errorf("expected key 'manager', got %q", field.Key().Name())
	}
}
