package i18n

import (
	"strings"
	"testing"
)

func TestTranslateWithParams(t *testing.T) {
	tr := GetTranslator()
	tr.SetLanguage(English)

	got := T("query.rows", 42)
	if !strings.Contains(got, "42") {
		t.Errorf("got %q", got)
	}
}

func TestUnknownKeyReturnsKey(t *testing.T) {
	if got := T("no.such.key"); got != "no.such.key" {
		t.Errorf("got %q", got)
	}
}

func TestLanguageSwitch(t *testing.T) {
	tr := GetTranslator()
	defer tr.SetLanguage(English)

	tr.SetLanguage(Chinese)
	if tr.GetLanguage() != Chinese {
		t.Fatalf("got %s", tr.GetLanguage())
	}
	got := T("intent.rejected")
	if !strings.Contains(got, "安全") {
		t.Errorf("expected Chinese text, got %q", got)
	}

	tr.SetLanguage(English)
	got = T("intent.rejected")
	if !strings.Contains(got, "safety") {
		t.Errorf("expected English text, got %q", got)
	}
}

func TestEveryKeyHasBothLanguages(t *testing.T) {
	for key := range englishTranslations {
		if _, ok := chineseTranslations[key]; !ok {
			t.Errorf("key %s missing Chinese translation", key)
		}
	}
	for key := range chineseTranslations {
		if _, ok := englishTranslations[key]; !ok {
			t.Errorf("key %s missing English translation", key)
		}
	}
}
