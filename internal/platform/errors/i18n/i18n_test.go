package i18n

import "testing"

func TestFormatSubstitutesMetadata(t *testing.T) {
	catalog := GetCatalog("en-US")

	msg := catalog.Format("BRANCH_NAME_TAKEN", map[string]string{"Name": "alt"})
	if msg == "" || msg == "An unexpected error occurred" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestFormatUnknownCodeFallsBack(t *testing.T) {
	catalog := GetCatalog("en-US")

	msg := catalog.Format("NO_SUCH_CODE", nil)
	if msg != "An unexpected error occurred" {
		t.Fatalf("unexpected fallback %q", msg)
	}
}

func TestGetCatalogFallsBackToEnglish(t *testing.T) {
	if GetCatalog("pt-BR").Locale() != "en-US" {
		t.Fatal("expected fallback to en-US")
	}
	if GetCatalog("").Locale() != "en-US" {
		t.Fatal("expected empty locale to resolve to en-US")
	}
}
