package emails

import "testing"

func TestIsValid(t *testing.T) {
	valid := []string{
		"coach@rink.com",
		"  Coach@Rink.COM  ",
		"first.last+tag@club.example.org",
		"o'brien@sub.domain.io",
	}
	for _, input := range valid {
		if !IsValid(input) {
			t.Fatalf("expected %q to be valid", input)
		}
	}

	invalid := []string{
		"",
		"   ",
		"plainaddress",
		"@missing-local.com",
		"missing-domain@",
		"no-tld@domain",
		"two@@signs.com",
		"spaces in@local.com",
		"trailing@dot.",
	}
	for _, input := range invalid {
		if IsValid(input) {
			t.Fatalf("expected %q to be invalid", input)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"  Coach@Rink.COM ", "already@lower.com", "\tTabbed@Club.Org\n"}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: %q vs %q", input, once, twice)
		}
	}
}

func TestValidNormalized(t *testing.T) {
	got, ok := ValidNormalized("  Coach@Rink.COM ")
	if !ok {
		t.Fatal("expected valid")
	}
	if got != "coach@rink.com" {
		t.Fatalf("unexpected normalized form %q", got)
	}

	got, ok = ValidNormalized("  not-an-email ")
	if ok {
		t.Fatal("expected invalid")
	}
	if got != "not-an-email" {
		t.Fatalf("normalized form should still be returned, got %q", got)
	}
}
