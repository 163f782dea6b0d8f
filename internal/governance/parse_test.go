package governance

import (
	"errors"
	"math"
	"testing"
)

func TestParseProposalWellFormed(t *testing.T) {
	resp := `RULE: Tax the wealthy to fund the commons.
EFFECT: Collect 15% of wealth above 150 each generation.
CATEGORY: taxation`

	r, err := ParseProposal(resp, "prop1", 5)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Description != "Tax the wealthy to fund the commons." {
		t.Fatalf("description = %q", r.Description)
	}
	if r.Effect.Category != CategoryTaxation {
		t.Fatalf("category = %s", r.Effect.Category)
	}
	if r.Effect.Taxation == nil {
		t.Fatal("taxation effect not compiled")
	}
	if math.Abs(r.Effect.Taxation.Rate-0.15) > 1e-9 {
		t.Fatalf("rate = %v, want 0.15", r.Effect.Taxation.Rate)
	}
	if r.Effect.Taxation.Threshold != 150 {
		t.Fatalf("threshold = %v, want 150", r.Effect.Taxation.Threshold)
	}
	if r.State != StateProposed {
		t.Fatalf("state = %s, want proposed", r.State)
	}
	if r.GenerationProposed != 5 || r.GenerationEnacted != -1 {
		t.Fatalf("generations = %d/%d", r.GenerationProposed, r.GenerationEnacted)
	}
}

func TestParseProposalMissingEffect(t *testing.T) {
	_, err := ParseProposal("RULE: everyone be nice\nCATEGORY: other", "p", 0)
	if !errors.Is(err, ErrMalformedProposal) {
		t.Fatalf("expected ErrMalformedProposal, got %v", err)
	}
}

func TestParseProposalMissingCategory(t *testing.T) {
	_, err := ParseProposal("RULE: x\nEFFECT: y", "p", 0)
	if !errors.Is(err, ErrMalformedProposal) {
		t.Fatalf("expected ErrMalformedProposal, got %v", err)
	}
}

func TestParseProposalUnknownCategoryDegrades(t *testing.T) {
	r, err := ParseProposal("RULE: r\nEFFECT: e\nCATEGORY: theocracy", "p", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Effect.Category != CategoryOther {
		t.Fatalf("category = %s, want other", r.Effect.Category)
	}
	if r.Effect.Mechanical() {
		t.Fatal("other must be mechanically inert")
	}
}

func TestParseProposalMissingDescription(t *testing.T) {
	r, err := ParseProposal("EFFECT: raise a minimum of 30\nCATEGORY: welfare", "p", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Description != "unspecified" {
		t.Fatalf("description = %q, want unspecified", r.Description)
	}
	if r.Effect.Welfare == nil || r.Effect.Welfare.Floor != 30 {
		t.Fatalf("welfare effect = %+v", r.Effect.Welfare)
	}
}

func TestParseProposalDefaults(t *testing.T) {
	r, err := ParseProposal("RULE: vague tax\nEFFECT: tax everyone somewhat\nCATEGORY: taxation", "p", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Effect.Taxation.Rate != 0.10 || r.Effect.Taxation.Threshold != 0 {
		t.Fatalf("defaults = %+v", r.Effect.Taxation)
	}

	r, err = ParseProposal("RULE: power\nEFFECT: concentrate influence\nCATEGORY: oligarchy", "p", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	o := r.Effect.Oligarchy
	if o == nil || o.TopFraction != 0.25 || o.Multiplier != 2.0 {
		t.Fatalf("oligarchy defaults = %+v", o)
	}
}

func TestParseProposalOligarchyParams(t *testing.T) {
	r, err := ParseProposal(
		"RULE: plutocracy\nEFFECT: top 10% of agents get 3x vote weight\nCATEGORY: oligarchy", "p", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	o := r.Effect.Oligarchy
	if math.Abs(o.TopFraction-0.10) > 1e-9 || o.Multiplier != 3 {
		t.Fatalf("oligarchy = %+v", o)
	}
}

func TestParseProposalMeritocracyParams(t *testing.T) {
	r, err := ParseProposal(
		"RULE: only the best\nEFFECT: only the top 20% may reproduce\nCATEGORY: meritocracy", "p", 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := r.Effect.Meritocracy
	if m == nil || math.Abs(m.TopFraction-0.20) > 1e-9 {
		t.Fatalf("meritocracy = %+v", m)
	}
}

func TestParseVote(t *testing.T) {
	cases := []struct {
		in   string
		yes  bool
		ok   bool
		name string
	}{
		{"YES", true, true, "plain yes"},
		{"yes, I support this", true, true, "lowercase yes"},
		{"NO", false, true, "plain no"},
		{"Absolutely not. NO.", false, true, "embedded no"},
		{"maybe", false, false, "unparseable"},
		{"", false, false, "empty"},
	}
	for _, c := range cases {
		yes, ok := ParseVote(c.in)
		if yes != c.yes || ok != c.ok {
			t.Errorf("%s: ParseVote(%q) = (%v, %v), want (%v, %v)",
				c.name, c.in, yes, ok, c.yes, c.ok)
		}
	}
}
