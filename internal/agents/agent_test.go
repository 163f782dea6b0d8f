package agents

import (
	"math"
	"testing"
)

func TestNewFounderIsOwnDynasty(t *testing.T) {
	a := NewFounder("explorer", 100)
	if a.DynastyID != a.ID {
		t.Fatalf("founder dynasty %s != own id %s", a.DynastyID, a.ID)
	}
	if !a.IsFounder() || !a.Alive {
		t.Fatal("founder must be alive with no parent")
	}
	if a.Wealth != 100 {
		t.Fatalf("wealth = %v, want 100", a.Wealth)
	}
}

func TestNewOffspringInheritsDynasty(t *testing.T) {
	parent := NewFounder("parent trait", 300)
	child := NewOffspring(parent, "mutated trait", 50, 4)

	if child.ParentID != parent.ID {
		t.Fatalf("parent id %s, want %s", child.ParentID, parent.ID)
	}
	if child.DynastyID != parent.DynastyID {
		t.Fatalf("dynasty %s, want %s", child.DynastyID, parent.DynastyID)
	}
	if child.BornGeneration != 4 {
		t.Fatalf("born generation %d, want 4", child.BornGeneration)
	}
	if child.ID == parent.ID {
		t.Fatal("child must get a fresh id")
	}
	if child.IsFounder() {
		t.Fatal("offspring is not a founder")
	}
}

func TestCanReproduce(t *testing.T) {
	a := NewFounder("x", 200)
	if !a.CanReproduce(200) {
		t.Fatal("wealth equal to cost must allow reproduction")
	}
	a.Wealth = 199.99
	if a.CanReproduce(200) {
		t.Fatal("wealth below cost must refuse reproduction")
	}
	a.Wealth = 500
	a.Alive = false
	if a.CanReproduce(200) {
		t.Fatal("dead agents cannot reproduce")
	}
}

func TestComputeWealthStats(t *testing.T) {
	list := []*Agent{
		{Wealth: 10}, {Wealth: 20}, {Wealth: 30}, {Wealth: 100},
	}
	s := ComputeWealthStats(list)
	if s.Total != 160 || s.Mean != 40 {
		t.Fatalf("total/mean = %v/%v, want 160/40", s.Total, s.Mean)
	}
	if s.Min != 10 || s.Max != 100 {
		t.Fatalf("min/max = %v/%v", s.Min, s.Max)
	}
	if math.Abs(s.Median-25) > 1e-9 {
		t.Fatalf("median = %v, want 25", s.Median)
	}

	if s := ComputeWealthStats(nil); s != (WealthStats{}) {
		t.Fatalf("empty population must yield zero stats, got %+v", s)
	}
}

func TestRankByWealth(t *testing.T) {
	list := []*Agent{
		{ID: "bb", Wealth: 50},
		{ID: "aa", Wealth: 50},
		{ID: "cc", Wealth: 200},
	}
	ranks := RankByWealth(list)
	if ranks[0] != "cc" {
		t.Fatalf("rank 0 = %s, want cc", ranks[0])
	}
	if ranks[1] != "aa" || ranks[2] != "bb" {
		t.Fatalf("ties must break by id: got %v", ranks)
	}
}
