package nest

import "testing"

func carTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := New("passenger", true, []Node{
		{Key: "road", Exponent: 2},
		{Key: "car", Parent: "road", Level: 1, Exponent: 0.5},
		{Key: "bus", Parent: "road", Level: 1, Exponent: 0.5},
		{Key: "car_liq", Parent: "car", Level: 2, VehicleType: "car", Technology: "liquids"},
		{Key: "car_bev", Parent: "car", Level: 2, VehicleType: "car", Technology: "bev"},
		{Key: "bus_liq", Parent: "bus", Level: 2, VehicleType: "bus", Technology: "liquids"},
	})
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	return tree
}

func TestTreeTraversalOrder(t *testing.T) {
	tree := carTree(t)
	if got := tree.Root().Key; got != "road" {
		t.Fatalf("root = %s", got)
	}
	levels := tree.BottomUp()
	if len(levels) != 3 {
		t.Fatalf("levels = %d", len(levels))
	}
	leaves := levels[0]
	want := []string{"bus_liq", "car_bev", "car_liq"}
	for i, k := range want {
		if leaves[i] != k {
			t.Fatalf("leaf order %v, want %v", leaves, want)
		}
	}
	kids := tree.Children("car")
	if len(kids) != 2 || kids[0].Key != "car_bev" || kids[1].Key != "car_liq" {
		t.Fatalf("children of car: %v", kids)
	}
}

func TestLeavesUnder(t *testing.T) {
	tree := carTree(t)
	if got := tree.LeavesUnder("car"); len(got) != 2 {
		t.Fatalf("leaves under car: %d", len(got))
	}
	if got := tree.LeavesUnder("road"); len(got) != 3 {
		t.Fatalf("leaves under root: %d", len(got))
	}
	if got := tree.LeavesUnder("car_liq"); len(got) != 1 || got[0].Key != "car_liq" {
		t.Fatalf("leaf subtree: %v", got)
	}
}

func TestTreeValidation(t *testing.T) {
	cases := []struct {
		name  string
		nodes []Node
	}{
		{"no root", []Node{{Key: "a", Parent: "b"}, {Key: "b", Parent: "a"}}},
		{"two roots", []Node{{Key: "a", VehicleType: "x", Technology: "y"}, {Key: "b", VehicleType: "x", Technology: "z"}}},
		{"duplicate key", []Node{{Key: "a", Exponent: 1}, {Key: "b", Parent: "a", VehicleType: "x", Technology: "y"}, {Key: "b", Parent: "a", VehicleType: "x", Technology: "z"}}},
		{"missing parent", []Node{{Key: "a", Exponent: 1}, {Key: "b", Parent: "c", VehicleType: "x", Technology: "y"}}},
		{"childless internal", []Node{{Key: "a", Exponent: 1}, {Key: "b", Parent: "a"}}},
		{"zero exponent", []Node{{Key: "a", Exponent: 0}, {Key: "b", Parent: "a", VehicleType: "x", Technology: "y"}}},
		{"leaf with children", []Node{{Key: "a", Exponent: 1, VehicleType: "x", Technology: "y"}, {Key: "b", Parent: "a", VehicleType: "x", Technology: "z"}}},
	}
	for _, tc := range cases {
		if _, err := New("s", false, tc.nodes); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
