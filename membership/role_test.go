package membership

import "testing"

func TestRoleOrder(t *testing.T) {
	if !RoleViewer.AtLeast(RoleViewer) {
		t.Fatal("viewer should satisfy viewer")
	}
	if !RoleDeveloper.AtLeast(RoleViewer) {
		t.Fatal("developer should satisfy viewer")
	}
	if !RoleAdmin.AtLeast(RoleDeveloper) {
		t.Fatal("admin should satisfy developer")
	}
	if RoleViewer.AtLeast(RoleDeveloper) {
		t.Fatal("viewer should not satisfy developer")
	}
	if RoleDeveloper.AtLeast(RoleAdmin) {
		t.Fatal("developer should not satisfy admin")
	}
}

func TestRoleOrderReflexiveAndTransitive(t *testing.T) {
	roles := []Role{RoleViewer, RoleDeveloper, RoleAdmin}

	for _, r := range roles {
		if !r.AtLeast(r) {
			t.Fatalf("%s should satisfy itself", r)
		}
	}

	// admin >= developer and developer >= viewer implies admin >= viewer.
	for _, a := range roles {
		for _, b := range roles {
			for _, c := range roles {
				if a.AtLeast(b) && b.AtLeast(c) && !a.AtLeast(c) {
					t.Fatalf("order not transitive: %s >= %s >= %s", a, b, c)
				}
			}
		}
	}
}

func TestUnknownRoleNeverSatisfies(t *testing.T) {
	bogus := Role("superuser")

	if bogus.Valid() {
		t.Fatal("unknown role should not be valid")
	}
	if bogus.AtLeast(RoleViewer) {
		t.Fatal("unknown role should not satisfy viewer")
	}
	if RoleAdmin.AtLeast(bogus) {
		t.Fatal("no role should satisfy an unknown requirement")
	}
}

func TestRoleRank(t *testing.T) {
	if RoleViewer.Rank() != 1 || RoleDeveloper.Rank() != 2 || RoleAdmin.Rank() != 3 {
		t.Fatalf("unexpected ranks: %d %d %d",
			RoleViewer.Rank(), RoleDeveloper.Rank(), RoleAdmin.Rank())
	}
	if Role("nope").Rank() != 0 {
		t.Fatal("unknown role should rank 0")
	}
}
