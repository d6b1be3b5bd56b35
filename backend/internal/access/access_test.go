package access

import (
	"context"
	"testing"

	"unipulse/backend/internal/shared"
)

func TestResolveTarget(t *testing.T) {
	student := Identity{StudentID: "S1", Role: shared.RoleStudent}
	admin := Identity{StudentID: "A1", Role: shared.RoleAdmin}

	tests := []struct {
		name      string
		id        Identity
		requested string
		want      string
		wantKind  shared.Kind
		wantErr   bool
	}{
		{"Student Defaults To Self", student, "", "S1", 0, false},
		{"Student Asks For Self", student, "S1", "S1", 0, false},
		{"Student Asks For Other", student, "S2", "", shared.KindAccessDenied, true},
		{"Admin Passes Through", admin, "S2", "S2", 0, false},
		{"Admin Without Target", admin, "", "", 0, false},
		{"Unknown Role", Identity{StudentID: "X", Role: "guest"}, "", "", shared.KindAccessDenied, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(tt.id, tt.requested)
			if tt.wantErr {
				if !shared.IsKind(err, tt.wantKind) {
					t.Fatalf("Expected %v, got %v", tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected target %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRequireTarget(t *testing.T) {
	admin := Identity{StudentID: "A1", Role: shared.RoleAdmin}

	if _, err := RequireTarget(admin, ""); !shared.IsKind(err, shared.KindValidation) {
		t.Errorf("Expected Validation for admin without target, got %v", err)
	}
	if got, err := RequireTarget(admin, "S9"); err != nil || got != "S9" {
		t.Errorf("Expected S9, got %q (err %v)", got, err)
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(Identity{StudentID: "S1", Role: shared.RoleStudent}); !shared.IsKind(err, shared.KindAccessDenied) {
		t.Errorf("Expected AccessDenied for student, got %v", err)
	}
	if err := RequireAdmin(Identity{StudentID: "A1", Role: shared.RoleAdmin}); err != nil {
		t.Errorf("Expected admin to pass, got %v", err)
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("Expected no identity on empty context")
	}

	ctx := WithIdentity(context.Background(), Identity{StudentID: "S1", Role: shared.RoleStudent})
	id, ok := FromContext(ctx)
	if !ok || id.StudentID != "S1" {
		t.Errorf("Expected S1 identity, got %+v (ok %v)", id, ok)
	}
}

func TestCanRead(t *testing.T) {
	if !CanRead(Identity{StudentID: "S1", Role: shared.RoleStudent}, "S1") {
		t.Error("Expected student to read own record")
	}
	if CanRead(Identity{StudentID: "S1", Role: shared.RoleStudent}, "S2") {
		t.Error("Expected student to be denied another record")
	}
	if !CanRead(Identity{StudentID: "A1", Role: shared.RoleAdmin}, "S2") {
		t.Error("Expected admin to read any record")
	}
}
