package access

import "testing"

func TestAdmins(t *testing.T) {
	a := NewAdmins([]int64{10, 20, 10})
	if !a.IsAdmin(10) || !a.IsAdmin(20) {
		t.Fatalf("configured ids should be admins")
	}
	if a.IsAdmin(30) {
		t.Fatalf("30 is not an admin")
	}
	if a.Len() != 2 {
		t.Fatalf("want 2 distinct admins, got %d", a.Len())
	}
	var zero Admins
	if zero.IsAdmin(10) {
		t.Fatalf("zero value must deny")
	}
}
