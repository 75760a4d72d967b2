package services

import (
	"testing"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"gorm.io/gorm"
)

func newGateFixture(t *testing.T) (*gorm.DB, *GateService, *model.PhysicalLocation) {
	t.Helper()

	db := newTestDB(t)
	index := NewUniquenessIndex()
	locations := NewLocationService(db, index)
	gates := NewGateService(db, index)

	loc, err := locations.Create(testCtx(), CreateLocationInput{
		Name:         "Main Campus",
		LocationType: "campus",
	})
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return db, gates, loc
}

func TestGateCreateDefaults(t *testing.T) {
	_, gates, loc := newGateFixture(t)

	gate, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-01",
		HardwareID: "HW-01",
		Name:       "North Gate",
		LocationID: loc.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gate.Direction != model.GateDirectionBidirectional {
		t.Errorf("direction should default to bidirectional, got %s", gate.Direction)
	}
	if gate.Status != model.GateStatusActive {
		t.Errorf("status should default to active, got %s", gate.Status)
	}
}

func TestGateInvalidIPv4LeavesNoRecord(t *testing.T) {
	db, gates, loc := newGateFixture(t)

	_, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-02",
		HardwareID: "HW-02",
		Name:       "Bad Gate",
		LocationID: loc.ID,
		IPAddress:  "999.1.1.1",
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var count int64
	if err := db.Model(&model.AccessGate{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Error("failed create must leave no partial record")
	}

	// The keys were never claimed either.
	if _, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-02",
		HardwareID: "HW-02",
		Name:       "Good Gate",
		LocationID: loc.ID,
		IPAddress:  "10.0.0.5",
	}); err != nil {
		t.Fatalf("retry with valid input: %v", err)
	}
}

func TestGateMACValidation(t *testing.T) {
	_, gates, loc := newGateFixture(t)

	_, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-03",
		HardwareID: "HW-03",
		Name:       "Mixed MAC",
		LocationID: loc.ID,
		MACAddress: "AA:BB-CC:DD:EE:FF",
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("mixed separators should fail, got %v", err)
	}

	if _, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-03",
		HardwareID: "HW-03",
		Name:       "Clean MAC",
		LocationID: loc.ID,
		MACAddress: "AA:BB:CC:DD:EE:FF",
	}); err != nil {
		t.Fatalf("valid mac rejected: %v", err)
	}
}

func TestGateDuplicateKeys(t *testing.T) {
	_, gates, loc := newGateFixture(t)

	if _, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-04",
		HardwareID: "HW-04",
		Name:       "First",
		LocationID: loc.ID,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Duplicate gate code.
	_, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-04",
		HardwareID: "HW-05",
		Name:       "Second",
		LocationID: loc.ID,
	})
	if !IsKind(err, KindDuplicateKey) {
		t.Fatalf("duplicate gate code should conflict, got %v", err)
	}

	// Duplicate hardware id; the gate code claimed above must have been
	// rolled back, so it is free here.
	_, err = gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-05",
		HardwareID: "HW-04",
		Name:       "Third",
		LocationID: loc.ID,
	})
	if !IsKind(err, KindDuplicateKey) {
		t.Fatalf("duplicate hardware id should conflict, got %v", err)
	}
}

func TestGateRequiresLiveLocation(t *testing.T) {
	db, gates, loc := newGateFixture(t)

	index := gates.index
	locations := NewLocationService(db, index)
	if _, err := locations.Delete(testCtx(), loc.ID); err != nil {
		t.Fatalf("delete location: %v", err)
	}

	_, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-06",
		HardwareID: "HW-06",
		Name:       "Orphan",
		LocationID: loc.ID,
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("deleted location should reject new gates, got %v", err)
	}

	_, err = gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-06",
		HardwareID: "HW-06",
		Name:       "Ghost",
		LocationID: 99999,
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("unknown location should reject new gates, got %v", err)
	}
}

func TestGateDeleteRestoreKeys(t *testing.T) {
	_, gates, loc := newGateFixture(t)

	gate, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-07",
		HardwareID: "HW-07",
		Name:       "Cycled",
		LocationID: loc.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := gates.Delete(testCtx(), gate.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Both keys free while deleted.
	replacement, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-07",
		HardwareID: "HW-07",
		Name:       "Replacement",
		LocationID: loc.ID,
	})
	if err != nil {
		t.Fatalf("reuse keys after delete: %v", err)
	}

	// Restore now conflicts on the reused keys.
	if _, err := gates.Restore(testCtx(), gate.ID); !IsKind(err, KindDuplicateKey) {
		t.Fatalf("restore over reused keys should conflict, got %v", err)
	}

	// Once the replacement is gone the original can come back.
	if _, err := gates.Delete(testCtx(), replacement.ID); err != nil {
		t.Fatalf("delete replacement: %v", err)
	}
	restored, err := gates.Restore(testCtx(), gate.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.IsDeleted() {
		t.Error("restored gate should be live")
	}
}

func TestGateUpdateImmutableKeys(t *testing.T) {
	_, gates, loc := newGateFixture(t)

	gate, err := gates.Create(testCtx(), CreateGateInput{
		GateCode:   "GATE-08",
		HardwareID: "HW-08",
		Name:       "Fixed",
		LocationID: loc.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := model.GateStatusMaintenance
	updated, err := gates.Update(testCtx(), gate.ID, UpdateGateInput{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.GateStatusMaintenance {
		t.Errorf("status = %s, want maintenance", updated.Status)
	}
	if updated.GateCode != "GATE-08" || updated.HardwareID != "HW-08" {
		t.Error("gate code and hardware id must never change")
	}

	bad := "300.1.1.1"
	if _, err := gates.Update(testCtx(), gate.ID, UpdateGateInput{IPAddress: &bad}); !IsKind(err, KindValidation) {
		t.Errorf("invalid ip on update should fail validation, got %v", err)
	}
}
