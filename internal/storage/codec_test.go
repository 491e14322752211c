package storage

import (
	"errors"
	"testing"

	"keyforge/internal/model"
)

func TestDecodeRunChecksVersion(t *testing.T) {
	payload, err := EncodeRun(model.RunRecord{VersionedRecord: CurrentVersion(), ID: "run-1", Seed: 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	run, err := DecodeRun(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != "run-1" || run.Seed != 3 {
		t.Fatalf("unexpected run: %+v", run)
	}

	stale, err := EncodeRun(model.RunRecord{ID: "run-0"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(stale); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeLineageChecksEveryRecord(t *testing.T) {
	payload, err := EncodeLineage([]model.LineageRecord{
		{VersionedRecord: CurrentVersion(), CandidateID: "a"},
		{CandidateID: "b"},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeLineage(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeLayoutRejectsMalformedPayload(t *testing.T) {
	if _, err := DecodeLayout([]byte("{")); err == nil {
		t.Fatal("expected json error")
	}
	if _, err := DecodeFitnessHistory([]byte(`"x"`)); err == nil {
		t.Fatal("expected json error")
	}
}
