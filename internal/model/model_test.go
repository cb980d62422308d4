package model

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/features"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/forest"
)

func record(branch string, cgpa float64, company, role string, pkg float64, skills ...string) dataset.Record {
	return dataset.Record{
		Branch:  branch,
		CGPA:    cgpa,
		Skills:  dataset.NewSkillSet(skills...),
		Company: company,
		JobRole: role,
		Package: pkg,
		Year:    2023,
	}
}

func trainingTable() *dataset.Table {
	return &dataset.Table{Records: []dataset.Record{
		record("CSE", 8.8, "Google", "Developer", 24, "python", "go"),
		record("CSE", 8.5, "Google", "Developer", 22, "python", "go", "sql"),
		record("CSE", 8.9, "Google", "Developer", 25, "go", "kubernetes"),
		record("IT", 8.6, "Google", "Developer", 23, "python", "go"),
		record("ECE", 7.1, "TCS", "Tester", 4, "selenium", "java"),
		record("ECE", 6.8, "TCS", "Tester", 3.5, "selenium"),
		record("MECH", 7.0, "TCS", "Tester", 4.2, "java", "selenium"),
		record("ECE", 6.9, "TCS", "Tester", 3.8, "selenium", "excel"),
		record("IT", 7.9, "Deloitte", "Analyst", 9, "excel", "sql"),
		record("MECH", 7.7, "Deloitte", "Analyst", 8.5, "excel", "powerbi"),
		record("IT", 8.0, "Deloitte", "Analyst", 9.5, "sql", "powerbi"),
		record("CSE", 7.8, "Deloitte", "Analyst", 8.8, "excel", "sql", "powerbi"),
	}}
}

func train(t *testing.T) *Bundle {
	t.Helper()

	bundle, err := NewTrainer(forest.Config{Trees: 30, Seed: 42}, zap.NewNop()).Train(context.Background(), trainingTable())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	return bundle
}

func TestTrainProducesValidBundle(t *testing.T) {
	bundle := train(t)

	if bundle.ID == "" {
		t.Fatalf("expected bundle id")
	}
	if bundle.Version != BundleVersion {
		t.Fatalf("unexpected version %d", bundle.Version)
	}
	if len(bundle.Schema) != bundle.Encoder().Width() {
		t.Fatalf("schema and encoder width disagree")
	}
	if len(bundle.Vocabulary) != 8 {
		t.Fatalf("expected 8 vocabulary entries, got %d: %v", len(bundle.Vocabulary), bundle.Vocabulary)
	}
	if len(bundle.Role.Trees) != 30 || len(bundle.Company.Trees) != 30 || len(bundle.Package.Trees) != 30 {
		t.Fatalf("expected 30 trees per model")
	}
}

func TestTrainEmptyDataset(t *testing.T) {
	_, err := NewTrainer(forest.Config{}, nil).Train(context.Background(), &dataset.Table{})
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestTrainIsReproducible(t *testing.T) {
	a, b := train(t), train(t)

	ra, _ := json.Marshal(a.Package)
	rb, _ := json.Marshal(b.Package)
	if string(ra) != string(rb) {
		t.Fatalf("expected identical package models for identical data and seed")
	}
}

func TestPredictTrainingRow(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bundle.json"))
	if _, err := store.Save(train(t)); err != nil {
		t.Fatalf("save: %v", err)
	}

	predictor := NewPredictor(store, zap.NewNop())
	prediction, err := predictor.Predict(features.Query{
		Branch: "CSE",
		CGPA:   8.8,
		Skills: []string{"python", "go"},
		Year:   2023,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if prediction.Company != "Google" || prediction.Role != "Developer" {
		t.Fatalf("unexpected prediction: %+v", prediction)
	}
	if math.Abs(prediction.Package-24) > 4 {
		t.Fatalf("expected package close to 24, got %v", prediction.Package)
	}
	if prediction.Package != math.Round(prediction.Package*100)/100 {
		t.Fatalf("expected package rounded to two decimals, got %v", prediction.Package)
	}
}

func TestPredictUnknownCategoriesDoNotFail(t *testing.T) {
	predictor := NewPredictor(NewFileStore(filepath.Join(t.TempDir(), "unused.json")), nil)
	if err := predictor.Set(train(t)); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := predictor.Predict(features.Query{Branch: "AERO", Skills: []string{"cobol"}}); err != nil {
		t.Fatalf("expected unseen categories to be tolerated, got %v", err)
	}
}

func TestPredictWithoutBundle(t *testing.T) {
	predictor := NewPredictor(NewFileStore(filepath.Join(t.TempDir(), "missing.json")), nil)

	if _, err := predictor.Predict(features.Query{Branch: "CSE"}); !errors.Is(err, ErrMissingModel) {
		t.Fatalf("expected ErrMissingModel, got %v", err)
	}
}

func TestPredictorCachesAndInvalidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	store := NewFileStore(path)
	if _, err := store.Save(train(t)); err != nil {
		t.Fatalf("save: %v", err)
	}

	predictor := NewPredictor(store, nil)
	first, err := predictor.Bundle()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	second, err := predictor.Bundle()
	if err != nil || first != second {
		t.Fatalf("expected cached bundle, got %v", err)
	}

	predictor.Invalidate()
	if _, err := predictor.Bundle(); !errors.Is(err, ErrMissingModel) {
		t.Fatalf("expected reload after invalidate, got %v", err)
	}
}

func TestFileStoreOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "models", "bundle.json"))

	first := train(t)
	if _, err := store.Save(first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := train(t)
	path, err := store.Save(second)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != second.ID {
		t.Fatalf("expected the latest bundle, got %s", loaded.ID)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temporary files, got %d entries", len(entries))
	}
}

func TestFileStoreRejectsInconsistentBundle(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bundle)
	}{
		{name: "vocabulary mismatch", mutate: func(b *Bundle) { b.Vocabulary = b.Vocabulary[1:] }},
		{name: "missing model", mutate: func(b *Bundle) { b.Company = nil }},
		{name: "version mismatch", mutate: func(b *Bundle) { b.Version = BundleVersion + 1 }},
		{name: "schema width", mutate: func(b *Bundle) { b.Schema = append(b.Schema, "skill__zzz"); b.Vocabulary = append(b.Vocabulary, "zzz") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := train(t)
			tt.mutate(bundle)

			path := filepath.Join(t.TempDir(), "bundle.json")
			raw, err := json.Marshal(bundle)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if err := os.WriteFile(path, raw, 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}

			if _, err := NewFileStore(path).Load(); !errors.Is(err, ErrInvalidBundle) {
				t.Fatalf("expected ErrInvalidBundle, got %v", err)
			}
		})
	}
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := os.WriteFile(path, []byte("{\"version\": 1, \"schema\": ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewFileStore(path).Load(); !errors.Is(err, ErrInvalidBundle) {
		t.Fatalf("expected ErrInvalidBundle, got %v", err)
	}
}
