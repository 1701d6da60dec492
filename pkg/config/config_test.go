package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	cfg, err := Build(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err == nil {
		t.Fatal("explicitly named missing config should fail")
	}

	cfg, err = Build("", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.Classifier.Trees != 1000 {
		t.Errorf("default trees = %d, want 1000", cfg.Classifier.Trees)
	}
	if cfg.Classifier.Holdout != 0.2 {
		t.Errorf("default holdout = %v, want 0.2", cfg.Classifier.Holdout)
	}
	if cfg.Classifier.MinTrainRows != 10 {
		t.Errorf("default min_train_rows = %d, want 10", cfg.Classifier.MinTrainRows)
	}
	if cfg.CategoriesPath != "categories.csv" {
		t.Errorf("default categories_path = %q", cfg.CategoriesPath)
	}
}

func TestBuildEnvOverrides(t *testing.T) {
	t.Setenv("TXNCLASS_DATABASE_URL", "postgres://env-host/banking")
	t.Setenv("TXNCLASS_CLASSIFIER_TREES", "42")

	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env-host/banking" {
		t.Errorf("database_url = %q, want env value", cfg.DatabaseURL)
	}
	if cfg.Classifier.Trees != 42 {
		t.Errorf("nested classifier.trees = %d, want env value 42", cfg.Classifier.Trees)
	}
}

func TestBuildFromFile(t *testing.T) {
	content := "database_url: postgres://db/test\ncategories_path: /etc/txn/categories.csv\nclassifier:\n  trees: 250\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://db/test" {
		t.Errorf("database_url = %q", cfg.DatabaseURL)
	}
	if cfg.CategoriesPath != "/etc/txn/categories.csv" {
		t.Errorf("categories_path = %q", cfg.CategoriesPath)
	}
	if cfg.Classifier.Trees != 250 {
		t.Errorf("trees = %d, want 250", cfg.Classifier.Trees)
	}
	if cfg.Classifier.Holdout != 0.2 {
		t.Errorf("holdout should keep default, got %v", cfg.Classifier.Holdout)
	}
}
